package handlers

import (
	"errors"
	"net/http"

	"awards/internal/scoring"
	"awards/models"
)

const maxCommentLength = 5000

type myAssignment struct {
	Candidate  models.Candidate `json:"candidate"`
	Status     string           `json:"status"`
	TotalScore int              `json:"totalScore"`
}

// GetMyAssignmentsHandler lists the caller's candidates with the state of
// their evaluation: pending, draft or submitted.
func (h *Handler) GetMyAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member := juryFrom(ctx)
	assignments, err := h.Store.ListAssignments(ctx, member.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	evals, err := h.Store.ListEvaluations(ctx, models.EvaluationFilter{JuryMemberID: member.ID, ActiveOnly: true})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	byCandidate := make(map[int]models.Evaluation, len(evals))
	for _, e := range evals {
		byCandidate[e.CandidateID] = e
	}

	out := make([]myAssignment, 0, len(assignments))
	for _, a := range assignments {
		c, err := h.Store.GetCandidate(ctx, a.CandidateID)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		item := myAssignment{Candidate: *c, Status: "pending"}
		if e, ok := byCandidate[a.CandidateID]; ok {
			item.Status = e.Status
			item.TotalScore = e.TotalScore
		}
		out = append(out, item)
	}
	h.respond(w, http.StatusOK, out)
}

// GetMyEvaluationsHandler lists the caller's active evaluations.
func (h *Handler) GetMyEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	member := juryFrom(r.Context())
	evals, err := h.Store.ListEvaluations(r.Context(), models.EvaluationFilter{
		JuryMemberID: member.ID,
		Status:       r.URL.Query().Get("status"),
		ActiveOnly:   true,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, evals)
}

type evaluationRequest struct {
	models.Scores
	Comments string `json:"comments"`
	Status   string `json:"status"`
}

// SaveEvaluationHandler stores the caller's draft or submitted evaluation
// of an assigned candidate.
func (h *Handler) SaveEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, err := urlID(r, "candidateId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req evaluationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	member := juryFrom(ctx)
	e, err := h.saveEvaluation(r, member, candidateID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.InfoContext(ctx, "evaluation saved",
		"jury_member_id", member.ID, "candidate_id", candidateID, "status", e.Status, "total", e.TotalScore)
	h.respond(w, http.StatusOK, e)
}

func (h *Handler) saveEvaluation(r *http.Request, member *models.JuryMember, candidateID int, req evaluationRequest) (*models.Evaluation, error) {
	ctx := r.Context()
	if req.Status == "" {
		req.Status = models.StatusDraft
	}
	if req.Status != models.StatusDraft && req.Status != models.StatusSubmitted {
		return nil, invalid("status must be draft or submitted")
	}
	if len(req.Comments) > maxCommentLength {
		return nil, invalid("comments max length %d", maxCommentLength)
	}
	if err := scoring.Validate(req.Scores); err != nil {
		return nil, err
	}

	phase, err := h.Store.GetSetting(ctx, models.SettingCurrentPhase)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if phase != models.PhaseEvaluation && phase != models.PhaseFinal {
		return nil, models.ErrPhaseClosed
	}

	assigned, err := h.Store.IsAssigned(ctx, member.ID, candidateID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, models.ErrNotAssigned
	}

	e := &models.Evaluation{
		JuryMemberID: member.ID,
		CandidateID:  candidateID,
		Scores:       req.Scores,
		TotalScore:   scoring.Total(req.Scores),
		Comments:     req.Comments,
		Status:       req.Status,
	}
	// the store rejects a draft over a submitted evaluation
	if err := h.Store.SaveEvaluation(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
