package handlers

import (
	"net/http"
	"strings"

	"awards/internal/scoring"
	"awards/models"
)

type candidateInput struct {
	Name         *string  `json:"name"`
	Organization *string  `json:"organization"`
	Position     *string  `json:"position"`
	Bio          *string  `json:"bio"`
	Categories   []string `json:"categories"`
	AwardYear    *int     `json:"awardYear"`
}

func (in *candidateInput) apply(c *models.Candidate) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Organization != nil {
		c.Organization = strings.TrimSpace(*in.Organization)
	}
	if in.Position != nil {
		c.Position = strings.TrimSpace(*in.Position)
	}
	if in.Bio != nil {
		c.Bio = *in.Bio
	}
	if in.Categories != nil {
		c.Categories = cleanList(in.Categories)
	}
	if in.AwardYear != nil {
		c.AwardYear = *in.AwardYear
	}
}

// validateCandidate checks required fields
func validateCandidate(c *models.Candidate) error {
	if c.Name == "" || len(c.Name) > 200 {
		return invalid("name is required and max length 200")
	}
	if len(c.Organization) > 200 || len(c.Position) > 200 {
		return invalid("organization and position max length 200")
	}
	if len(c.Bio) > 10000 {
		return invalid("bio max length 10000")
	}
	if c.AwardYear < 0 {
		return invalid("awardYear must not be negative")
	}
	return nil
}

// CreateCandidateHandler handles POST /api/candidates
func (h *Handler) CreateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	var in candidateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	var c models.Candidate
	in.apply(&c)
	if c.Categories == nil {
		c.Categories = []string{}
	}
	if err := validateCandidate(&c); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.CreateCandidate(r.Context(), &c); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.InfoContext(r.Context(), "candidate created", "candidate_id", c.ID, "by", actorFrom(r.Context()))
	h.respond(w, http.StatusCreated, c)
}

// GetCandidatesHandler lists candidates, filtered by category and search text.
func (h *Handler) GetCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r, 50)
	candidates, err := h.Store.ListCandidates(r.Context(), models.CandidateFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, candidates)
}

func (h *Handler) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "candidateId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.Store.GetCandidate(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, c)
}

// UpdateCandidateHandler applies a partial update.
func (h *Handler) UpdateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "candidateId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var in candidateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.Store.GetCandidate(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	in.apply(c)
	if err := validateCandidate(c); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.UpdateCandidate(r.Context(), c); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, c)
}

func (h *Handler) DeleteCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "candidateId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteCandidate(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.WarnContext(r.Context(), "candidate deleted", "candidate_id", id, "by", actorFrom(r.Context()))
	h.respond(w, http.StatusOK, map[string]int{"deleted": id})
}

type candidateDetails struct {
	Candidate   *models.Candidate      `json:"candidate"`
	Result      models.CandidateResult `json:"result"`
	Evaluations []models.Evaluation    `json:"evaluations"`
	JuryIDs     []int                  `json:"assignedJuryIds"`
}

// GetCandidateDetailsHandler returns a candidate with its submitted
// evaluations, aggregate result and assigned jury members.
func (h *Handler) GetCandidateDetailsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "candidateId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	c, err := h.Store.GetCandidate(ctx, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	evals, err := h.Store.ListEvaluations(ctx, models.EvaluationFilter{
		CandidateID: id, Status: models.StatusSubmitted, ActiveOnly: true,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	assignments, err := h.Store.ListAssignments(ctx, 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	details := candidateDetails{
		Candidate:   c,
		Result:      scoring.Aggregate([]models.Candidate{*c}, evals)[0],
		Evaluations: evals,
		JuryIDs:     []int{},
	}
	for _, a := range assignments {
		if a.CandidateID == id {
			details.JuryIDs = append(details.JuryIDs, a.JuryMemberID)
		}
	}
	h.respond(w, http.StatusOK, details)
}
