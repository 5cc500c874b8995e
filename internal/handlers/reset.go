package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"awards/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// FullResetConfirmation must be sent verbatim to reset every vote.
const FullResetConfirmation = "RESET ALL VOTES"

type resetRequest struct {
	JuryMemberID int    `json:"juryMemberId"`
	CandidateID  int    `json:"candidateId"`
	FromPhase    string `json:"fromPhase"`
	ToPhase      string `json:"toPhase"`
	Reason       string `json:"reason"`
	Backup       *bool  `json:"backup"`
	Confirm      string `json:"confirm"`
}

func (req *resetRequest) backup() bool {
	return req.Backup == nil || *req.Backup
}

type resetResponse struct {
	OperationID   string `json:"operationId"`
	VotesAffected int    `json:"votesAffected"`
	BackupCreated bool   `json:"backupCreated"`
	Phase         string `json:"phase,omitempty"`
}

// resetBuilder validates a request for one reset type and turns it into an
// operation.
type resetBuilder func(h *Handler, r *http.Request, req *resetRequest, op *models.ResetOperation) error

func (h *Handler) resetHandler(resetType string, build resetBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
		req.Reason = strings.TrimSpace(req.Reason)
		if len(req.Reason) > 1000 {
			h.respondError(w, r, invalid("reason max length 1000"))
			return
		}
		if resetType != models.ResetIndividual && req.Reason == "" {
			h.respondError(w, r, invalid("reason is required"))
			return
		}

		ctx := r.Context()
		op := &models.ResetOperation{
			Backup: req.backup(),
			Log: models.ResetLog{
				OperationID: uuid.NewString(),
				ResetType:   resetType,
				InitiatedBy: actorFrom(ctx),
				Reason:      req.Reason,
			},
		}
		if err := build(h, r, &req, op); err != nil {
			h.respondError(w, r, err)
			return
		}

		n, err := h.Store.ResetEvaluations(ctx, op)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.Log.WarnContext(ctx, "votes reset",
			"operation_id", op.Log.OperationID,
			"type", resetType,
			"votes_affected", n,
			"backup", op.Log.BackupCreated,
			"by", op.Log.InitiatedBy,
		)
		h.respond(w, http.StatusOK, resetResponse{
			OperationID:   op.Log.OperationID,
			VotesAffected: n,
			BackupCreated: op.Log.BackupCreated,
			Phase:         op.SetPhase,
		})
	}
}

func buildIndividualReset(h *Handler, r *http.Request, req *resetRequest, op *models.ResetOperation) error {
	if req.JuryMemberID <= 0 || req.CandidateID <= 0 {
		return invalid("juryMemberId and candidateId are required")
	}
	if _, err := h.Store.GetActiveEvaluation(r.Context(), req.JuryMemberID, req.CandidateID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return err
	}
	op.Scope = models.ResetScope{JuryMemberID: &req.JuryMemberID, CandidateID: &req.CandidateID}
	op.Log.JuryMemberID = &req.JuryMemberID
	op.Log.CandidateID = &req.CandidateID
	return nil
}

func buildCandidateReset(h *Handler, r *http.Request, req *resetRequest, op *models.ResetOperation) error {
	if req.CandidateID <= 0 {
		return invalid("candidateId is required")
	}
	if _, err := h.Store.GetCandidate(r.Context(), req.CandidateID); err != nil {
		return err
	}
	op.Scope = models.ResetScope{CandidateID: &req.CandidateID}
	op.Log.CandidateID = &req.CandidateID
	return nil
}

func buildJuryReset(h *Handler, r *http.Request, req *resetRequest, op *models.ResetOperation) error {
	if req.JuryMemberID <= 0 {
		return invalid("juryMemberId is required")
	}
	if _, err := h.Store.GetJuryMember(r.Context(), req.JuryMemberID); err != nil {
		return err
	}
	op.Scope = models.ResetScope{JuryMemberID: &req.JuryMemberID}
	op.Log.JuryMemberID = &req.JuryMemberID
	return nil
}

func buildPhaseReset(h *Handler, r *http.Request, req *resetRequest, op *models.ResetOperation) error {
	if !slices.Contains(models.Phases, req.FromPhase) || !slices.Contains(models.Phases, req.ToPhase) {
		return invalid("fromPhase and toPhase must be one of %s", strings.Join(models.Phases, ", "))
	}
	if req.FromPhase == req.ToPhase {
		return invalid("fromPhase and toPhase must differ")
	}
	current, err := h.Store.GetSetting(r.Context(), models.SettingCurrentPhase)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if current != req.FromPhase {
		return invalid("current phase is %q, not %q", current, req.FromPhase)
	}
	op.RequirePhase = req.FromPhase
	op.Log.FromPhase = req.FromPhase
	op.Log.ToPhase = req.ToPhase
	op.SetPhase = req.ToPhase
	return nil
}

func buildFullReset(h *Handler, r *http.Request, req *resetRequest, op *models.ResetOperation) error {
	if req.Confirm != FullResetConfirmation {
		return invalid("confirm must be %q", FullResetConfirmation)
	}
	op.Backup = true
	return nil
}

// GetResetLogsHandler lists the reset audit trail, newest first.
func (h *Handler) GetResetLogsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r, 50)
	logs, err := h.Store.ListResetLogs(r.Context(), params.Limit, params.Offset)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, logs)
}

func operationID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "operationId"))
	if err != nil {
		return "", invalid("invalid operationId")
	}
	return id.String(), nil
}

func (h *Handler) GetResetBackupsHandler(w http.ResponseWriter, r *http.Request) {
	opID, err := operationID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	backups, err := h.Store.ListBackups(r.Context(), opID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, backups)
}

// RestoreResetHandler reactivates the evaluations backed up by a reset
// operation. Pairs that were evaluated again since the reset are skipped.
func (h *Handler) RestoreResetHandler(w http.ResponseWriter, r *http.Request) {
	opID, err := operationID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	log := &models.ResetLog{
		OperationID: uuid.NewString(),
		ResetType:   models.ResetRestore,
		InitiatedBy: actorFrom(ctx),
		Reason:      "restore of " + opID,
	}
	n, err := h.Store.RestoreBackups(ctx, opID, log)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.WarnContext(ctx, "votes restored", "source_operation_id", opID, "restored", n, "by", log.InitiatedBy)
	h.respond(w, http.StatusOK, map[string]interface{}{
		"operationId": log.OperationID,
		"restored":    n,
	})
}
