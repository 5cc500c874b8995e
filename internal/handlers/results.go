package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"awards/internal/scoring"
	"awards/internal/stats"
	"awards/models"
)

func (h *Handler) votingResults(ctx context.Context, category string) ([]models.CandidateResult, error) {
	candidates, err := h.Store.ListCandidates(ctx, models.CandidateFilter{Category: category})
	if err != nil {
		return nil, err
	}
	evals, err := h.Store.ListEvaluations(ctx, models.EvaluationFilter{Status: models.StatusSubmitted, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return scoring.Aggregate(candidates, evals), nil
}

// GetResultsHandler returns the ranked voting results.
func (h *Handler) GetResultsHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.votingResults(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			h.respondError(w, r, invalid("invalid limit"))
			return
		}
		results = results[:min(limit, len(results))]
	}
	h.respond(w, http.StatusOK, results)
}

type snapshot struct {
	jury        []models.JuryMember
	candidates  []models.Candidate
	assignments []models.Assignment
	evals       []models.Evaluation
}

func (h *Handler) loadSnapshot(ctx context.Context) (*snapshot, error) {
	var (
		s   snapshot
		err error
	)
	if s.jury, err = h.Store.ListJuryMembers(ctx, false); err != nil {
		return nil, err
	}
	if s.candidates, err = h.Store.ListCandidates(ctx, models.CandidateFilter{}); err != nil {
		return nil, err
	}
	if s.assignments, err = h.Store.ListAssignments(ctx, 0); err != nil {
		return nil, err
	}
	if s.evals, err = h.Store.ListEvaluations(ctx, models.EvaluationFilter{ActiveOnly: true}); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetJuryProgressHandler reports per-jury evaluation progress.
func (h *Handler) GetJuryProgressHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.loadSnapshot(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, stats.JuryProgress(s.jury, s.assignments, s.evals))
}

func (h *Handler) setting(ctx context.Context, key string) (string, error) {
	v, err := h.Store.GetSetting(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// GetDashboardHandler returns the headline counters.
func (h *Handler) GetDashboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := h.loadSnapshot(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	d := stats.Dashboard(s.candidates, s.jury, s.assignments, s.evals)
	if d.AwardYear, err = h.setting(ctx, models.SettingAwardYear); err != nil {
		h.respondError(w, r, err)
		return
	}
	if d.Phase, err = h.setting(ctx, models.SettingCurrentPhase); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, d)
}
