package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"awards/models"
)

var resultsHeader = []string{
	"rank", "candidate_id", "name", "organization", "categories", "evaluations",
	"avg_courage", "avg_innovation", "avg_implementation", "avg_relevance", "avg_visibility", "avg_total",
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExportVotingResultsHandler streams the ranked results as CSV.
func (h *Handler) ExportVotingResultsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	results, err := h.votingResults(ctx, strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	year, err := h.setting(ctx, models.SettingAwardYear)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if year == "" {
		year = time.Now().Format("2006")
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="voting-results-%s.csv"`, year))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(resultsHeader)
	for _, res := range results {
		cw.Write([]string{
			strconv.Itoa(res.Rank),
			strconv.Itoa(res.CandidateID),
			res.Name,
			res.Organization,
			strings.Join(res.Categories, ";"),
			strconv.Itoa(res.EvaluationCount),
			formatScore(res.AvgCourage),
			formatScore(res.AvgInnovation),
			formatScore(res.AvgImplementation),
			formatScore(res.AvgRelevance),
			formatScore(res.AvgVisibility),
			formatScore(res.AvgTotal),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.ErrorContext(ctx, "csv export failed", "error", err)
	}
}

type exportDocument struct {
	ExportedAt  time.Time           `json:"exportedAt"`
	Settings    []models.Setting    `json:"settings"`
	Candidates  []models.Candidate  `json:"candidates"`
	JuryMembers []models.JuryMember `json:"juryMembers"`
	Assignments []models.Assignment `json:"assignments"`
	Evaluations []models.Evaluation `json:"evaluations"`
	ResetLogs   []models.ResetLog   `json:"resetLogs"`
}

// ExportAllDataHandler returns every record as a single JSON document.
func (h *Handler) ExportAllDataHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := h.loadSnapshot(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	doc := exportDocument{
		ExportedAt:  time.Now().UTC(),
		Candidates:  s.candidates,
		JuryMembers: s.jury,
		Assignments: s.assignments,
		Evaluations: s.evals,
	}
	if doc.Settings, err = h.Store.ListSettings(ctx); err != nil {
		h.respondError(w, r, err)
		return
	}
	if doc.ResetLogs, err = h.Store.ListResetLogs(ctx, 10000, 0); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="mt-export.json"`)
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		h.Log.ErrorContext(ctx, "json export failed", "error", err)
	}
}
