package handlers

import (
	"net/http"
	"time"

	"awards/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes mounts the API. Admin routes require adminToken.
func (h *Handler) Routes(adminToken string, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.RequestLogger)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		// jury member screens
		r.Route("/my", func(r chi.Router) {
			r.Use(h.RequireJury)
			r.Get("/assignments", h.GetMyAssignmentsHandler)
			r.Get("/evaluations", h.GetMyEvaluationsHandler)
			r.Put("/evaluations/{candidateId}", h.SaveEvaluationHandler)
		})

		// admin screens
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin(adminToken))

			r.Get("/dashboard", h.GetDashboardHandler)
			r.Get("/diagnostics", h.GetDiagnosticsHandler)

			r.Post("/candidates", h.CreateCandidateHandler)
			r.Get("/candidates", h.GetCandidatesHandler)
			r.Get("/candidates/{candidateId}", h.GetCandidateHandler)
			r.Put("/candidates/{candidateId}", h.UpdateCandidateHandler)
			r.Delete("/candidates/{candidateId}", h.DeleteCandidateHandler)
			r.Get("/candidates/{candidateId}/details", h.GetCandidateDetailsHandler)

			r.Post("/jury", h.CreateJuryMemberHandler)
			r.Get("/jury", h.GetJuryMembersHandler)
			r.Get("/jury/{juryId}", h.GetJuryMemberHandler)
			r.Put("/jury/{juryId}", h.UpdateJuryMemberHandler)
			r.Get("/jury/{juryId}/available-candidates", h.GetCandidatesForAssignmentHandler)

			r.Get("/assignments", h.GetAssignmentsHandler)
			r.Post("/assignments", h.AssignCandidatesHandler)
			r.Post("/assignments/auto", h.AutoAssignHandler)
			r.Delete("/assignments/{juryId}/{candidateId}", h.RemoveAssignmentHandler)

			r.Post("/reset/individual", h.resetHandler(models.ResetIndividual, buildIndividualReset))
			r.Post("/reset/bulk-candidate", h.resetHandler(models.ResetBulkCandidate, buildCandidateReset))
			r.Post("/reset/bulk-jury", h.resetHandler(models.ResetBulkJury, buildJuryReset))
			r.Post("/reset/phase-transition", h.resetHandler(models.ResetPhaseTransition, buildPhaseReset))
			r.Post("/reset/full-system", h.resetHandler(models.ResetFullSystem, buildFullReset))
			r.Get("/reset/logs", h.GetResetLogsHandler)
			r.Get("/reset/{operationId}/backups", h.GetResetBackupsHandler)
			r.Post("/reset/{operationId}/restore", h.RestoreResetHandler)

			r.Get("/results", h.GetResultsHandler)
			r.Get("/results/jury-progress", h.GetJuryProgressHandler)
			r.Get("/export/results.csv", h.ExportVotingResultsHandler)
			r.Get("/export/all", h.ExportAllDataHandler)

			r.Post("/reminders", h.SendReminderHandler)

			r.Get("/settings", h.GetSettingsHandler)
			r.Put("/settings/{key}", h.UpdateSettingHandler)
		})
	})
	return r
}
