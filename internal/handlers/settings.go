package handlers

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"awards/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.ListSettings(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, settings)
}

func validateSetting(key, value string) error {
	if !strings.HasPrefix(key, "mt_") || len(key) > 100 {
		return invalid("setting keys must start with mt_")
	}
	if len(value) > 10000 {
		return invalid("setting value too long")
	}
	switch key {
	case models.SettingCurrentPhase:
		if !slices.Contains(models.Phases, value) {
			return invalid("phase must be one of %s", strings.Join(models.Phases, ", "))
		}
	case models.SettingAwardYear:
		year, err := strconv.Atoi(value)
		if err != nil || year < 2000 || year > 2100 {
			return invalid("award year must be between 2000 and 2100")
		}
	}
	return nil
}

// UpdateSettingHandler handles PUT /api/settings/{key}
func (h *Handler) UpdateSettingHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var in struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	in.Value = strings.TrimSpace(in.Value)
	if err := validateSetting(key, in.Value); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.SetSetting(r.Context(), key, in.Value); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.InfoContext(r.Context(), "setting updated", "key", key, "by", actorFrom(r.Context()))
	h.respond(w, http.StatusOK, models.Setting{Key: key, Value: in.Value})
}

// GetDiagnosticsHandler reports store health and the latest persisted errors.
func (h *Handler) GetDiagnosticsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storeOK := h.Store.Ping(ctx) == nil
	errs, err := h.Store.ListErrorLogs(ctx, 20)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"store":        storeOK,
		"recentErrors": errs,
	})
}
