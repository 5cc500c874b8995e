package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"awards/models"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	juryKey
)

// RequireAdmin admits requests whose X-Admin-Token header matches token.
// The acting user name is taken from X-Admin-User.
func (h *Handler) RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"data":{"message":"admin token required"}}`))
				return
			}
			actor := strings.TrimSpace(r.Header.Get("X-Admin-User"))
			if actor == "" {
				actor = "admin"
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

// RequireJury resolves the X-Jury-User header to an active jury member.
func (h *Handler) RequireJury(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(r.Header.Get("X-Jury-User"))
		if err != nil || userID <= 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"data":{"message":"jury user required"}}`))
			return
		}
		member, err := h.Store.GetJuryMemberByUserID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				err = models.ErrForbidden
			}
			h.respondError(w, r, err)
			return
		}
		if !member.Active {
			h.respondError(w, r, models.ErrForbidden)
			return
		}
		ctx := context.WithValue(r.Context(), juryKey, member)
		ctx = context.WithValue(ctx, actorKey, "jury:"+strconv.Itoa(member.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey).(string); ok {
		return a
	}
	return "system"
}

func juryFrom(ctx context.Context) *models.JuryMember {
	m, _ := ctx.Value(juryKey).(*models.JuryMember)
	return m
}

// RequestLogger writes one access line per request to the handler's logger.
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			h.Log.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("remote", r.RemoteAddr),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
