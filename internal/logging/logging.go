// Package logging builds the service logger. Records at or above the
// persist level are also written to the error-log table.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"awards/models"
)

// Sink stores persisted error records.
type Sink interface {
	InsertErrorLog(ctx context.Context, e *models.ErrorLogEntry) error
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// New returns a JSON or text logger writing to w.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// DBHandler forwards records to next and persists those at or above level
// into sink.
type DBHandler struct {
	next    slog.Handler
	sink    Sink
	level   slog.Level
	timeout time.Duration
	attrs   []slog.Attr
	groups  []string
}

func NewDBHandler(next slog.Handler, sink Sink, level slog.Level) *DBHandler {
	return &DBHandler{next: next, sink: sink, level: level, timeout: 2 * time.Second}
}

// WithSink wraps logger so that its error records are persisted.
func WithSink(logger *slog.Logger, sink Sink) *slog.Logger {
	return slog.New(NewDBHandler(logger.Handler(), sink, slog.LevelError))
}

func (h *DBHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level || h.next.Enabled(ctx, l)
}

func (h *DBHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.next.Enabled(ctx, r.Level) {
		err = h.next.Handle(ctx, r)
	}
	if r.Level < h.level {
		return err
	}

	attrs := map[string]interface{}{}
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Resolve().String()
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		attrs[key] = a.Value.Resolve().String()
		return true
	})

	payload, mErr := json.Marshal(attrs)
	if mErr != nil {
		payload = []byte(`{}`)
	}
	entry := &models.ErrorLogEntry{Level: r.Level.String(), Message: r.Message, Attrs: payload}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()
	if sErr := h.sink.InsertErrorLog(pctx, entry); sErr != nil {
		// the logger itself cannot be used here
		fmt.Fprintf(os.Stderr, "persist error log: %v\n", sErr)
	}
	return err
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.next = h.next.WithAttrs(attrs)
	prefix := strings.Join(h.groups, ".")
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *DBHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.next = h.next.WithGroup(name)
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}
