package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"awards/internal/logging"
	"awards/models"

	"github.com/stretchr/testify/require"
)

type sink struct {
	entries []models.ErrorLogEntry
	err     error
}

func (s *sink) InsertErrorLog(ctx context.Context, e *models.ErrorLogEntry) error {
	s.entries = append(s.entries, *e)
	return s.err
}

func TestParseLevel(t *testing.T) {
	l, err := logging.ParseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, l)

	_, err = logging.ParseLevel("loud")
	require.Error(t, err)
}

func TestDBHandlerPersistsErrors(t *testing.T) {
	var buf bytes.Buffer
	s := &sink{}
	logger := logging.WithSink(logging.New(&buf, "json", slog.LevelInfo), s)

	logger.Info("started")
	logger.With("component", "reset").WithGroup("req").Error("reset failed", "operation", "abc", "error", errors.New("boom"))

	require.Contains(t, buf.String(), `"msg":"started"`)
	require.Contains(t, buf.String(), `"msg":"reset failed"`)

	require.Len(t, s.entries, 1)
	e := s.entries[0]
	require.Equal(t, "ERROR", e.Level)
	require.Equal(t, "reset failed", e.Message)

	var attrs map[string]string
	require.NoError(t, json.Unmarshal(e.Attrs, &attrs))
	require.Equal(t, "reset", attrs["component"])
	require.Equal(t, "abc", attrs["req.operation"])
	require.Equal(t, "boom", attrs["req.error"])
}

func TestDBHandlerPersistsBelowOutputLevel(t *testing.T) {
	var buf bytes.Buffer
	s := &sink{err: errors.New("db down")}
	logger := slog.New(logging.NewDBHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.Level(12)}), s, slog.LevelError))

	logger.Error("critical")
	require.Empty(t, buf.String())
	require.Len(t, s.entries, 1)
}
