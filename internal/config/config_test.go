package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"awards/internal/config"

	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"POSTGRES_CONN":  "postgres://localhost/awards",
		"MT_ADMIN_TOKEN": "secret",
	}))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	require.Equal(t, config.StoragePostgres, cfg.Storage)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 587, cfg.SMTPPort)
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing db":        {"MT_ADMIN_TOKEN": "x"},
		"missing token":     {"POSTGRES_CONN": "postgres://"},
		"bad storage":       {"STORAGE": "redis", "MT_ADMIN_TOKEN": "x"},
		"bad port":          {"STORAGE": "memory", "MT_ADMIN_TOKEN": "x", "SMTP_PORT": "abc"},
		"bad timeout":       {"STORAGE": "memory", "MT_ADMIN_TOKEN": "x", "REQUEST_TIMEOUT": "soon"},
		"bad log format":    {"STORAGE": "memory", "MT_ADMIN_TOKEN": "x", "LOG_FORMAT": "xml"},
		"smtp without from": {"STORAGE": "memory", "MT_ADMIN_TOKEN": "x", "SMTP_HOST": "mail"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromEnv(env(vars))
			require.Error(t, err)
		})
	}
}

func TestFromEnvMemoryStorage(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"STORAGE":         "memory",
		"MT_ADMIN_TOKEN":  "x",
		"REQUEST_TIMEOUT": "5s",
		"SMTP_HOST":       "mail.local",
		"SMTP_PORT":       "2525",
		"SMTP_FROM":       "awards@example.org",
	}))
	require.NoError(t, err)
	require.Equal(t, config.StorageMemory, cfg.Storage)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, 2525, cfg.SMTPPort)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORAGE=memory\nMT_ADMIN_TOKEN=from-file\n"), 0o600))
	t.Setenv("STORAGE", "")
	t.Setenv("MT_ADMIN_TOKEN", "")
	os.Unsetenv("STORAGE")
	os.Unsetenv("MT_ADMIN_TOKEN")

	cfg, err := config.Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.AdminToken)
	require.Equal(t, config.StorageMemory, cfg.Storage)
}
