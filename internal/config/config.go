// Package config reads the server configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	ServerAddress  string
	DatabaseURL    string
	Storage        string
	AdminToken     string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load reads .env files (missing files are ignored) and then the
// environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config using getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		ServerAddress: getenv("SERVER_ADDRESS"),
		DatabaseURL:   getenv("POSTGRES_CONN"),
		Storage:       getenv("STORAGE"),
		AdminToken:    getenv("MT_ADMIN_TOKEN"),
		LogLevel:      getenv("LOG_LEVEL"),
		LogFormat:     getenv("LOG_FORMAT"),
		SMTPHost:      getenv("SMTP_HOST"),
		SMTPUsername:  getenv("SMTP_USERNAME"),
		SMTPPassword:  getenv("SMTP_PASSWORD"),
		SMTPFrom:      getenv("SMTP_FROM"),
	}
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = "0.0.0.0:8080"
	}
	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	cfg.RequestTimeout = 30 * time.Second
	if v := getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, errors.New("invalid REQUEST_TIMEOUT")
		}
		cfg.RequestTimeout = d
	}

	cfg.SMTPPort = 587
	if v := getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, errors.New("invalid SMTP_PORT")
		}
		cfg.SMTPPort = port
	}

	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("POSTGRES_CONN env variable is not set")
		}
	case StorageMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
	if cfg.AdminToken == "" {
		return Config{}, errors.New("MT_ADMIN_TOKEN env variable is not set")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Config{}, fmt.Errorf("unknown LOG_FORMAT %q", cfg.LogFormat)
	}
	if cfg.SMTPHost != "" && cfg.SMTPFrom == "" {
		return Config{}, errors.New("SMTP_FROM is required when SMTP_HOST is set")
	}
	return cfg, nil
}
