package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

const migrationDir = "sql"

func setup() error {
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

// Run applies all pending migrations.
func Run(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	slog.Info("running migrations", "dir", migrationDir)
	if err := goose.UpContext(ctx, db, migrationDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Uninstall rolls every migration back, dropping all tables and data.
func Uninstall(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	slog.Warn("rolling back all migrations", "dir", migrationDir)
	if err := goose.ResetContext(ctx, db, migrationDir); err != nil {
		return fmt.Errorf("reset migrations: %w", err)
	}
	return nil
}
