package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"awards/db"
	"awards/db/memory"
	"awards/db/migrations"
	"awards/internal/config"
	"awards/internal/handlers"
	"awards/internal/logging"
	"awards/internal/notify"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store handlers.StorageInterface
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data is lost on exit")
		ms := memory.New()
		store = ms
		logger = logging.WithSink(logger, ms)
	default:
		dbConn, err := sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := migrations.Run(ctx, dbConn.DB); err != nil {
			return err
		}
		pg := db.NewStorage(dbConn)
		store = pg
		logger = logging.WithSink(logger, pg)
	}
	slog.SetDefault(logger)

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	h := handlers.NewHandler(store, mailer, logger)
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           h.Routes(cfg.AdminToken, cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "addr", cfg.ServerAddress, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server closed")
	return nil
}
