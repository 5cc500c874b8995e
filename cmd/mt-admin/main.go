package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"awards/db"
	"awards/db/migrations"
	"awards/internal/report"
	"awards/internal/scoring"
	"awards/internal/stats"
	"awards/models"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const usage = `usage: mt-admin <command> [flags]

commands:
  migrate               apply database migrations
  uninstall -yes        drop every table and all data
  results [-category c] [-limit n]
  progress              jury evaluation progress
  resets [-limit n]     vote reset history
  errors [-limit n]     persisted error log
`

func main() {
	// .env is optional
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func connect() (*sqlx.DB, error) {
	conn := os.Getenv("POSTGRES_CONN")
	if conn == "" {
		return nil, fmt.Errorf("POSTGRES_CONN env variable is not set")
	}
	return sqlx.Connect("postgres", conn)
}

func run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	category := fs.String("category", "", "filter results by category")
	limit := fs.Int("limit", 20, "maximum rows")
	yes := fs.Bool("yes", false, "confirm destructive commands")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	switch cmd {
	case "migrate", "uninstall", "results", "progress", "resets", "errors":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	dbConn, err := connect()
	if err != nil {
		return err
	}
	defer dbConn.Close()
	store := db.NewStorage(dbConn)

	switch cmd {
	case "migrate":
		if err := migrations.Run(ctx, dbConn.DB); err != nil {
			return err
		}
		color.Green("migrations applied")
	case "uninstall":
		if !*yes {
			return fmt.Errorf("uninstall deletes all data, pass -yes to confirm")
		}
		if err := migrations.Uninstall(ctx, dbConn.DB); err != nil {
			return err
		}
		color.Green("all tables dropped")
	case "results":
		candidates, err := store.ListCandidates(ctx, models.CandidateFilter{Category: *category})
		if err != nil {
			return err
		}
		evals, err := store.ListEvaluations(ctx, models.EvaluationFilter{Status: models.StatusSubmitted, ActiveOnly: true})
		if err != nil {
			return err
		}
		results := scoring.Aggregate(candidates, evals)
		report.Results(os.Stdout, results[:min(*limit, len(results))])
	case "progress":
		jury, err := store.ListJuryMembers(ctx, false)
		if err != nil {
			return err
		}
		assignments, err := store.ListAssignments(ctx, 0)
		if err != nil {
			return err
		}
		evals, err := store.ListEvaluations(ctx, models.EvaluationFilter{ActiveOnly: true})
		if err != nil {
			return err
		}
		report.Progress(os.Stdout, stats.JuryProgress(jury, assignments, evals))
	case "resets":
		logs, err := store.ListResetLogs(ctx, *limit, 0)
		if err != nil {
			return err
		}
		report.Resets(os.Stdout, logs, time.Now())
	case "errors":
		entries, err := store.ListErrorLogs(ctx, *limit)
		if err != nil {
			return err
		}
		report.Errors(os.Stdout, entries, time.Now())
	}
	return nil
}
