package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/pipeline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		if domain.IsDataUnavailable(err) {
			logger.Warn("nothing to collect yet", "error", err)
			os.Exit(2)
		}
		logger.Error("collection failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	league := flag.String("league", "nfl", "league to collect (nfl or ncaaf)")
	dryRun := flag.Bool("dry-run", false, "fetch and validate without writing")
	seedPreseason := flag.Bool("seed-preseason", false, "seed week-0 ratings from the offseason config and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	p, err := pipeline.New(ctx, cfg, pool, []domain.League{domain.League(*league)}, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	if *seedPreseason {
		return p.SeedPreseason(ctx, domain.League(*league))
	}

	session, err := p.CollectRun(ctx, domain.League(*league), *dryRun)
	if err != nil {
		return err
	}
	if session.Status == domain.SessionFailed || session.CriticalFailure() {
		return fmt.Errorf("session %s finished %s with a critical source failure", session.ID, session.Status)
	}

	logger.Info("collection done",
		"session_id", session.ID, "status", session.Status,
		"league", session.League, "week", session.Week)
	return nil
}
