package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

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
			logger.Warn("not enough data for an edge run", "error", err)
			os.Exit(2)
		}
		logger.Error("edge detection failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	league := flag.String("league", "nfl", "league to evaluate (nfl or ncaaf)")
	week := flag.Int("week", 0, "week to evaluate (0 = current)")
	dryRun := flag.Bool("dry-run", false, "evaluate without storing predictions")
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

	l := domain.League(*league)
	p, err := pipeline.New(ctx, cfg, pool, []domain.League{l}, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	target := *week
	if target == 0 {
		target = p.WeekOf(l, time.Now().UTC())
	}
	if target <= 0 {
		return domain.ErrDataUnavailable("season calendar has no current week")
	}

	preds, err := p.DetectRun(ctx, l, p.Season(l), target, *dryRun)
	if err != nil {
		return err
	}

	for i, pr := range preds {
		if !pr.Playable() {
			continue
		}
		logger.Info("play",
			"rank", i+1, "game_id", pr.GameID, "side", pr.Side,
			"stars", pr.Stars, "edge_pct", fmt.Sprintf("%.1f", pr.EdgePercent),
			"edge_pts", fmt.Sprintf("%+.1f", pr.EdgePoints),
			"stake_units", fmt.Sprintf("%.2f", pr.StakeUnits),
			"market", pr.MarketSpread, "projected", fmt.Sprintf("%+.1f", pr.PredictedSpread))
	}
	return nil
}
