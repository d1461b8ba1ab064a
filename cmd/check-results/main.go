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
			logger.Warn("no finals to settle yet", "error", err)
			os.Exit(2)
		}
		logger.Error("settlement failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	league := flag.String("league", "nfl", "league to settle (nfl or ncaaf)")
	week := flag.Int("week", 0, "week to settle (0 = current)")
	dryRun := flag.Bool("dry-run", false, "grade without writing settlements")
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

	report, err := p.ResultsRun(ctx, l, p.Season(l), target, *dryRun)
	if err != nil {
		return err
	}

	logger.Info("week report",
		"league", report.League, "season", report.Season, "week", report.Week,
		"record", fmt.Sprintf("%d-%d-%d", report.Wins, report.Losses, report.Pushes),
		"units", fmt.Sprintf("%+.2f", report.Units),
		"roi_pct", fmt.Sprintf("%.1f", report.ROIPercent),
		"avg_clv", fmt.Sprintf("%+.2f", report.AvgCLV),
		"beat_close_pct", fmt.Sprintf("%.0f", report.BeatClosePct),
		"unmatched", report.Unmatched)
	return nil
}
