package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/pipeline"
	"github.com/sharpline/platform/internal/scheduler"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
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

	leagues := make([]domain.League, 0, len(cfg.Leagues))
	for _, l := range cfg.Leagues {
		league := domain.League(l)
		if !league.Valid() {
			return fmt.Errorf("unknown league %q in LEAGUES", l)
		}
		leagues = append(leagues, league)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	p, err := pipeline.New(ctx, cfg, pool, leagues, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	seasons := make(map[domain.League]int, len(leagues))
	for _, l := range leagues {
		seasons[l] = p.Season(l)
	}
	weekOf := func(l domain.League, t time.Time) int { return p.WeekOf(l, t) }

	status := scheduler.NewStatusServer(pool, p.Sessions(), p.Clients(), leagues, logger)
	sched := scheduler.New(leagues, p, seasons, weekOf, logger)

	errCh := make(chan error, 2)
	go func() {
		err := status.Serve(ctx, fmt.Sprintf(":%d", cfg.StatusPort))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("status server: %w", err)
			return
		}
		errCh <- nil
	}()
	go func() { errCh <- sched.Run(ctx) }()

	logger.Info("scheduler running", "leagues", cfg.Leagues, "status_port", cfg.StatusPort)
	err = <-errCh
	stop()
	<-errCh
	return err
}
