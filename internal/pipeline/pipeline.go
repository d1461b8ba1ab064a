// Package pipeline wires configuration, the store, the guarded provider
// clients, and the per-league components into the three runnable operations:
// collect, detect edges, check results. The commands and the scheduler
// daemon all drive the pipeline through this package.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharpline/platform/internal/collector"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/edge"
	"github.com/sharpline/platform/internal/guard"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/keynumbers"
	"github.com/sharpline/platform/internal/normalize"
	"github.com/sharpline/platform/internal/provider"
	"github.com/sharpline/platform/internal/rating"
	"github.com/sharpline/platform/internal/repository"
	"github.com/sharpline/platform/internal/results"
)

// leagueComponents is everything bound to one league's config files.
type leagueComponents struct {
	mapper    *normalize.TeamMapper
	calendar  *normalize.SeasonCalendar
	collector *collector.Collector
	ratings   *rating.Service
}

// Pipeline owns the wired components for the configured leagues.
type Pipeline struct {
	cfg    *infra.Config
	pool   *pgxpool.Pool
	logger *slog.Logger

	sessions repository.SessionRepository
	detector *edge.Detector
	checker  *results.Checker
	events   *infra.EventPublisher
	clients  []*guard.Client
	leagues  map[domain.League]*leagueComponents
}

// New builds the full pipeline for the given leagues. The caller owns the
// pool's lifetime; Close releases everything else.
func New(ctx context.Context, cfg *infra.Config, pool *pgxpool.Pool, leagues []domain.League, logger *slog.Logger) (*Pipeline, error) {
	transport := infra.NewHTTPClient()

	espnClient := guard.NewClient("espn", transport)
	oddsClient := guard.NewClient("oddsapi", transport, guard.WithMinInterval(time.Second))
	weatherClient := guard.NewClient("weatherapi", transport)
	masseyClient := guard.NewClient("massey", transport)

	espn := provider.NewESPNClient(espnClient, cfg.ESPNBaseURL, logger)
	oddsAPI := provider.NewOddsClient(oddsClient, cfg.OddsBaseURL, cfg.OddsAPIKey, logger)
	weatherAPI := provider.NewWeatherClient(weatherClient, cfg.WeatherBaseURL, cfg.WeatherAPIKey, logger)
	massey := provider.NewMasseyClient(masseyClient, cfg.MasseyFeedURL, logger)

	teams := repository.NewTeamRepository()
	games := repository.NewGameRepository()
	odds := repository.NewOddsRepository()
	injuries := repository.NewInjuryRepository()
	weather := repository.NewWeatherRepository()
	ratingRepo := repository.NewRatingRepository()
	predictions := repository.NewPredictionRepository()
	settled := repository.NewSettledBetRepository()
	sessions := repository.NewSessionRepository()

	events := infra.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	archive := collector.NewArchive(cfg.RawArchiveDir, logger)

	tables := make(map[domain.League]*keynumbers.Table, len(leagues))
	components := make(map[domain.League]*leagueComponents, len(leagues))
	for _, league := range leagues {
		calendar, err := normalize.LoadSeasonCalendar(cfg.ConfigDir, league, logger)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", league, err)
		}
		mapper, err := normalize.LoadTeamMapper(cfg.ConfigDir, league, calendar.Season)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", league, err)
		}
		table, err := keynumbers.Load(cfg.ConfigDir, league)
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", league, err)
		}
		tables[league] = table

		normalizer := normalize.New(mapper, calendar, logger)
		engine := rating.NewEngine(league, cfg.HomeFieldAdvantage(string(league)))
		components[league] = &leagueComponents{
			mapper:   mapper,
			calendar: calendar,
			collector: collector.New(
				pool, teams, games, odds, injuries, weather, ratingRepo, sessions,
				espn, oddsAPI, weatherAPI, massey,
				normalizer, mapper, calendar, archive, events, logger),
			ratings: rating.NewService(pool, games, ratingRepo, injuries, engine, logger),
		}
	}

	hfa := func(l domain.League) float64 { return cfg.HomeFieldAdvantage(string(l)) }
	staking := edge.Staking{
		BankrollUnits:  cfg.BankrollUnits,
		KellyFraction:  cfg.KellyFraction,
		MaxBetFraction: cfg.MaxBetFraction,
		MinEdgePercent: cfg.MinEdgePercent,
	}

	return &Pipeline{
		cfg:      cfg,
		pool:     pool,
		logger:   logger,
		sessions: sessions,
		detector: edge.NewDetector(
			pool, games, teams, odds, ratingRepo, injuries, weather, predictions, settled,
			tables, staking, hfa, cfg.ModelVersion, events, logger),
		checker: results.NewChecker(pool, games, odds, predictions, settled, events, logger),
		events:  events,
		clients: []*guard.Client{espnClient, oddsClient, weatherClient, masseyClient},
		leagues: components,
	}, nil
}

// Close releases the pipeline's non-pool resources.
func (p *Pipeline) Close() {
	if err := p.events.Close(); err != nil {
		p.logger.Warn("event publisher close failed", "error", err)
	}
}

// Clients returns the guarded provider clients for metrics export.
func (p *Pipeline) Clients() []*guard.Client { return p.clients }

// Sessions returns the session repository for the status server.
func (p *Pipeline) Sessions() repository.SessionRepository { return p.sessions }

// Season returns the configured season for a league.
func (p *Pipeline) Season(league domain.League) int {
	if lc, ok := p.leagues[league]; ok {
		return lc.calendar.Season
	}
	return 0
}

// WeekOf returns the league's week containing t, 0 when the season is over.
func (p *Pipeline) WeekOf(league domain.League, t time.Time) int {
	if lc, ok := p.leagues[league]; ok {
		return lc.calendar.CurrentWeek(t)
	}
	return 0
}

// SeedPreseason composes week-0 ratings from the league's offseason config
// file: prior-season finals plus signed offseason deltas.
func (p *Pipeline) SeedPreseason(ctx context.Context, league domain.League) error {
	lc, ok := p.leagues[league]
	if !ok {
		return domain.ErrValidation(fmt.Sprintf("league %s not configured", league))
	}
	cfg, err := rating.LoadOffseason(p.cfg.ConfigDir, league)
	if err != nil {
		return err
	}
	if err := lc.ratings.SeedPreseason(ctx, league, cfg.Season, cfg.Priors, cfg.Deltas); err != nil {
		return fmt.Errorf("seed preseason: %w", err)
	}
	p.logger.Info("preseason ratings seeded",
		"league", league, "season", cfg.Season, "teams", len(cfg.Priors), "deltas", len(cfg.Deltas))
	return nil
}

// CollectRun executes one collection session for the league.
func (p *Pipeline) CollectRun(ctx context.Context, league domain.League, dryRun bool) (*domain.CollectionSession, error) {
	lc, ok := p.leagues[league]
	if !ok {
		return nil, domain.ErrValidation(fmt.Sprintf("league %s not configured", league))
	}
	return lc.collector.Run(ctx, league, dryRun)
}

// DetectRun rebuilds ratings through the last completed week and evaluates
// the target week's board.
func (p *Pipeline) DetectRun(ctx context.Context, league domain.League, season, week int, dryRun bool) ([]domain.Prediction, error) {
	lc, ok := p.leagues[league]
	if !ok {
		return nil, domain.ErrValidation(fmt.Sprintf("league %s not configured", league))
	}
	if week > 1 {
		if err := lc.ratings.RebuildThrough(ctx, league, season, week-1); err != nil {
			return nil, fmt.Errorf("rebuild ratings: %w", err)
		}
	}
	return p.detector.Run(ctx, league, season, week, dryRun)
}

// ResultsRun settles the week and returns the aggregate report.
func (p *Pipeline) ResultsRun(ctx context.Context, league domain.League, season, week int, dryRun bool) (*domain.WeekReport, error) {
	return p.checker.Run(ctx, league, season, week, dryRun)
}

// Collect implements scheduler.Pipeline.
func (p *Pipeline) Collect(ctx context.Context, league domain.League) (*domain.CollectionSession, error) {
	return p.CollectRun(ctx, league, false)
}

// DetectEdges implements scheduler.Pipeline.
func (p *Pipeline) DetectEdges(ctx context.Context, league domain.League, season, week int) error {
	_, err := p.DetectRun(ctx, league, season, week, false)
	return err
}

// CheckResults implements scheduler.Pipeline.
func (p *Pipeline) CheckResults(ctx context.Context, league domain.League, season, week int) error {
	_, err := p.ResultsRun(ctx, league, season, week, false)
	return err
}
