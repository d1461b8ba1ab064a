package rating

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/repository"
)

// Service rebuilds a season's rating timeline from stored final games.
// Weeks advance strictly in order and each week commits in one transaction,
// so week N+1 always reads a consistent week-N snapshot. Regenerating from
// the same inputs is deterministic.
type Service struct {
	pool     *pgxpool.Pool
	games    repository.GameRepository
	ratings  repository.RatingRepository
	injuries repository.InjuryRepository
	engine   *Engine
	logger   *slog.Logger
}

// NewService wires the rating engine to the store.
func NewService(pool *pgxpool.Pool, games repository.GameRepository, ratings repository.RatingRepository, injuries repository.InjuryRepository, engine *Engine, logger *slog.Logger) *Service {
	return &Service{pool: pool, games: games, ratings: ratings, injuries: injuries, engine: engine, logger: logger}
}

// RebuildThrough recomputes weeks 1..throughWeek from the week-0 preseason
// seeds and every stored final game.
func (s *Service) RebuildThrough(ctx context.Context, league domain.League, season, throughWeek int) error {
	seeds, err := s.ratings.ListWeek(ctx, s.pool, league, season, 0)
	if err != nil {
		return fmt.Errorf("load preseason seeds: %w", err)
	}

	snapshot := make(map[string]domain.TeamRating, len(seeds))
	for _, r := range seeds {
		snapshot[r.Team] = r
	}

	for week := 1; week <= throughWeek; week++ {
		games, err := s.games.ListFinalByWeek(ctx, s.pool, league, season, week)
		if err != nil {
			return fmt.Errorf("load week %d finals: %w", week, err)
		}

		snapshot = s.engine.ApplyWeek(snapshot, games, week, s.injuryLookup(ctx, games))

		if err := s.commitWeek(ctx, snapshot); err != nil {
			return fmt.Errorf("commit week %d: %w", week, err)
		}
		s.logger.Debug("rating week committed",
			"league", league, "season", season, "week", week, "games", len(games))
	}
	return nil
}

// SeedPreseason writes week-0 ratings composed from prior-season finals and
// offseason deltas.
func (s *Service) SeedPreseason(ctx context.Context, league domain.League, season int, priorFinals map[string]float64, deltas []domain.OffseasonDelta) error {
	for team, prior := range priorFinals {
		seed := ComposePreseason(league, season, team, prior, deltas)
		if err := s.ratings.Upsert(ctx, s.pool, seed); err != nil {
			return err
		}
	}
	return nil
}

// injuryLookup precomputes each game team's at-kickoff injury point total so
// true performance can credit depleted rosters. Missing data degrades to a
// zero diff rather than failing the rebuild.
func (s *Service) injuryLookup(ctx context.Context, games []domain.Game) InjuryLookup {
	totals := make(map[string]float64, len(games)*2)
	for _, g := range games {
		if !g.Final() {
			continue
		}
		for _, team := range []string{g.HomeTeam, g.AwayTeam} {
			reports, err := s.injuries.LatestByTeam(ctx, s.pool, g.League, team, g.Kickoff)
			if err != nil {
				s.logger.Warn("injury lookup failed, assuming healthy",
					"game_id", g.GameID, "team", team, "error", err)
				continue
			}
			var total float64
			for _, r := range reports {
				total += r.NetPointValue()
			}
			totals[g.GameID+"|"+team] = total
		}
	}
	return func(g domain.Game, team string) float64 {
		return totals[g.GameID+"|"+team]
	}
}

func (s *Service) commitWeek(ctx context.Context, snapshot map[string]domain.TeamRating) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := make([]domain.TeamRating, 0, len(snapshot))
	for _, r := range snapshot {
		batch = append(batch, r)
	}
	if err := s.ratings.UpsertWeek(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
