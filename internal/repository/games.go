package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
)

type gameRepo struct{}

// NewGameRepository returns a pgx-backed GameRepository.
func NewGameRepository() GameRepository {
	return &gameRepo{}
}

const gameColumns = `game_id, league, season, week, away_team, home_team,
	kickoff_ts, venue, indoor, status, home_score, away_score`

func (r *gameRepo) Upsert(ctx context.Context, db DBTX, game domain.Game) error {
	// Scores only move forward: a later capture may finalize a game, but a
	// final score is never cleared by a stale scoreboard fetch.
	_, err := db.Exec(ctx, `
		INSERT INTO games (game_id, league, season, week, away_team, home_team,
			kickoff_ts, venue, indoor, status, home_score, away_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (game_id) DO UPDATE SET
			week = EXCLUDED.week,
			kickoff_ts = EXCLUDED.kickoff_ts,
			venue = EXCLUDED.venue,
			indoor = EXCLUDED.indoor,
			status = CASE
				WHEN games.status = 'final' THEN games.status
				ELSE EXCLUDED.status
			END,
			home_score = COALESCE(EXCLUDED.home_score, games.home_score),
			away_score = COALESCE(EXCLUDED.away_score, games.away_score)`,
		game.GameID, game.League, game.Season, game.Week, game.AwayTeam, game.HomeTeam,
		game.Kickoff, game.Venue, game.Indoor, game.Status, game.HomeScore, game.AwayScore)
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", game.GameID, err)
	}
	return nil
}

func (r *gameRepo) FindByID(ctx context.Context, db DBTX, gameID string) (*domain.Game, error) {
	row := db.QueryRow(ctx, `
		SELECT `+gameColumns+` FROM games WHERE game_id = $1`, gameID)
	g, err := scanGame(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *gameRepo) ListByWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Game, error) {
	return r.list(ctx, db, `
		SELECT `+gameColumns+` FROM games
		WHERE league = $1 AND season = $2 AND week = $3
		ORDER BY kickoff_ts, game_id`, league, season, week)
}

func (r *gameRepo) ListFinalByWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Game, error) {
	return r.list(ctx, db, `
		SELECT `+gameColumns+` FROM games
		WHERE league = $1 AND season = $2 AND week = $3
			AND status = 'final' AND home_score IS NOT NULL AND away_score IS NOT NULL
		ORDER BY kickoff_ts, game_id`, league, season, week)
}

func (r *gameRepo) ListFinalThrough(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Game, error) {
	return r.list(ctx, db, `
		SELECT `+gameColumns+` FROM games
		WHERE league = $1 AND season = $2 AND week <= $3
			AND status = 'final' AND home_score IS NOT NULL AND away_score IS NOT NULL
		ORDER BY kickoff_ts, game_id`, league, season, week)
}

func (r *gameRepo) PreviousFinal(ctx context.Context, db DBTX, league domain.League, team string, before time.Time) (*domain.Game, error) {
	row := db.QueryRow(ctx, `
		SELECT `+gameColumns+` FROM games
		WHERE league = $1 AND (home_team = $2 OR away_team = $2)
			AND kickoff_ts < $3
			AND status = 'final' AND home_score IS NOT NULL AND away_score IS NOT NULL
		ORDER BY kickoff_ts DESC, game_id DESC
		LIMIT 1`, league, team, before)
	g, err := scanGame(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *gameRepo) list(ctx context.Context, db DBTX, sql string, args ...interface{}) ([]domain.Game, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func scanGame(row pgx.Row) (*domain.Game, error) {
	var g domain.Game
	err := row.Scan(&g.GameID, &g.League, &g.Season, &g.Week, &g.AwayTeam, &g.HomeTeam,
		&g.Kickoff, &g.Venue, &g.Indoor, &g.Status, &g.HomeScore, &g.AwayScore)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
