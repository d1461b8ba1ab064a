package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
)

type oddsRepo struct{}

// NewOddsRepository returns a pgx-backed OddsRepository.
func NewOddsRepository() OddsRepository {
	return &oddsRepo{}
}

const oddsColumns = `game_id, sportsbook, captured_at, home_spread, away_spread,
	total, home_moneyline, away_moneyline, suspect, source`

func (r *oddsRepo) Upsert(ctx context.Context, db DBTX, odds domain.Odds) error {
	_, err := db.Exec(ctx, `
		INSERT INTO odds (game_id, sportsbook, captured_at, home_spread, away_spread,
			total, home_moneyline, away_moneyline, suspect, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id, sportsbook, captured_at) DO NOTHING`,
		odds.GameID, odds.Sportsbook, odds.CapturedAt, odds.HomeSpread, odds.AwaySpread,
		odds.Total, odds.HomeMoneyline, odds.AwayMoneyline, odds.Suspect, odds.Source)
	if err != nil {
		return fmt.Errorf("upsert odds %s/%s: %w", odds.GameID, odds.Sportsbook, err)
	}
	return nil
}

func (r *oddsRepo) LatestPerBook(ctx context.Context, db DBTX, gameID string, cutoff time.Time) ([]domain.Odds, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT ON (sportsbook) `+oddsColumns+`
		FROM odds
		WHERE game_id = $1 AND captured_at <= $2 AND NOT suspect
		ORDER BY sportsbook, captured_at DESC`, gameID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("latest odds per book: %w", err)
	}
	defer rows.Close()

	var out []domain.Odds
	for rows.Next() {
		o, err := scanOdds(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *oddsRepo) Closing(ctx context.Context, db DBTX, gameID string, kickoff time.Time) (*domain.Odds, error) {
	row := db.QueryRow(ctx, `
		SELECT `+oddsColumns+`
		FROM odds
		WHERE game_id = $1 AND captured_at <= $2 AND NOT suspect
		ORDER BY captured_at DESC
		LIMIT 1`, gameID, kickoff)
	o, err := scanOdds(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func scanOdds(row pgx.Row) (*domain.Odds, error) {
	var o domain.Odds
	err := row.Scan(&o.GameID, &o.Sportsbook, &o.CapturedAt, &o.HomeSpread, &o.AwaySpread,
		&o.Total, &o.HomeMoneyline, &o.AwayMoneyline, &o.Suspect, &o.Source)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
