package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sharpline/platform/internal/domain"
)

type settledBetRepo struct{}

// NewSettledBetRepository returns a pgx-backed SettledBetRepository.
func NewSettledBetRepository() SettledBetRepository {
	return &settledBetRepo{}
}

func (r *settledBetRepo) InsertIfAbsent(ctx context.Context, db DBTX, bet domain.SettledBet) (bool, error) {
	// DO NOTHING keeps settlement monotonic: a second run never rewrites a
	// settled row.
	tag, err := db.Exec(ctx, `
		INSERT INTO settled_bets (prediction_id, game_id, result, profit, clv, closing_line, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (prediction_id) DO NOTHING`,
		bet.PredictionID, bet.GameID, bet.Result, bet.Profit, bet.CLV,
		bet.ClosingLine, bet.SettledAt)
	if err != nil {
		return false, fmt.Errorf("insert settled bet %s: %w", bet.PredictionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *settledBetRepo) ListByPredictionIDs(ctx context.Context, db DBTX, ids []uuid.UUID) ([]domain.SettledBet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx, `
		SELECT prediction_id, game_id, result, profit, clv, closing_line, settled_at
		FROM settled_bets WHERE prediction_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list settled bets: %w", err)
	}
	defer rows.Close()

	var out []domain.SettledBet
	for rows.Next() {
		var b domain.SettledBet
		if err := rows.Scan(&b.PredictionID, &b.GameID, &b.Result, &b.Profit,
			&b.CLV, &b.ClosingLine, &b.SettledAt); err != nil {
			return nil, fmt.Errorf("scan settled bet: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *settledBetRepo) RecentResults(ctx context.Context, db DBTX, league domain.League, team string, limit int) ([]domain.BetResult, error) {
	rows, err := db.Query(ctx, `
		SELECT sb.result, p.side, g.home_team = $2
		FROM settled_bets sb
		JOIN predictions p ON p.id = sb.prediction_id
		JOIN games g ON g.game_id = sb.game_id
		WHERE p.league = $1 AND (g.home_team = $2 OR g.away_team = $2)
			AND sb.result IN ('win', 'loss')
		ORDER BY sb.settled_at DESC
		LIMIT $3`, league, team, limit)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	defer rows.Close()

	var out []domain.BetResult
	for rows.Next() {
		var res domain.BetResult
		var side domain.BetSide
		var teamIsHome bool
		if err := rows.Scan(&res, &side, &teamIsHome); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		// A win on the other side of the game means this team failed to
		// cover, so flip the result to the team's perspective.
		out = append(out, domain.ATSResult(res, side, teamIsHome))
	}
	return out, rows.Err()
}
