package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
)

type predictionRepo struct{}

// NewPredictionRepository returns a pgx-backed PredictionRepository.
func NewPredictionRepository() PredictionRepository {
	return &predictionRepo{}
}

const predictionColumns = `id, game_id, league, season, week, model_version, generated_at,
	status, home_rating, away_rating, home_field_adj, spread_adjustment, total_adjustment,
	market_spread, market_total, market_price, predicted_spread, predicted_total,
	edge_points, edge_percent, category, stars, side, stake_units, kelly_fraction,
	confidence, reasoning`

func (r *predictionRepo) Insert(ctx context.Context, db DBTX, p domain.Prediction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO predictions (`+predictionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`,
		p.ID, p.GameID, p.League, p.Season, p.Week, p.ModelVersion, p.GeneratedAt,
		p.Status, p.HomeRating, p.AwayRating, p.HomeFieldAdj, p.SpreadAdjustment,
		p.TotalAdjustment, p.MarketSpread, p.MarketTotal, p.MarketPrice,
		p.PredictedSpread, p.PredictedTotal, p.EdgePoints, p.EdgePercent,
		p.Category, p.Stars, p.Side, p.StakeUnits, p.KellyFraction,
		p.Confidence, p.Reasoning)
	if err != nil {
		return fmt.Errorf("insert prediction %s: %w", p.GameID, err)
	}
	return nil
}

func (r *predictionRepo) ListOpenByWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Prediction, error) {
	// Latest row per (game_id, model_version) is the live prediction;
	// superseded history stays in the table.
	rows, err := db.Query(ctx, `
		SELECT DISTINCT ON (game_id, model_version) `+predictionColumns+`
		FROM predictions
		WHERE league = $1 AND season = $2 AND week = $3 AND status IN ('pending', 'open')
		ORDER BY game_id, model_version, generated_at DESC`, league, season, week)
	if err != nil {
		return nil, fmt.Errorf("list open predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *predictionRepo) MarkSettled(ctx context.Context, db DBTX, id uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE predictions SET status = 'settled' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark prediction settled: %w", err)
	}
	return nil
}

func scanPrediction(row pgx.Row) (*domain.Prediction, error) {
	var p domain.Prediction
	err := row.Scan(&p.ID, &p.GameID, &p.League, &p.Season, &p.Week, &p.ModelVersion,
		&p.GeneratedAt, &p.Status, &p.HomeRating, &p.AwayRating, &p.HomeFieldAdj,
		&p.SpreadAdjustment, &p.TotalAdjustment, &p.MarketSpread, &p.MarketTotal,
		&p.MarketPrice, &p.PredictedSpread, &p.PredictedTotal, &p.EdgePoints,
		&p.EdgePercent, &p.Category, &p.Stars, &p.Side, &p.StakeUnits,
		&p.KellyFraction, &p.Confidence, &p.Reasoning)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
