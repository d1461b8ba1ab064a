package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
)

type weatherRepo struct{}

// NewWeatherRepository returns a pgx-backed WeatherRepository.
func NewWeatherRepository() WeatherRepository {
	return &weatherRepo{}
}

func (r *weatherRepo) Upsert(ctx context.Context, db DBTX, report domain.WeatherReport) error {
	_, err := db.Exec(ctx, `
		INSERT INTO weather (game_id, captured_at, temp_f, wind_mph, precip_kind,
			precip_prob, indoor, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (game_id, captured_at) DO NOTHING`,
		report.GameID, report.CapturedAt, report.TempF, report.WindMPH,
		report.Precipitation, report.PrecipProbability, report.Indoor, report.Source)
	if err != nil {
		return fmt.Errorf("upsert weather %s: %w", report.GameID, err)
	}
	return nil
}

func (r *weatherRepo) Latest(ctx context.Context, db DBTX, gameID string, cutoff time.Time) (*domain.WeatherReport, error) {
	row := db.QueryRow(ctx, `
		SELECT game_id, captured_at, temp_f, wind_mph, precip_kind, precip_prob, indoor, source
		FROM weather
		WHERE game_id = $1 AND captured_at <= $2
		ORDER BY captured_at DESC
		LIMIT 1`, gameID, cutoff)

	var rep domain.WeatherReport
	err := row.Scan(&rep.GameID, &rep.CapturedAt, &rep.TempF, &rep.WindMPH,
		&rep.Precipitation, &rep.PrecipProbability, &rep.Indoor, &rep.Source)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest weather: %w", err)
	}
	return &rep, nil
}
