package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sharpline/platform/internal/domain"
)

type injuryRepo struct{}

// NewInjuryRepository returns a pgx-backed InjuryRepository.
func NewInjuryRepository() InjuryRepository {
	return &injuryRepo{}
}

func (r *injuryRepo) Upsert(ctx context.Context, db DBTX, report domain.InjuryReport) error {
	_, err := db.Exec(ctx, `
		INSERT INTO injuries (league, team, player, captured_at, position, status,
			severity, point_value, replacement_value, confidence, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (team, player, captured_at) DO UPDATE SET
			status = EXCLUDED.status,
			severity = EXCLUDED.severity,
			point_value = EXCLUDED.point_value,
			replacement_value = EXCLUDED.replacement_value,
			confidence = EXCLUDED.confidence`,
		report.League, report.Team, report.PlayerName, report.CapturedAt, report.Position,
		report.Status, report.Severity, report.PointValue, report.ReplacementValue,
		report.Confidence, report.Source)
	if err != nil {
		return fmt.Errorf("upsert injury %s/%s: %w", report.Team, report.PlayerName, err)
	}
	return nil
}

func (r *injuryRepo) LatestByTeam(ctx context.Context, db DBTX, league domain.League, team string, asOf time.Time) ([]domain.InjuryReport, error) {
	stale := asOf.Add(-domain.InjuryStaleAfter)
	rows, err := db.Query(ctx, `
		SELECT DISTINCT ON (player) league, team, player, captured_at, position,
			status, severity, point_value, replacement_value, confidence, source
		FROM injuries
		WHERE league = $1 AND team = $2 AND captured_at <= $3 AND captured_at > $4
		ORDER BY player, captured_at DESC`, league, team, asOf, stale)
	if err != nil {
		return nil, fmt.Errorf("latest injuries: %w", err)
	}
	defer rows.Close()

	var out []domain.InjuryReport
	for rows.Next() {
		var rep domain.InjuryReport
		if err := rows.Scan(&rep.League, &rep.Team, &rep.PlayerName, &rep.CapturedAt,
			&rep.Position, &rep.Status, &rep.Severity, &rep.PointValue,
			&rep.ReplacementValue, &rep.Confidence, &rep.Source); err != nil {
			return nil, fmt.Errorf("scan injury: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
