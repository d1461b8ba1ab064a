package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
)

type sessionRepo struct{}

// NewSessionRepository returns a pgx-backed SessionRepository.
func NewSessionRepository() SessionRepository {
	return &sessionRepo{}
}

func (r *sessionRepo) Insert(ctx context.Context, db DBTX, s *domain.CollectionSession) error {
	_, err := db.Exec(ctx, `
		INSERT INTO sessions (session_id, league, season, week, started_at, status, source_breakdown)
		VALUES ($1, $2, $3, $4, $5, $6, '[]')`,
		s.ID, s.League, s.Season, s.Week, s.Started, s.Status)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Finish(ctx context.Context, db DBTX, s *domain.CollectionSession) error {
	blob, err := json.Marshal(s.Sources)
	if err != nil {
		return fmt.Errorf("encode source breakdown: %w", err)
	}
	_, err = db.Exec(ctx, `
		UPDATE sessions SET finished_at = $2, status = $3, source_breakdown = $4
		WHERE session_id = $1`,
		s.ID, s.Finished, s.Status, blob)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Latest(ctx context.Context, db DBTX, league domain.League) (*domain.CollectionSession, error) {
	row := db.QueryRow(ctx, `
		SELECT session_id, league, season, week, started_at,
			COALESCE(finished_at, started_at), status, source_breakdown
		FROM sessions
		WHERE league = $1
		ORDER BY started_at DESC
		LIMIT 1`, league)

	var s domain.CollectionSession
	var blob []byte
	err := row.Scan(&s.ID, &s.League, &s.Season, &s.Week, &s.Started, &s.Finished, &s.Status, &blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &s.Sources); err != nil {
			return nil, fmt.Errorf("decode source breakdown: %w", err)
		}
	}
	return &s, nil
}
