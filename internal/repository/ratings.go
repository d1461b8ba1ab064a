package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
)

type ratingRepo struct{}

// NewRatingRepository returns a pgx-backed RatingRepository.
func NewRatingRepository() RatingRepository {
	return &ratingRepo{}
}

const ratingUpsert = `
	INSERT INTO ratings (league, season, week, team, rating, games_played, history_blob)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (league, season, week, team) DO UPDATE SET
		rating = EXCLUDED.rating,
		games_played = EXCLUDED.games_played,
		history_blob = EXCLUDED.history_blob`

func (r *ratingRepo) Upsert(ctx context.Context, db DBTX, rating domain.TeamRating) error {
	blob, err := json.Marshal(rating.History)
	if err != nil {
		return fmt.Errorf("encode rating history: %w", err)
	}
	_, err = db.Exec(ctx, ratingUpsert,
		rating.League, rating.Season, rating.Week, rating.Team,
		rating.Rating, rating.GamesPlayed, blob)
	if err != nil {
		return fmt.Errorf("upsert rating %s w%d: %w", rating.Team, rating.Week, err)
	}
	return nil
}

// UpsertWeek writes a full week inside the caller's transaction so a week
// commits atomically.
func (r *ratingRepo) UpsertWeek(ctx context.Context, tx pgx.Tx, ratings []domain.TeamRating) error {
	for _, rating := range ratings {
		blob, err := json.Marshal(rating.History)
		if err != nil {
			return fmt.Errorf("encode rating history: %w", err)
		}
		if _, err := tx.Exec(ctx, ratingUpsert,
			rating.League, rating.Season, rating.Week, rating.Team,
			rating.Rating, rating.GamesPlayed, blob); err != nil {
			return fmt.Errorf("upsert rating %s w%d: %w", rating.Team, rating.Week, err)
		}
	}
	return nil
}

func (r *ratingRepo) AtWeek(ctx context.Context, db DBTX, league domain.League, season, week int, team string) (*domain.TeamRating, error) {
	row := db.QueryRow(ctx, `
		SELECT league, season, week, team, rating, games_played, history_blob
		FROM ratings
		WHERE league = $1 AND season = $2 AND week = $3 AND team = $4`,
		league, season, week, team)
	rating, err := scanRating(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rating, err
}

func (r *ratingRepo) ListWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.TeamRating, error) {
	rows, err := db.Query(ctx, `
		SELECT league, season, week, team, rating, games_played, history_blob
		FROM ratings
		WHERE league = $1 AND season = $2 AND week = $3
		ORDER BY team`, league, season, week)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var out []domain.TeamRating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rating)
	}
	return out, rows.Err()
}

func (r *ratingRepo) MaxWeek(ctx context.Context, db DBTX, league domain.League, season int) (int, error) {
	var week *int
	err := db.QueryRow(ctx, `
		SELECT MAX(week) FROM ratings WHERE league = $1 AND season = $2`,
		league, season).Scan(&week)
	if err != nil {
		return -1, fmt.Errorf("max rating week: %w", err)
	}
	if week == nil {
		return -1, nil
	}
	return *week, nil
}

func scanRating(row pgx.Row) (*domain.TeamRating, error) {
	var rating domain.TeamRating
	var blob []byte
	err := row.Scan(&rating.League, &rating.Season, &rating.Week, &rating.Team,
		&rating.Rating, &rating.GamesPlayed, &blob)
	if err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &rating.History); err != nil {
			return nil, fmt.Errorf("decode rating history: %w", err)
		}
	}
	return &rating, nil
}
