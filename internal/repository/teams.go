package repository

import (
	"context"
	"fmt"

	"github.com/sharpline/platform/internal/domain"
)

type teamRepo struct{}

// NewTeamRepository returns a pgx-backed TeamRepository.
func NewTeamRepository() TeamRepository {
	return &teamRepo{}
}

func (r *teamRepo) Upsert(ctx context.Context, db DBTX, team domain.Team) error {
	_, err := db.Exec(ctx, `
		INSERT INTO teams (league, season, team_id, name, abbreviation, conference, division)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (league, season, team_id) DO UPDATE SET
			name = EXCLUDED.name,
			abbreviation = EXCLUDED.abbreviation,
			conference = EXCLUDED.conference,
			division = EXCLUDED.division`,
		team.League, team.Season, team.TeamID, team.Name, team.Abbreviation,
		team.Conference, team.Division)
	if err != nil {
		return fmt.Errorf("upsert team %s: %w", team.TeamID, err)
	}
	return nil
}

func (r *teamRepo) ListByLeague(ctx context.Context, db DBTX, league domain.League, season int) ([]domain.Team, error) {
	rows, err := db.Query(ctx, `
		SELECT league, season, team_id, name, abbreviation, conference, division
		FROM teams WHERE league = $1 AND season = $2
		ORDER BY team_id`, league, season)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.League, &t.Season, &t.TeamID, &t.Name,
			&t.Abbreviation, &t.Conference, &t.Division); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
