package rating

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOffseason(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "offseason_nfl.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadOffseason(t *testing.T) {
	dir := writeOffseason(t, `league: nfl
season: 2025
priors:
  GB: 82.5
  DET: 84.0
deltas:
  - team: GB
    kind: free_agency
    points: 1.5
  - team: GB
    kind: coaching_change
    points: -0.5
`)

	cfg, err := LoadOffseason(dir, domain.LeagueNFL)
	require.NoError(t, err)
	assert.Equal(t, 2025, cfg.Season)
	assert.InDelta(t, 82.5, cfg.Priors["GB"], 1e-9)
	require.Len(t, cfg.Deltas, 2)
	assert.Equal(t, domain.LeagueNFL, cfg.Deltas[0].League)
	assert.Equal(t, 2025, cfg.Deltas[0].Season)

	seed := ComposePreseason(domain.LeagueNFL, cfg.Season, "GB", cfg.Priors["GB"], cfg.Deltas)
	assert.InDelta(t, 83.5, seed.Rating, 1e-9)
	assert.Equal(t, 0, seed.Week)
}

func TestLoadOffseason_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"wrong league", "league: ncaaf\nseason: 2025\npriors:\n  GB: 80.0\n"},
		{"missing season", "league: nfl\npriors:\n  GB: 80.0\n"},
		{"no priors", "league: nfl\nseason: 2025\n"},
		{"delta for unknown team", "league: nfl\nseason: 2025\npriors:\n  GB: 80.0\ndeltas:\n  - team: DET\n    points: 1.0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeOffseason(t, tc.content)
			_, err := LoadOffseason(dir, domain.LeagueNFL)
			assert.Error(t, err)
		})
	}
}

func TestLoadOffseason_MissingFile(t *testing.T) {
	_, err := LoadOffseason(t.TempDir(), domain.LeagueNFL)
	assert.Error(t, err)
}

type recordingRatingRepo struct{ seeds []domain.TeamRating }

func (r *recordingRatingRepo) Upsert(_ context.Context, _ repository.DBTX, rating domain.TeamRating) error {
	r.seeds = append(r.seeds, rating)
	return nil
}

func (r *recordingRatingRepo) UpsertWeek(context.Context, pgx.Tx, []domain.TeamRating) error {
	return nil
}

func (r *recordingRatingRepo) AtWeek(context.Context, repository.DBTX, domain.League, int, int, string) (*domain.TeamRating, error) {
	return nil, nil
}

func (r *recordingRatingRepo) ListWeek(context.Context, repository.DBTX, domain.League, int, int) ([]domain.TeamRating, error) {
	return nil, nil
}

func (r *recordingRatingRepo) MaxWeek(context.Context, repository.DBTX, domain.League, int) (int, error) {
	return -1, nil
}

func TestSeedPreseason_WritesWeekZero(t *testing.T) {
	repo := &recordingRatingRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(nil, nil, repo, nil, NewEngine(domain.LeagueNFL, 2.5), logger)

	err := svc.SeedPreseason(context.Background(), domain.LeagueNFL, 2025,
		map[string]float64{"GB": 82.5, "DET": 84.0},
		[]domain.OffseasonDelta{{Team: "DET", Kind: "draft", Points: 2.0}})
	require.NoError(t, err)

	require.Len(t, repo.seeds, 2)
	byTeam := make(map[string]domain.TeamRating)
	for _, s := range repo.seeds {
		byTeam[s.Team] = s
	}
	assert.InDelta(t, 82.5, byTeam["GB"].Rating, 1e-9)
	assert.InDelta(t, 86.0, byTeam["DET"].Rating, 1e-9)
	assert.Equal(t, 0, byTeam["GB"].Week)
}
