package edge

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/keynumbers"
	"github.com/sharpline/platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fakes ignore the db handle, so the detector runs against a nil pool.

type fakeGameRepo struct {
	week   []domain.Game
	finals []domain.Game
}

func (f *fakeGameRepo) Upsert(context.Context, repository.DBTX, domain.Game) error { return nil }
func (f *fakeGameRepo) FindByID(context.Context, repository.DBTX, string) (*domain.Game, error) {
	return nil, nil
}
func (f *fakeGameRepo) ListByWeek(context.Context, repository.DBTX, domain.League, int, int) ([]domain.Game, error) {
	return f.week, nil
}
func (f *fakeGameRepo) ListFinalByWeek(context.Context, repository.DBTX, domain.League, int, int) ([]domain.Game, error) {
	return f.finals, nil
}
func (f *fakeGameRepo) ListFinalThrough(context.Context, repository.DBTX, domain.League, int, int) ([]domain.Game, error) {
	return f.finals, nil
}
func (f *fakeGameRepo) PreviousFinal(_ context.Context, _ repository.DBTX, _ domain.League, team string, before time.Time) (*domain.Game, error) {
	var best *domain.Game
	for i := range f.finals {
		g := f.finals[i]
		if g.HomeTeam != team && g.AwayTeam != team {
			continue
		}
		if !g.Kickoff.Before(before) {
			continue
		}
		if best == nil || g.Kickoff.After(best.Kickoff) {
			best = &f.finals[i]
		}
	}
	return best, nil
}

type fakeTeamRepo struct{ teams []domain.Team }

func (f *fakeTeamRepo) Upsert(context.Context, repository.DBTX, domain.Team) error { return nil }
func (f *fakeTeamRepo) ListByLeague(context.Context, repository.DBTX, domain.League, int) ([]domain.Team, error) {
	return f.teams, nil
}

type fakeOddsRepo struct{ lines map[string][]domain.Odds }

func (f *fakeOddsRepo) Upsert(context.Context, repository.DBTX, domain.Odds) error { return nil }
func (f *fakeOddsRepo) LatestPerBook(_ context.Context, _ repository.DBTX, gameID string, _ time.Time) ([]domain.Odds, error) {
	return f.lines[gameID], nil
}
func (f *fakeOddsRepo) Closing(context.Context, repository.DBTX, string, time.Time) (*domain.Odds, error) {
	return nil, nil
}

type fakeRatingRepo struct {
	week    int
	ratings []domain.TeamRating
}

func (f *fakeRatingRepo) Upsert(context.Context, repository.DBTX, domain.TeamRating) error {
	return nil
}
func (f *fakeRatingRepo) UpsertWeek(context.Context, pgx.Tx, []domain.TeamRating) error { return nil }
func (f *fakeRatingRepo) AtWeek(context.Context, repository.DBTX, domain.League, int, int, string) (*domain.TeamRating, error) {
	return nil, nil
}
func (f *fakeRatingRepo) ListWeek(context.Context, repository.DBTX, domain.League, int, int) ([]domain.TeamRating, error) {
	return f.ratings, nil
}
func (f *fakeRatingRepo) MaxWeek(context.Context, repository.DBTX, domain.League, int) (int, error) {
	return f.week, nil
}

type fakeInjuryRepo struct{ byTeam map[string][]domain.InjuryReport }

func (f *fakeInjuryRepo) Upsert(context.Context, repository.DBTX, domain.InjuryReport) error {
	return nil
}
func (f *fakeInjuryRepo) LatestByTeam(_ context.Context, _ repository.DBTX, _ domain.League, team string, _ time.Time) ([]domain.InjuryReport, error) {
	return f.byTeam[team], nil
}

type fakeWeatherRepo struct{}

func (fakeWeatherRepo) Upsert(context.Context, repository.DBTX, domain.WeatherReport) error {
	return nil
}
func (fakeWeatherRepo) Latest(context.Context, repository.DBTX, string, time.Time) (*domain.WeatherReport, error) {
	return nil, nil
}

type fakePredictionRepo struct{ inserted []domain.Prediction }

func (f *fakePredictionRepo) Insert(_ context.Context, _ repository.DBTX, p domain.Prediction) error {
	f.inserted = append(f.inserted, p)
	return nil
}
func (f *fakePredictionRepo) ListOpenByWeek(context.Context, repository.DBTX, domain.League, int, int) ([]domain.Prediction, error) {
	return nil, nil
}
func (f *fakePredictionRepo) MarkSettled(context.Context, repository.DBTX, uuid.UUID) error {
	return nil
}

type fakeSettledRepo struct{ results map[string][]domain.BetResult }

func (f *fakeSettledRepo) InsertIfAbsent(context.Context, repository.DBTX, domain.SettledBet) (bool, error) {
	return true, nil
}
func (f *fakeSettledRepo) ListByPredictionIDs(context.Context, repository.DBTX, []uuid.UUID) ([]domain.SettledBet, error) {
	return nil, nil
}
func (f *fakeSettledRepo) RecentResults(_ context.Context, _ repository.DBTX, _ domain.League, team string, _ int) ([]domain.BetResult, error) {
	return f.results[team], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func finalGame(id, away, home string, awayScore, homeScore int, kickoff time.Time) domain.Game {
	return domain.Game{
		GameID:    id,
		League:    domain.LeagueNFL,
		Season:    2025,
		Week:      1,
		AwayTeam:  away,
		HomeTeam:  home,
		Kickoff:   kickoff,
		Status:    domain.GameFinal,
		AwayScore: &awayScore,
		HomeScore: &homeScore,
	}
}

func TestDetectorRun_ContextFlowsIntoProjection(t *testing.T) {
	week2Kick := time.Date(2025, 9, 14, 17, 0, 0, 0, time.UTC)
	scheduled := domain.Game{
		GameID:   "DET_GB_20250914",
		League:   domain.LeagueNFL,
		Season:   2025,
		Week:     2,
		AwayTeam: "DET",
		HomeTeam: "GB",
		Kickoff:  week2Kick,
		Status:   domain.GameScheduled,
	}
	// GB last played Thursday (9 days out) and lost the earlier meeting to
	// DET; DET played Sunday (7 days of rest) and is missing its starting QB.
	finals := []domain.Game{
		finalGame("GB_DET_20250904", "GB", "DET", 24, 27, time.Date(2025, 9, 5, 0, 15, 0, 0, time.UTC)),
		finalGame("DET_MIN_20250907", "DET", "MIN", 28, 14, time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)),
	}

	games := &fakeGameRepo{week: []domain.Game{scheduled}, finals: finals}
	teams := &fakeTeamRepo{teams: []domain.Team{
		{League: domain.LeagueNFL, TeamID: "GB", Season: 2025},
		{League: domain.LeagueNFL, TeamID: "DET", Season: 2025},
	}}
	odds := &fakeOddsRepo{lines: map[string][]domain.Odds{
		scheduled.GameID: {
			{GameID: scheduled.GameID, Sportsbook: "book_a", HomeSpread: -6.5, AwaySpread: 6.5, Total: 44.5},
			{GameID: scheduled.GameID, Sportsbook: "book_b", HomeSpread: -7.5, AwaySpread: 7.5, Total: 45.5},
		},
	}}
	ratings := &fakeRatingRepo{week: 1, ratings: []domain.TeamRating{
		{League: domain.LeagueNFL, Season: 2025, Week: 1, Team: "GB", Rating: 82.0},
		{League: domain.LeagueNFL, Season: 2025, Week: 1, Team: "DET", Rating: 80.0},
	}}
	injuries := &fakeInjuryRepo{byTeam: map[string][]domain.InjuryReport{
		"DET": {{League: domain.LeagueNFL, Team: "DET", PlayerName: "QB1",
			PointValue: 5.0, ReplacementValue: 2.0, Confidence: 1.0}},
	}}
	preds := &fakePredictionRepo{}
	settled := &fakeSettledRepo{}

	d := NewDetector(nil, games, teams, odds, ratings, injuries, fakeWeatherRepo{}, preds, settled,
		map[domain.League]*keynumbers.Table{domain.LeagueNFL: keynumbers.DefaultNFL()},
		testStaking(), func(domain.League) float64 { return 2.5 }, "v2025.1",
		infra.NewEventPublisher("", false, discardLogger()), discardLogger())

	out, err := d.Run(context.Background(), domain.LeagueNFL, 2025, 2, false)
	require.NoError(t, err)
	require.Len(t, out, 1)

	p := out[0]
	// Ratings project home -4.5. GB gets rest +2 and revenge +2 (0.8 spread
	// points); DET's QB is worth a net 3.0 off its side. Net +3.8 home.
	assert.InDelta(t, -7.0, p.MarketSpread, 1e-9)
	assert.InDelta(t, 3.8, p.SpreadAdjustment, 1e-9)
	assert.InDelta(t, -8.3, p.PredictedSpread, 1e-9)
	assert.Equal(t, domain.SideHome, p.Side)
	require.Len(t, preds.inserted, 1)
}

func TestDetectorRestDays_DefaultsWithoutPriorFinal(t *testing.T) {
	games := &fakeGameRepo{}
	d := NewDetector(nil, games, &fakeTeamRepo{}, &fakeOddsRepo{}, &fakeRatingRepo{},
		&fakeInjuryRepo{}, fakeWeatherRepo{}, &fakePredictionRepo{}, &fakeSettledRepo{},
		map[domain.League]*keynumbers.Table{domain.LeagueNFL: keynumbers.DefaultNFL()},
		testStaking(), func(domain.League) float64 { return 2.5 }, "v2025.1",
		infra.NewEventPublisher("", false, discardLogger()), discardLogger())

	g := testGame()
	days, err := d.restDays(context.Background(), g, "GB")
	require.NoError(t, err)
	assert.Equal(t, defaultRestDays, days)

	// A Thursday-to-Sunday turnaround counts whole days only. Fresh game id
	// so the memoized default above does not shadow the lookup.
	games.finals = []domain.Game{
		finalGame("GB_CHI_20250911", "GB", "CHI", 20, 17, g.Kickoff.Add(-76*time.Hour)),
	}
	g.GameID = "GB_DET_20250921"
	days, err = d.restDays(context.Background(), g, "GB")
	require.NoError(t, err)
	assert.Equal(t, 3, days)
}
