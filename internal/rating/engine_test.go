package rating

import (
	"testing"
	"time"

	"github.com/sharpline/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func finalGame(id, away, home string, awayScore, homeScore int, kickoff time.Time) domain.Game {
	return domain.Game{
		GameID:    id,
		League:    domain.LeagueNCAAF,
		Season:    2025,
		Week:      1,
		AwayTeam:  away,
		HomeTeam:  home,
		Kickoff:   kickoff,
		Status:    domain.GameFinal,
		AwayScore: intp(awayScore),
		HomeScore: intp(homeScore),
	}
}

func TestTruePerformance_HomeWin(t *testing.T) {
	e := NewEngine(domain.LeagueNCAAF, 3.5)

	res := domain.GameResult{Team: "A", Opponent: "B", TeamScore: 42, OpponentScore: 35, IsHome: true}
	perf := e.TruePerformance(res, 85.0)
	assert.InDelta(t, 88.5, perf, 1e-9)
	assert.InDelta(t, 80.85, Next(80.0, perf), 1e-9)
}

func TestTruePerformance_VisitorLoss(t *testing.T) {
	e := NewEngine(domain.LeagueNCAAF, 3.5)

	res := domain.GameResult{Team: "B", Opponent: "A", TeamScore: 35, OpponentScore: 42, IsHome: false}
	perf := e.TruePerformance(res, 80.0)
	assert.InDelta(t, 76.5, perf, 1e-9)
	assert.InDelta(t, 84.15, Next(85.0, perf), 1e-9)
}

func TestApplyWeek_BothTeamsUpdateFromPreGameSnapshot(t *testing.T) {
	e := NewEngine(domain.LeagueNCAAF, 3.5)
	prev := map[string]domain.TeamRating{
		"A": {League: domain.LeagueNCAAF, Season: 2025, Week: 0, Team: "A", Rating: 80.0},
		"B": {League: domain.LeagueNCAAF, Season: 2025, Week: 0, Team: "B", Rating: 85.0},
	}
	kickoff := time.Date(2025, 9, 6, 19, 0, 0, 0, time.UTC)
	games := []domain.Game{finalGame("B_A_20250906", "B", "A", 35, 42, kickoff)}

	next := e.ApplyWeek(prev, games, 1, nil)

	assert.InDelta(t, 80.85, next["A"].Rating, 1e-9)
	assert.InDelta(t, 84.15, next["B"].Rating, 1e-9)
	assert.Equal(t, 1, next["A"].GamesPlayed)
	assert.Equal(t, 1, next["B"].GamesPlayed)
	assert.Equal(t, 1, next["A"].Week)

	// Input snapshot untouched.
	assert.InDelta(t, 80.0, prev["A"].Rating, 1e-9)
}

func TestApplyWeek_InjuryLookupShiftsPerformance(t *testing.T) {
	e := NewEngine(domain.LeagueNCAAF, 3.5)
	prev := map[string]domain.TeamRating{
		"A": {League: domain.LeagueNCAAF, Season: 2025, Week: 0, Team: "A", Rating: 80.0},
		"B": {League: domain.LeagueNCAAF, Season: 2025, Week: 0, Team: "B", Rating: 85.0},
	}
	kickoff := time.Date(2025, 9, 6, 19, 0, 0, 0, time.UTC)
	games := []domain.Game{finalGame("B_A_20250906", "B", "A", 35, 42, kickoff)}

	lookup := func(g domain.Game, team string) float64 {
		return map[string]float64{"A": 2.0, "B": 0.5}[team]
	}
	next := e.ApplyWeek(prev, games, 1, lookup)

	// Home A: 7 + 85 + (2.0-0.5) - 3.5 = 90.0, away B: -7 + 80 + (0.5-2.0) + 3.5 = 75.0.
	assert.InDelta(t, 81.0, next["A"].Rating, 1e-9)
	assert.InDelta(t, 84.0, next["B"].Rating, 1e-9)
}

func TestApplyWeek_Deterministic(t *testing.T) {
	e := NewEngine(domain.LeagueNCAAF, 3.5)
	prev := map[string]domain.TeamRating{
		"A": {Team: "A", Rating: 80.0},
		"B": {Team: "B", Rating: 85.0},
		"C": {Team: "C", Rating: 70.0},
		"D": {Team: "D", Rating: 75.0},
	}
	kickoff := time.Date(2025, 9, 6, 19, 0, 0, 0, time.UTC)
	games := []domain.Game{
		finalGame("B_A_20250906", "B", "A", 35, 42, kickoff),
		finalGame("D_C_20250906", "D", "C", 21, 17, kickoff),
	}
	reversed := []domain.Game{games[1], games[0]}

	first := e.ApplyWeek(prev, games, 1, nil)
	second := e.ApplyWeek(prev, reversed, 1, nil)

	for team := range prev {
		assert.InDelta(t, first[team].Rating, second[team].Rating, 1e-12,
			"team %s must not depend on input order", team)
	}
}

func TestApplyWeek_SkipsNonFinalGames(t *testing.T) {
	e := NewEngine(domain.LeagueNFL, 2.5)
	prev := map[string]domain.TeamRating{
		"A": {Team: "A", Rating: 80.0},
		"B": {Team: "B", Rating: 85.0},
	}
	g := finalGame("B_A_20250906", "B", "A", 35, 42, time.Now())
	g.Status = domain.GameInProgress

	next := e.ApplyWeek(prev, []domain.Game{g}, 1, nil)
	assert.InDelta(t, 80.0, next["A"].Rating, 1e-9)
	assert.Equal(t, 0, next["A"].GamesPlayed)
}

func TestPredictedHomeSpread(t *testing.T) {
	e := NewEngine(domain.LeagueNFL, 2.5)
	// Home rated 3 better plus HFA: home favored by 5.5.
	assert.InDelta(t, -5.5, e.PredictedHomeSpread(80.0, 83.0), 1e-9)
}

func TestPushHistory_RingCaps(t *testing.T) {
	var r domain.TeamRating
	for i := 0; i < 15; i++ {
		r.PushHistory(float64(i))
	}
	require.Len(t, r.History, domain.RatingHistoryLen)
	assert.Equal(t, 5.0, r.History[0])
	assert.Equal(t, 14.0, r.History[len(r.History)-1])
}

func TestComposePreseason_AppliesDeltas(t *testing.T) {
	deltas := []domain.OffseasonDelta{
		{Team: "A", Kind: "free_agency", Points: 2.0},
		{Team: "A", Kind: "coaching_change", Points: -1.0},
		{Team: "B", Kind: "draft", Points: 3.0},
	}
	seed := ComposePreseason(domain.LeagueNFL, 2025, "A", 80.0, deltas)
	assert.InDelta(t, 81.0, seed.Rating, 1e-9)
	assert.Equal(t, 0, seed.Week)
}
