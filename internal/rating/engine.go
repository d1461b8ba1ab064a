// Package rating implements the exponential power-rating model. A team's
// rating is a point-spread-equivalent scalar updated once per completed game:
//
//	true_perf  = score_diff + opponent_rating + injury_diff - home_field_adj
//	new_rating = 0.9*old_rating + 0.1*true_perf
//
// The home-field adjustment is subtracted for the home team and added for
// the visitor, so beating a team at home by exactly the HFA margin is
// rating-neutral.
package rating

import (
	"sort"

	"github.com/sharpline/platform/internal/domain"
)

const (
	carryWeight = 0.9
	perfWeight  = 0.1
)

// Engine applies the update rule for one league.
type Engine struct {
	league domain.League
	hfa    float64
}

// NewEngine creates an engine with the league's home-field advantage.
func NewEngine(league domain.League, hfa float64) *Engine {
	return &Engine{league: league, hfa: hfa}
}

// TruePerformance computes one team's single-game performance on the rating
// scale, given the opponent's pre-game rating.
func (e *Engine) TruePerformance(res domain.GameResult, opponentRating float64) float64 {
	perf := float64(res.ScoreDifferential()) + opponentRating + res.InjuryDiff
	if res.IsHome {
		perf -= e.hfa
	} else {
		perf += e.hfa
	}
	return perf
}

// Next applies the exponential update.
func Next(oldRating, truePerf float64) float64 {
	return carryWeight*oldRating + perfWeight*truePerf
}

// PredictedHomeSpread projects the market-convention home spread from two
// ratings; negative means home favored by that many points.
func (e *Engine) PredictedHomeSpread(awayRating, homeRating float64) float64 {
	return awayRating - homeRating - e.hfa
}

// InjuryLookup reports the injury point total a team carried into a game.
// A nil lookup means no injury data and every diff is zero.
type InjuryLookup func(g domain.Game, team string) float64

// ApplyWeek advances a consistent prior snapshot through one week of final
// games. Games apply strictly in ascending (date, game_id) order; both teams
// in a game update simultaneously from the pre-game snapshot. The input map
// is not mutated; the result holds every team present in prev or in games.
func (e *Engine) ApplyWeek(prev map[string]domain.TeamRating, games []domain.Game, week int, injuries InjuryLookup) map[string]domain.TeamRating {
	next := make(map[string]domain.TeamRating, len(prev))
	for team, r := range prev {
		cp := r
		cp.Week = week
		cp.History = append([]float64(nil), r.History...)
		next[team] = cp
	}

	ordered := append([]domain.Game(nil), games...)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Kickoff.Equal(ordered[j].Kickoff) {
			return ordered[i].Kickoff.Before(ordered[j].Kickoff)
		}
		return ordered[i].GameID < ordered[j].GameID
	})

	for _, g := range ordered {
		if !g.Final() {
			continue
		}
		home := e.ratingFor(next, g.HomeTeam, g.Season, week)
		away := e.ratingFor(next, g.AwayTeam, g.Season, week)

		homeRes := resultFor(g, true, injuries)
		awayRes := resultFor(g, false, injuries)

		// Pre-game snapshot for both sides.
		homePerf := e.TruePerformance(homeRes, away.Rating)
		awayPerf := e.TruePerformance(awayRes, home.Rating)

		home.Rating = Next(home.Rating, homePerf)
		home.GamesPlayed++
		home.PushHistory(home.Rating)

		away.Rating = Next(away.Rating, awayPerf)
		away.GamesPlayed++
		away.PushHistory(away.Rating)

		next[g.HomeTeam] = home
		next[g.AwayTeam] = away
	}
	return next
}

func (e *Engine) ratingFor(m map[string]domain.TeamRating, team string, season, week int) domain.TeamRating {
	if r, ok := m[team]; ok {
		return r
	}
	// Teams with no prior record enter at the scale midpoint.
	return domain.TeamRating{
		League: e.league,
		Season: season,
		Week:   week,
		Team:   team,
	}
}

func resultFor(g domain.Game, home bool, injuries InjuryLookup) domain.GameResult {
	res := domain.GameResult{
		League: g.League,
		Date:   g.Kickoff,
		GameID: g.GameID,
		Week:   g.Week,
		IsHome: home,
	}
	if home {
		res.Team = g.HomeTeam
		res.Opponent = g.AwayTeam
		res.TeamScore = *g.HomeScore
		res.OpponentScore = *g.AwayScore
	} else {
		res.Team = g.AwayTeam
		res.Opponent = g.HomeTeam
		res.TeamScore = *g.AwayScore
		res.OpponentScore = *g.HomeScore
	}
	if injuries != nil {
		// A depleted roster inflates a bad score line, so the team's own
		// missing points raise its performance and the opponent's lower it.
		res.InjuryDiff = injuries(g, res.Team) - injuries(g, res.Opponent)
	}
	return res
}

// ComposePreseason seeds a week-0 rating from the prior-season final plus
// signed offseason deltas. Deltas are inputs, never computed here.
func ComposePreseason(league domain.League, season int, team string, priorFinal float64, deltas []domain.OffseasonDelta) domain.TeamRating {
	rating := priorFinal
	for _, d := range deltas {
		if d.Team == team {
			rating += d.Points
		}
	}
	return domain.TeamRating{
		League: league,
		Season: season,
		Week:   0,
		Team:   team,
		Rating: rating,
	}
}
