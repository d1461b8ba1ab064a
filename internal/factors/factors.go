// Package factors translates game context into signed point adjustments.
// Situational (S) and emotional (E) factor points convert to spread points
// at 5:1; weather adjusts game totals only, since both offenses are
// affected equally.
package factors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sharpline/platform/internal/domain"
)

// factorPointsPerSpreadPoint is the S/E conversion ratio.
const factorPointsPerSpreadPoint = 5.0

// Adjustment is the calculator's output for one team's context.
type Adjustment struct {
	// SpreadPoints favors the team the context applies to (positive helps).
	SpreadPoints float64
	// TotalPoints applies to the over/under baseline (negative lowers it).
	TotalPoints float64
	Summary     string
	Details     map[string]float64
}

// Calculate rolls the context's S, E, and W factors into point adjustments.
func Calculate(ctx domain.GameContext) Adjustment {
	details := make(map[string]float64)

	sTotal := situational(ctx, details)
	eTotal := emotional(ctx, details)

	// Injury values are already on the spread scale, so they bypass the
	// 5:1 factor conversion.
	injury := ctx.InjuryPointTotal()
	if injury != 0 {
		details["injuries"] = -injury
	}

	var totalAdj float64
	if ctx.Weather != nil {
		totalAdj = ctx.Weather.TotalAdjustment()
		if totalAdj != 0 {
			details["weather_total"] = totalAdj
		}
	}

	adj := Adjustment{
		SpreadPoints: sTotal/factorPointsPerSpreadPoint + eTotal/factorPointsPerSpreadPoint - injury,
		TotalPoints:  totalAdj,
		Details:      details,
	}
	adj.Summary = summarize(ctx.Team, sTotal, eTotal, totalAdj, details)
	return adj
}

// situational scores the S factors in raw factor points.
func situational(ctx domain.GameContext, details map[string]float64) float64 {
	var total float64

	switch rest := ctx.RestAdvantageDays(); {
	case rest >= 3:
		total += 3
		details["rest_advantage"] = 3
	case rest == 2:
		total += 2
		details["rest_advantage"] = 2
	case rest == 1:
		total += 1
		details["rest_advantage"] = 1
	}

	switch {
	case ctx.TimeZonesCrossed >= 3:
		total -= 3
		details["travel_fatigue"] = -3
	case ctx.TravelMiles >= 2000:
		total -= 2
		details["travel_fatigue"] = -2
	case ctx.TravelMiles >= 1000:
		total -= 1
		details["travel_fatigue"] = -1
	}

	if ctx.Divisional {
		total += 1
		details["divisional"] = 1
	}
	if ctx.Rivalry {
		total += 2
		details["rivalry"] = 2
	}
	if ctx.Revenge {
		total += 2
		details["revenge"] = 2
	}

	if covers, losses := ctx.ATSRecord(); covers+losses == 5 {
		switch {
		case covers >= 4:
			total += 2
			details["ats_hot"] = 2
		case covers <= 1:
			total -= 2
			details["ats_cold"] = -2
		}
	}
	return total
}

// emotional scores the E factors in raw factor points.
func emotional(ctx domain.GameContext, details map[string]float64) float64 {
	var total float64
	if ctx.PlayoffElimination {
		total += 5
		details["playoff_elimination"] = 5
	}
	if ctx.PlayoffClinch {
		total += 3
		details["playoff_clinch"] = 3
	}
	if ctx.SeedingImplication {
		total += 2
		details["seeding"] = 2
	}
	if ctx.NewHeadCoach {
		total += 2
		details["new_head_coach"] = 2
	}
	if ctx.KeyStarReturning {
		total += 1
		details["star_returning"] = 1
	}
	return total
}

func summarize(team string, s, e, w float64, details map[string]float64) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %+.1f", k, details[k]))
	}
	return fmt.Sprintf("%s: S=%+.1f E=%+.1f W=%+.1f [%s]",
		team, s, e, w, strings.Join(parts, ", "))
}

// NetSpread returns the spread adjustment for the home side given both
// teams' adjustments: positive moves the projection toward the home team.
func NetSpread(home, away Adjustment) float64 {
	return home.SpreadPoints - away.SpreadPoints
}

// NetTotal combines both contexts' total adjustments without double-counting
// shared weather.
func NetTotal(home, away Adjustment) float64 {
	// Weather is attached to the game, not the team; both contexts carry
	// the same forecast, so take one side's value.
	if home.TotalPoints != 0 {
		return home.TotalPoints
	}
	return away.TotalPoints
}
