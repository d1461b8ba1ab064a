package factors

import (
	"testing"

	"github.com/sharpline/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_SituationalAndEmotionalRollup(t *testing.T) {
	// Rest +2, divisional +1, rivalry +2, ATS 4-1 +2 gives S = 7;
	// seeding gives E = 2; dome, so W = 0.
	ctx := domain.GameContext{
		Team:               "GB",
		Opponent:           "CHI",
		IsHome:             true,
		RestDaysTeam:       9,
		RestDaysOpponent:   7,
		Divisional:         true,
		Rivalry:            true,
		ATSLastFive:        []bool{true, true, true, false, true},
		SeedingImplication: true,
	}

	adj := Calculate(ctx)

	assert.InDelta(t, 1.8, adj.SpreadPoints, 1e-9)
	assert.InDelta(t, 1.4, adj.Details["rest_advantage"]/5+adj.Details["divisional"]/5+
		adj.Details["rivalry"]/5+adj.Details["ats_hot"]/5, 1e-9)
	assert.InDelta(t, 0.4, adj.Details["seeding"]/5, 1e-9)
	assert.Zero(t, adj.TotalPoints)
	assert.Contains(t, adj.Summary, "S=+7.0")
	assert.Contains(t, adj.Summary, "E=+2.0")
}

func TestCalculate_InjuriesDeductSpreadPointsDirectly(t *testing.T) {
	ctx := domain.GameContext{
		Team: "GB",
		Injuries: []domain.InjuryReport{
			{PlayerName: "QB1", PointValue: 7.0, ReplacementValue: 2.1, Confidence: 0.95},
			{PlayerName: "WR1", PointValue: 1.5, ReplacementValue: 0.5, Confidence: 0.5},
		},
	}

	adj := Calculate(ctx)

	// (7.0-2.1)*0.95 + (1.5-0.5)*0.5 = 5.155 points, already on the spread
	// scale so no 5:1 conversion applies.
	assert.InDelta(t, -5.155, adj.SpreadPoints, 1e-9)
	assert.InDelta(t, -5.155, adj.Details["injuries"], 1e-9)
}

func TestCalculate_TravelFatigueTiers(t *testing.T) {
	cases := []struct {
		name  string
		ctx   domain.GameContext
		wantS float64
	}{
		{"three zones", domain.GameContext{TimeZonesCrossed: 3}, -3},
		{"long flight", domain.GameContext{TravelMiles: 2200}, -2},
		{"medium flight", domain.GameContext{TravelMiles: 1200}, -1},
		{"short trip", domain.GameContext{TravelMiles: 400}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adj := Calculate(tc.ctx)
			assert.InDelta(t, tc.wantS/factorPointsPerSpreadPoint, adj.SpreadPoints, 1e-9)
		})
	}
}

func TestCalculate_ATSRequiresFullWindow(t *testing.T) {
	// Only 3 tracked results: streak factor must not fire.
	adj := Calculate(domain.GameContext{ATSLastFive: []bool{true, true, true}})
	assert.Zero(t, adj.SpreadPoints)

	cold := Calculate(domain.GameContext{ATSLastFive: []bool{false, false, false, false, true}})
	assert.InDelta(t, -2.0/factorPointsPerSpreadPoint, cold.SpreadPoints, 1e-9)
}

func TestCalculate_RestAdvantageFloorsAtZero(t *testing.T) {
	adj := Calculate(domain.GameContext{RestDaysTeam: 6, RestDaysOpponent: 10})
	assert.Zero(t, adj.SpreadPoints, "rest disadvantage counts on the opponent's side, not twice")
}

func TestCalculate_WeatherAdjustsTotalOnly(t *testing.T) {
	ctx := domain.GameContext{
		Weather: &domain.WeatherReport{WindMPH: 22, TempF: 45},
	}
	adj := Calculate(ctx)
	assert.Zero(t, adj.SpreadPoints)
	assert.InDelta(t, -5.0, adj.TotalPoints, 1e-9)
}

func TestCalculate_IndoorWeatherIgnored(t *testing.T) {
	ctx := domain.GameContext{
		Weather: &domain.WeatherReport{WindMPH: 30, TempF: 10, Indoor: true},
	}
	adj := Calculate(ctx)
	assert.Zero(t, adj.TotalPoints)
}

func TestNetSpread_HomeMinusAway(t *testing.T) {
	home := Adjustment{SpreadPoints: 1.8}
	away := Adjustment{SpreadPoints: 0.4}
	assert.InDelta(t, 1.4, NetSpread(home, away), 1e-9)
}

func TestNetTotal_WeatherCountedOnce(t *testing.T) {
	home := Adjustment{TotalPoints: -3}
	away := Adjustment{TotalPoints: -3}
	assert.InDelta(t, -3.0, NetTotal(home, away), 1e-9)
}

func TestEmotionalFactors(t *testing.T) {
	ctx := domain.GameContext{
		PlayoffElimination: true,
		NewHeadCoach:       true,
		KeyStarReturning:   true,
	}
	adj := Calculate(ctx)
	// 5 + 2 + 1 = 8 factor points.
	assert.InDelta(t, 8.0/factorPointsPerSpreadPoint, adj.SpreadPoints, 1e-9)
}
