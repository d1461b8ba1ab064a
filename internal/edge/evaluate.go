package edge

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/factors"
	"github.com/sharpline/platform/internal/keynumbers"
)

// pointEdgePercent is the win-probability value of one point of raw edge on
// non-key numbers. Key-number crossings carry most of the value; the
// remaining margin mass is thin.
const pointEdgePercent = 0.5

// Inputs is the full snapshot needed to evaluate one game. Everything here
// is copied onto the emitted Prediction for reproducibility.
type Inputs struct {
	Game         domain.Game
	HomeRating   float64
	AwayRating   float64
	HFA          float64
	HomeAdj      factors.Adjustment
	AwayAdj      factors.Adjustment
	MarketSpread float64
	MarketTotal  float64
	MarketPrice  int
	ModelVersion string
	GeneratedAt  time.Time
}

// Evaluate runs the full projection for one game against its market
// consensus. Deterministic for a fixed snapshot: two runs differ only in ID
// and GeneratedAt.
func Evaluate(in Inputs, table *keynumbers.Table, staking Staking) domain.Prediction {
	netSpreadAdj := factors.NetSpread(in.HomeAdj, in.AwayAdj)
	netTotalAdj := factors.NetTotal(in.HomeAdj, in.AwayAdj)

	// Positive adjustment favors home, which pushes the home spread down.
	ratingSpread := in.AwayRating - in.HomeRating - in.HFA
	projected := ratingSpread - netSpreadAdj
	predictedTotal := in.MarketTotal + netTotalAdj

	rawEdge := projected - in.MarketSpread
	side := domain.SideHome
	if rawEdge > 0 {
		side = domain.SideAway
	}

	keys, keyValue := table.EdgeValue(projected, in.MarketSpread)
	edgePercent := keyValue*100 + math.Abs(rawEdge)*pointEdgePercent

	stars := StarsFor(edgePercent, staking.MinEdgePercent)
	stakePct := staking.StakePercent(stars, edgePercent, in.MarketPrice)
	if stars == 0 {
		side = domain.SideNone
	}

	p := domain.Prediction{
		ID:           uuid.New(),
		GameID:       in.Game.GameID,
		League:       in.Game.League,
		Season:       in.Game.Season,
		Week:         in.Game.Week,
		ModelVersion: in.ModelVersion,
		GeneratedAt:  in.GeneratedAt,
		Status:       domain.PredictionPending,

		HomeRating:       in.HomeRating,
		AwayRating:       in.AwayRating,
		HomeFieldAdj:     in.HFA,
		SpreadAdjustment: netSpreadAdj,
		TotalAdjustment:  netTotalAdj,
		MarketSpread:     in.MarketSpread,
		MarketTotal:      in.MarketTotal,
		MarketPrice:      in.MarketPrice,

		PredictedSpread: projected,
		PredictedTotal:  predictedTotal,
		EdgePoints:      rawEdge,
		EdgePercent:     edgePercent,
		Category:        CategoryFor(edgePercent, staking.MinEdgePercent),
		Stars:           stars,
		Side:            side,
		StakeUnits:      staking.StakeUnits(stakePct),
		KellyFraction:   staking.KellyFraction,
		Confidence:      baselineWinProb + edgePercent/100.0,
	}
	p.Reasoning = reasoning(in, p, keys)
	return p
}

func reasoning(in Inputs, p domain.Prediction, keys []int) string {
	base := fmt.Sprintf(
		"ratings %s %.1f / %s %.1f project home %+.1f; factors %+.1f -> %+.1f vs market %+.1f (edge %+.1f pts, %.1f%%)",
		in.Game.HomeTeam, in.HomeRating, in.Game.AwayTeam, in.AwayRating,
		in.AwayRating-in.HomeRating-in.HFA, p.SpreadAdjustment, p.PredictedSpread,
		p.MarketSpread, p.EdgePoints, p.EdgePercent)
	if len(keys) > 0 {
		base += fmt.Sprintf("; crosses key numbers %v", keys)
	}
	if p.Side == domain.SideNone {
		return base + "; below minimum edge, no bet"
	}
	return fmt.Sprintf("%s; bet %s %.1f stars", base, p.Side, p.Stars)
}

// Rank orders predictions best-first: stars, then edge percent, then raw
// edge magnitude, then earliest kickoff.
func Rank(preds []domain.Prediction, kickoffs map[string]time.Time) {
	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		if a.Stars != b.Stars {
			return a.Stars > b.Stars
		}
		if a.EdgePercent != b.EdgePercent {
			return a.EdgePercent > b.EdgePercent
		}
		if ae, be := math.Abs(a.EdgePoints), math.Abs(b.EdgePoints); ae != be {
			return ae > be
		}
		return kickoffs[a.GameID].Before(kickoffs[b.GameID])
	})
}
