package edge

import (
	"math"

	"github.com/sharpline/platform/internal/domain"
)

// Baseline win probability at the standard -110 spread price.
const baselineWinProb = 0.5238

// Default category thresholds (edge percent). Reporting only; staking never
// reads these.
const (
	thresholdVeryStrong = 13.0
	thresholdStrong     = 9.0
)

// Staking carries the bankroll parameters for stake sizing.
type Staking struct {
	BankrollUnits  float64
	KellyFraction  float64
	MaxBetFraction float64
	MinEdgePercent float64
}

// StarsFor maps edge percent to the discrete confidence tier. Boundaries
// belong to the higher tier.
func StarsFor(edgePercent, minEdge float64) float64 {
	if edgePercent < minEdge {
		return 0
	}
	switch {
	case edgePercent >= 15:
		return 3.0
	case edgePercent >= 13:
		return 2.5
	case edgePercent >= 11:
		return 2.0
	case edgePercent >= 9:
		return 1.5
	case edgePercent >= 7:
		return 1.0
	case edgePercent >= 5.5:
		return 0.5
	default:
		return 0
	}
}

// CategoryFor labels the edge for reporting.
func CategoryFor(edgePercent, minEdge float64) domain.EdgeCategory {
	switch {
	case edgePercent >= thresholdVeryStrong:
		return domain.EdgeVeryStrong
	case edgePercent >= thresholdStrong:
		return domain.EdgeStrong
	case edgePercent >= minEdge:
		return domain.EdgeMedium
	default:
		return domain.EdgeNone
	}
}

// FullKelly computes the Kelly-optimal bankroll fraction: (b*p - q) / b,
// with b the decimal payoff at the price and p the win probability implied
// by the edge over the -110 baseline.
func FullKelly(edgePercent float64, price int) float64 {
	b := domain.AmericanToDecimal(price)
	p := baselineWinProb + edgePercent/100.0
	if p > 0.99 {
		p = 0.99
	}
	q := 1 - p
	k := (b*p - q) / b
	if k < 0 {
		return 0
	}
	return k
}

// StakePercent sizes the bet as a percent of bankroll: the star tier in
// units, never exceeding fractional Kelly or the max-bet cap.
func (s Staking) StakePercent(stars, edgePercent float64, price int) float64 {
	if stars <= 0 {
		return 0
	}
	kellyCap := FullKelly(edgePercent, price) * s.KellyFraction * 100
	maxCap := s.MaxBetFraction * 100
	return math.Min(stars, math.Min(kellyCap, maxCap))
}

// StakeUnits converts the percent stake into bankroll units.
func (s Staking) StakeUnits(stakePercent float64) float64 {
	return stakePercent / 100.0 * s.BankrollUnits
}
