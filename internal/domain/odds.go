package domain

import (
	"math"
	"time"
)

// SpreadTolerance is the permitted deviation from home_spread+away_spread=0.
const SpreadTolerance = 0.01

// Odds is one captured line from one sportsbook. Unique on
// (game_id, sportsbook, captured_at); many rows per game across books and time.
type Odds struct {
	GameID        string    `json:"game_id"`
	Sportsbook    string    `json:"sportsbook"`
	CapturedAt    time.Time `json:"captured_at"`
	HomeSpread    float64   `json:"home_spread"`
	AwaySpread    float64   `json:"away_spread"`
	Total         float64   `json:"total"`
	HomeMoneyline int       `json:"home_moneyline"`
	AwayMoneyline int       `json:"away_moneyline"`
	Suspect       bool      `json:"suspect"`
	Source        string    `json:"source"`
}

// Consistent reports whether the two spreads mirror within tolerance and the
// total is positive. Inconsistent rows are stored but flagged suspect and
// excluded from edge detection.
func (o Odds) Consistent() bool {
	return math.Abs(o.HomeSpread+o.AwaySpread) <= SpreadTolerance && o.Total > 0
}

// StandardPrice is the assumed spread price when a book does not report one.
const StandardPrice = -110

// AmericanToDecimal converts an American price to decimal payoff odds
// (profit per unit staked, excluding the stake).
func AmericanToDecimal(price int) float64 {
	if price == 0 {
		price = StandardPrice
	}
	if price > 0 {
		return float64(price) / 100.0
	}
	return 100.0 / float64(-price)
}

// ImpliedProbability returns the break-even win probability at the price.
func ImpliedProbability(price int) float64 {
	if price == 0 {
		price = StandardPrice
	}
	if price > 0 {
		return 100.0 / float64(price+100)
	}
	p := float64(-price)
	return p / (p + 100.0)
}
