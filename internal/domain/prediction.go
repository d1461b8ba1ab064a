package domain

import (
	"time"

	"github.com/google/uuid"
)

// BetSide identifies which side of the spread a prediction backs.
type BetSide string

const (
	SideHome BetSide = "home"
	SideAway BetSide = "away"
	SideNone BetSide = "none"
)

// PredictionStatus tracks a prediction through settlement.
type PredictionStatus string

const (
	PredictionPending PredictionStatus = "pending"
	PredictionOpen    PredictionStatus = "open"
	PredictionSettled PredictionStatus = "settled"
)

// EdgeCategory labels an edge for reporting only; it never affects staking.
type EdgeCategory string

const (
	EdgeVeryStrong EdgeCategory = "VERY_STRONG"
	EdgeStrong     EdgeCategory = "STRONG"
	EdgeMedium     EdgeCategory = "MEDIUM"
	EdgeNone       EdgeCategory = "NONE"
)

// Prediction is one emitted recommendation with every input snapshotted so
// the run is reproducible. One live prediction per (game_id, model_version);
// history is retained.
type Prediction struct {
	ID             uuid.UUID        `json:"id"`
	GameID         string           `json:"game_id"`
	League         League           `json:"league"`
	Season         int              `json:"season"`
	Week           int              `json:"week"`
	ModelVersion   string           `json:"model_version"`
	GeneratedAt    time.Time        `json:"generated_at"`
	Status         PredictionStatus `json:"status"`

	// Inputs snapshot
	HomeRating       float64 `json:"home_rating"`
	AwayRating       float64 `json:"away_rating"`
	HomeFieldAdj     float64 `json:"home_field_adj"`
	SpreadAdjustment float64 `json:"spread_adjustment"`
	TotalAdjustment  float64 `json:"total_adjustment"`
	MarketSpread     float64 `json:"market_spread"`
	MarketTotal      float64 `json:"market_total"`
	MarketPrice      int     `json:"market_price"`

	// Outputs
	PredictedSpread float64      `json:"predicted_spread"`
	PredictedTotal  float64      `json:"predicted_total"`
	EdgePoints      float64      `json:"edge_points"`
	EdgePercent     float64      `json:"edge_percent"`
	Category        EdgeCategory `json:"category"`
	Stars           float64      `json:"stars"`
	Side            BetSide      `json:"side"`
	StakeUnits      float64      `json:"stake_units"`
	KellyFraction   float64      `json:"kelly_fraction"`
	Confidence      float64      `json:"confidence"`
	Reasoning       string       `json:"reasoning"`
}

// Playable reports whether the prediction clears the no-bet floor.
func (p Prediction) Playable() bool {
	return p.Stars > 0 && p.Side != SideNone && p.StakeUnits > 0
}
