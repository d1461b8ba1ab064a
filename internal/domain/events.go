package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics for downstream consumers. Publishing is best-effort and
// disabled by default; the pipeline never blocks on the broker.
const (
	TopicSessionCompleted  = "pipeline.session.completed"
	TopicPredictionCreated = "pipeline.prediction.created"
	TopicBetSettled        = "pipeline.bet.settled"
)

// SessionCompletedEvent is published when a collection run finishes.
type SessionCompletedEvent struct {
	SessionID uuid.UUID     `json:"session_id"`
	League    League        `json:"league"`
	Week      int           `json:"week"`
	Status    SessionStatus `json:"status"`
	Records   int           `json:"records"`
	Finished  time.Time     `json:"finished"`
}

// PredictionCreatedEvent is published for each playable prediction.
type PredictionCreatedEvent struct {
	PredictionID uuid.UUID `json:"prediction_id"`
	GameID       string    `json:"game_id"`
	League       League    `json:"league"`
	Side         BetSide   `json:"side"`
	Stars        float64   `json:"stars"`
	EdgePercent  float64   `json:"edge_percent"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// BetSettledEvent is published for each settled bet.
type BetSettledEvent struct {
	PredictionID uuid.UUID `json:"prediction_id"`
	GameID       string    `json:"game_id"`
	Result       BetResult `json:"result"`
	Profit       float64   `json:"profit"`
	CLV          float64   `json:"clv"`
	SettledAt    time.Time `json:"settled_at"`
}
