package domain

import (
	"time"

	"github.com/google/uuid"
)

// BetResult is the settled outcome of a prediction.
type BetResult string

const (
	BetWin  BetResult = "win"
	BetLoss BetResult = "loss"
	BetPush BetResult = "push"
	BetVoid BetResult = "void"
)

// SettledBet is the immutable settlement of one prediction. Once written it
// is never rewritten except via explicit void.
type SettledBet struct {
	PredictionID uuid.UUID `json:"prediction_id"`
	GameID       string    `json:"game_id"`
	Result       BetResult `json:"result"`
	Profit       float64   `json:"profit"`
	CLV          float64   `json:"clv"`
	ClosingLine  float64   `json:"closing_line"`
	SettledAt    time.Time `json:"settled_at"`
}

// ATSResult converts a settled spread bet into a cover result for one of the
// game's teams. A win on the bet side means the side's team covered; the
// other team in the same game did not. Pushes and voids are side-neutral.
func ATSResult(result BetResult, side BetSide, teamIsHome bool) BetResult {
	if result != BetWin && result != BetLoss {
		return result
	}
	betOnTeam := (side == SideHome) == teamIsHome
	if betOnTeam {
		return result
	}
	if result == BetWin {
		return BetLoss
	}
	return BetWin
}

// WeekReport aggregates settled bets for one (league, week).
type WeekReport struct {
	League       League    `json:"league"`
	Season       int       `json:"season"`
	Week         int       `json:"week"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Pushes       int       `json:"pushes"`
	Voids        int       `json:"voids"`
	Unmatched    int       `json:"unmatched"`
	Units        float64   `json:"units"`
	ROIPercent   float64   `json:"roi_percent"`
	AvgCLV       float64   `json:"avg_clv"`
	BeatClosePct float64   `json:"beat_close_pct"`
	GeneratedAt  time.Time `json:"generated_at"`
}
