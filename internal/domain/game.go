package domain

import (
	"fmt"
	"time"
)

// GameStatus tracks the lifecycle of a scheduled game.
type GameStatus string

const (
	GameScheduled  GameStatus = "scheduled"
	GameInProgress GameStatus = "in_progress"
	GameFinal      GameStatus = "final"
	GamePostponed  GameStatus = "postponed"
	GameCanceled   GameStatus = "canceled"
)

// Game represents one scheduled or completed game. GameID is the synthetic
// key AWAY_HOME_YYYYMMDD; the natural key is
// (league, season, away_team, home_team, game_date).
type Game struct {
	GameID    string     `json:"game_id"`
	League    League     `json:"league"`
	Season    int        `json:"season"`
	Week      int        `json:"week"`
	AwayTeam  string     `json:"away_team"`
	HomeTeam  string     `json:"home_team"`
	Kickoff   time.Time  `json:"kickoff"`
	Venue     string     `json:"venue,omitempty"`
	Indoor    bool       `json:"indoor"`
	Status    GameStatus `json:"status"`
	HomeScore *int       `json:"home_score,omitempty"`
	AwayScore *int       `json:"away_score,omitempty"`
}

// Final reports whether the game has a settled score.
func (g *Game) Final() bool {
	return g.Status == GameFinal && g.HomeScore != nil && g.AwayScore != nil
}

// HomeMargin returns home score minus away score. Only meaningful when Final.
func (g *Game) HomeMargin() int {
	if g.HomeScore == nil || g.AwayScore == nil {
		return 0
	}
	return *g.HomeScore - *g.AwayScore
}

// BuildGameID derives the synthetic game id from abbreviations and kickoff date.
func BuildGameID(awayAbbr, homeAbbr string, kickoff time.Time) string {
	return fmt.Sprintf("%s_%s_%s", awayAbbr, homeAbbr, kickoff.UTC().Format("20060102"))
}

// GameResult is the per-team view of a completed game consumed by the rating
// engine. Immutable after insertion.
type GameResult struct {
	Team          string    `json:"team"`
	Opponent      string    `json:"opponent"`
	TeamScore     int       `json:"team_score"`
	OpponentScore int       `json:"opponent_score"`
	IsHome        bool      `json:"is_home"`
	League        League    `json:"league"`
	Date          time.Time `json:"date"`
	GameID        string    `json:"game_id"`
	Week          int       `json:"week"`
	InjuryDiff    float64   `json:"injury_differential"`
}

// ScoreDifferential is team score minus opponent score.
func (r GameResult) ScoreDifferential() int {
	return r.TeamScore - r.OpponentScore
}
