package domain

import "time"

// InjurySeverity buckets an injury's expected impact.
type InjurySeverity string

const (
	InjuryHealthy  InjurySeverity = "healthy"
	InjuryMinor    InjurySeverity = "minor"
	InjuryModerate InjurySeverity = "moderate"
	InjurySevere   InjurySeverity = "severe"
)

// InjuryStaleAfter is how long a capture stays usable for analysis.
const InjuryStaleAfter = 72 * time.Hour

// InjuryReport is one player's status at capture time, upserted on
// (team, player, captured_at).
type InjuryReport struct {
	League           League         `json:"league"`
	Team             string         `json:"team"`
	PlayerName       string         `json:"player_name"`
	Position         string         `json:"position"`
	Status           string         `json:"status"`
	Severity         InjurySeverity `json:"severity"`
	PointValue       float64        `json:"point_value"`
	ReplacementValue float64        `json:"replacement_value"`
	Confidence       float64        `json:"confidence"`
	Source           string         `json:"source"`
	CapturedAt       time.Time      `json:"captured_at"`
}

// Stale reports whether the capture is older than the 72h analysis window.
func (r InjuryReport) Stale(now time.Time) bool {
	return now.Sub(r.CapturedAt) > InjuryStaleAfter
}

// NetPointValue is the spread impact net of the replacement player.
func (r InjuryReport) NetPointValue() float64 {
	return (r.PointValue - r.ReplacementValue) * r.Confidence
}
