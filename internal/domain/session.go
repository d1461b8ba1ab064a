package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus classifies the outcome of a collection run.
type SessionStatus string

const (
	SessionRunning  SessionStatus = "running"
	SessionOK       SessionStatus = "ok"
	SessionDegraded SessionStatus = "degraded"
	SessionFailed   SessionStatus = "failed"
	SessionAborted  SessionStatus = "aborted"
)

// Source names the configured collection sources, in run order.
type Source string

const (
	SourcePowerRatings Source = "power_ratings"
	SourceTeamStats    Source = "team_stats"
	SourceSchedules    Source = "schedules"
	SourceInjuries     Source = "injuries"
	SourceWeather      Source = "weather"
	SourceOdds         Source = "odds"
)

// CollectionOrder is the fixed source sequence for a run. Later sources may
// reference records written by earlier ones.
var CollectionOrder = []Source{
	SourcePowerRatings,
	SourceTeamStats,
	SourceSchedules,
	SourceInjuries,
	SourceWeather,
	SourceOdds,
}

// CriticalSources gate downstream edge detection when they fail.
var CriticalSources = map[Source]bool{
	SourcePowerRatings: true,
	SourceOdds:         true,
}

// SourceRun is the per-source metric row recorded inside a session.
type SourceRun struct {
	Source   Source    `json:"source"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	OK       bool      `json:"ok"`
	Records  int       `json:"records"`
	Errors   int       `json:"errors"`
	Detail   string    `json:"detail,omitempty"`
}

// CollectionSession links all writes from one orchestrated run.
type CollectionSession struct {
	ID       uuid.UUID     `json:"id"`
	League   League        `json:"league"`
	Season   int           `json:"season"`
	Week     int           `json:"week"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Status   SessionStatus `json:"status"`
	Sources  []SourceRun   `json:"sources"`
}

// CriticalFailure reports whether any critical source failed.
func (s *CollectionSession) CriticalFailure() bool {
	for _, run := range s.Sources {
		if !run.OK && CriticalSources[run.Source] {
			return true
		}
	}
	return false
}
