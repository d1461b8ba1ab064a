// Package scheduler drives the pipeline on a wall-clock schedule: data
// refreshes during the week, settlement on game nights, edge detection after
// every clean collection run. Runs for one league never overlap; a trigger
// that lands while that league is busy is queued behind it.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sharpline/platform/internal/domain"
)

// Pipeline is the callable surface of the three run types. The daemon owns
// when; the pipeline owns what.
type Pipeline interface {
	Collect(ctx context.Context, league domain.League) (*domain.CollectionSession, error)
	DetectEdges(ctx context.Context, league domain.League, season, week int) error
	CheckResults(ctx context.Context, league domain.League, season, week int) error
}

type jobKind string

const (
	jobCollect jobKind = "collect"
	jobResults jobKind = "results"
)

type job struct {
	kind   jobKind
	league domain.League
	// window identifies the trigger instance so one window fires once.
	window string
}

// trigger is one recurring schedule entry.
type trigger struct {
	kind    jobKind
	weekday time.Weekday
	hour    int
}

// refreshTriggers drives collection twice weekly plus a line refresh before
// the main slates.
var refreshTriggers = map[domain.League][]trigger{
	domain.LeagueNFL: {
		{jobCollect, time.Tuesday, 8},
		{jobCollect, time.Friday, 8},
		{jobCollect, time.Sunday, 14},
		{jobResults, time.Thursday, 23},
		{jobResults, time.Sunday, 23},
		{jobResults, time.Monday, 23},
	},
	domain.LeagueNCAAF: {
		{jobCollect, time.Tuesday, 9},
		{jobCollect, time.Friday, 9},
		{jobResults, time.Saturday, 23},
	},
}

// queueDepth bounds pending jobs per league. One in flight plus a small
// backlog; an overflowing trigger is dropped since the next window repeats it.
const queueDepth = 4

// Scheduler owns the per-league run queues.
type Scheduler struct {
	leagues  []domain.League
	pipeline Pipeline
	seasons  map[domain.League]int
	weekOf   func(domain.League, time.Time) int
	logger   *slog.Logger

	tick  time.Duration
	now   func() time.Time
	mu    sync.Mutex
	fired map[string]bool
}

// New creates a scheduler for the given leagues. weekOf resolves the current
// week from the league's season calendar at trigger time.
func New(leagues []domain.League, pipeline Pipeline, seasons map[domain.League]int, weekOf func(domain.League, time.Time) int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		leagues:  leagues,
		pipeline: pipeline,
		seasons:  seasons,
		weekOf:   weekOf,
		logger:   logger,
		tick:     time.Minute,
		now:      time.Now,
		fired:    make(map[string]bool),
	}
}

// Run blocks until the context is canceled, evaluating triggers every tick
// and executing queued jobs with one worker per league.
func (s *Scheduler) Run(ctx context.Context) error {
	queues := make(map[domain.League]chan job, len(s.leagues))
	var wg sync.WaitGroup
	for _, league := range s.leagues {
		q := make(chan job, queueDepth)
		queues[league] = q
		wg.Add(1)
		go func(league domain.League, q chan job) {
			defer wg.Done()
			s.worker(ctx, league, q)
		}(league, q)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			for _, q := range queues {
				close(q)
			}
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			s.evaluate(queues)
		}
	}
}

// evaluate enqueues jobs for triggers whose window contains now, once per
// window instance.
func (s *Scheduler) evaluate(queues map[domain.League]chan job) {
	now := s.now().UTC()
	for _, league := range s.leagues {
		for _, t := range refreshTriggers[league] {
			if now.Weekday() != t.weekday || now.Hour() != t.hour {
				continue
			}
			window := fmt.Sprintf("%s|%s|%s", league, t.kind, now.Format("2006010215"))

			s.mu.Lock()
			already := s.fired[window]
			if !already {
				s.fired[window] = true
			}
			s.mu.Unlock()
			if already {
				continue
			}

			select {
			case queues[league] <- job{kind: t.kind, league: league, window: window}:
				s.logger.Info("job queued", "league", league, "kind", t.kind, "window", window)
			default:
				s.logger.Warn("job queue full, trigger dropped",
					"league", league, "kind", t.kind, "window", window)
			}
		}
	}
}

func (s *Scheduler) worker(ctx context.Context, league domain.League, q <-chan job) {
	for j := range q {
		if ctx.Err() != nil {
			return
		}
		s.execute(ctx, j)
	}
}

func (s *Scheduler) execute(ctx context.Context, j job) {
	started := s.now()
	logger := s.logger.With("league", j.league, "kind", j.kind, "window", j.window)

	switch j.kind {
	case jobCollect:
		session, err := s.pipeline.Collect(ctx, j.league)
		if err != nil {
			logger.Error("collection run failed", "error", err)
			return
		}
		if session.Status != domain.SessionOK {
			// The degraded gate: edge detection only follows a clean run.
			logger.Warn("collection not clean, skipping edge detection", "status", session.Status)
			return
		}
		if err := s.pipeline.DetectEdges(ctx, j.league, session.Season, session.Week); err != nil {
			logger.Error("edge detection failed", "error", err)
			return
		}
	case jobResults:
		now := s.now().UTC()
		week := s.weekOf(j.league, now)
		if week <= 0 {
			logger.Info("season over, skipping settlement")
			return
		}
		err := s.pipeline.CheckResults(ctx, j.league, s.seasons[j.league], week)
		if err != nil && !domain.IsDataUnavailable(err) {
			logger.Error("settlement run failed", "error", err)
			return
		}
		if domain.IsDataUnavailable(err) {
			logger.Info("no finals yet, settlement deferred")
		}
	}
	logger.Info("job finished", "elapsed", s.now().Sub(started).Round(time.Second))
}
