// Package collector orchestrates one collection run per league: preflight
// checks, the fixed source sequence, per-source session metrics, raw
// archiving, and the post-flight gate that decides whether edge detection
// may run.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/normalize"
	"github.com/sharpline/platform/internal/provider"
	"github.com/sharpline/platform/internal/repository"
)

// teamFetchWorkers bounds per-source parallelism for the per-team endpoints.
// The guarded client's rate gate serializes the actual requests; the workers
// just keep the pipeline full.
const teamFetchWorkers = 4

// weatherHorizon skips forecasts for kickoffs too far out to be meaningful.
const weatherHorizon = 7 * 24 * time.Hour

// Collector runs the source sequence for one league.
type Collector struct {
	pool     *pgxpool.Pool
	teams    repository.TeamRepository
	games    repository.GameRepository
	odds     repository.OddsRepository
	injuries repository.InjuryRepository
	weather  repository.WeatherRepository
	ratings  repository.RatingRepository
	sessions repository.SessionRepository

	espn       *provider.ESPNClient
	oddsAPI    *provider.OddsClient
	weatherAPI *provider.WeatherClient
	massey     *provider.MasseyClient

	normalizer *normalize.Normalizer
	mapper     *normalize.TeamMapper
	calendar   *normalize.SeasonCalendar
	archive    *Archive
	events     *infra.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// New wires the orchestrator.
func New(
	pool *pgxpool.Pool,
	teams repository.TeamRepository,
	games repository.GameRepository,
	odds repository.OddsRepository,
	injuries repository.InjuryRepository,
	weather repository.WeatherRepository,
	ratings repository.RatingRepository,
	sessions repository.SessionRepository,
	espn *provider.ESPNClient,
	oddsAPI *provider.OddsClient,
	weatherAPI *provider.WeatherClient,
	massey *provider.MasseyClient,
	normalizer *normalize.Normalizer,
	mapper *normalize.TeamMapper,
	calendar *normalize.SeasonCalendar,
	archive *Archive,
	events *infra.EventPublisher,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		pool:       pool,
		teams:      teams,
		games:      games,
		odds:       odds,
		injuries:   injuries,
		weather:    weather,
		ratings:    ratings,
		sessions:   sessions,
		espn:       espn,
		oddsAPI:    oddsAPI,
		weatherAPI: weatherAPI,
		massey:     massey,
		normalizer: normalizer,
		mapper:     mapper,
		calendar:   calendar,
		archive:    archive,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// sourceResult is one source step's outcome.
type sourceResult struct {
	records int
	errors  int
	detail  string
}

// Run executes the full source sequence and returns the finished session.
// The session status tells the caller whether edge detection may follow:
// only SessionOK clears the gate.
func (c *Collector) Run(ctx context.Context, league domain.League, dryRun bool) (*domain.CollectionSession, error) {
	started := c.now().UTC()
	week := c.calendar.CurrentWeek(started)
	season := c.calendar.Season

	if err := c.preflight(league, week); err != nil {
		return nil, err
	}

	session := &domain.CollectionSession{
		ID:      uuid.New(),
		League:  league,
		Season:  season,
		Week:    week,
		Started: started,
		Status:  domain.SessionRunning,
	}
	if !dryRun {
		if err := c.sessions.Insert(ctx, c.pool, session); err != nil {
			return nil, fmt.Errorf("open session: %w", err)
		}
		if err := c.seedTeams(ctx, league); err != nil {
			return nil, err
		}
	}

	steps := map[domain.Source]func(context.Context, *domain.CollectionSession, bool) (sourceResult, error){
		domain.SourcePowerRatings: c.collectPowerRatings,
		domain.SourceTeamStats:    c.collectTeamStats,
		domain.SourceSchedules:    c.collectSchedules,
		domain.SourceInjuries:     c.collectInjuries,
		domain.SourceWeather:      c.collectWeather,
		domain.SourceOdds:         c.collectOdds,
	}

	for _, src := range domain.CollectionOrder {
		if ctx.Err() != nil {
			session.Status = domain.SessionAborted
			return session, c.finish(ctx, session, dryRun)
		}
		c.runSource(ctx, session, src, steps[src], dryRun)
	}

	session.Status = c.postflight(session)
	if err := c.finish(ctx, session, dryRun); err != nil {
		return session, err
	}

	c.logger.Info("collection run finished",
		"session_id", session.ID, "league", league, "season", season, "week", week,
		"status", session.Status, "dry_run", dryRun)
	return session, nil
}

func (c *Collector) preflight(league domain.League, week int) error {
	if !league.Valid() {
		return domain.ErrValidation(fmt.Sprintf("unknown league %q", league))
	}
	if week <= 0 {
		return domain.ErrDataUnavailable(
			fmt.Sprintf("no current week for %s; season calendar exhausted", league))
	}
	if len(c.mapper.Teams()) == 0 {
		return domain.ErrValidation(fmt.Sprintf("team mapping for %s is empty", league))
	}
	return nil
}

// seedTeams refreshes the teams table from the mapping config so later
// sources can join against it.
func (c *Collector) seedTeams(ctx context.Context, league domain.League) error {
	for _, t := range c.mapper.Teams() {
		if err := c.teams.Upsert(ctx, c.pool, t); err != nil {
			return fmt.Errorf("seed team %s: %w", t.TeamID, err)
		}
	}
	return nil
}

func (c *Collector) runSource(ctx context.Context, session *domain.CollectionSession, src domain.Source, fn func(context.Context, *domain.CollectionSession, bool) (sourceResult, error), dryRun bool) {
	run := domain.SourceRun{Source: src, Started: c.now().UTC()}

	res, err := fn(ctx, session, dryRun)
	run.Finished = c.now().UTC()
	run.Records = res.records
	run.Errors = res.errors
	run.Detail = res.detail
	run.OK = err == nil

	if err != nil {
		run.Detail = err.Error()
		level := slog.LevelWarn
		if domain.CriticalSources[src] {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "source collection failed",
			"session_id", session.ID, "source", src, "error", err)
	} else {
		c.logger.Info("source collected",
			"session_id", session.ID, "source", src,
			"records", run.Records, "errors", run.Errors,
			"elapsed", run.Finished.Sub(run.Started).Round(time.Millisecond))
	}
	session.Sources = append(session.Sources, run)
}

// postflight decides the session status from the per-source outcomes.
func (c *Collector) postflight(session *domain.CollectionSession) domain.SessionStatus {
	okCount := 0
	for _, run := range session.Sources {
		if run.OK {
			okCount++
		}
	}
	switch {
	case okCount == 0:
		return domain.SessionFailed
	case session.CriticalFailure():
		return domain.SessionDegraded
	case okCount < len(session.Sources):
		return domain.SessionDegraded
	default:
		return domain.SessionOK
	}
}

func (c *Collector) finish(ctx context.Context, session *domain.CollectionSession, dryRun bool) error {
	session.Finished = c.now().UTC()
	if dryRun {
		return nil
	}
	if err := c.sessions.Finish(ctx, c.pool, session); err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	records := 0
	for _, run := range session.Sources {
		records += run.Records
	}
	c.events.Publish(ctx, domain.TopicSessionCompleted, session.ID.String(), domain.SessionCompletedEvent{
		SessionID: session.ID,
		League:    session.League,
		Week:      session.Week,
		Status:    session.Status,
		Records:   records,
		Finished:  session.Finished,
	})
	return nil
}

// ── source steps ──

// collectPowerRatings ingests the composite feed as week-0 rating seeds.
// Existing week-0 rows are refreshed; weekly ratings come from the rating
// engine, never from here.
func (c *Collector) collectPowerRatings(ctx context.Context, session *domain.CollectionSession, dryRun bool) (sourceResult, error) {
	batch, err := c.massey.Ratings(ctx, session.League)
	if err != nil {
		return sourceResult{}, err
	}
	c.archive.Write(session.League, domain.SourcePowerRatings, session.Season, session.Week, batch.CapturedAt, batch)

	seeds, errs := c.normalizer.CompositeRatings(batch, session.Season, 0)
	if len(errs) > 0 {
		// Unmapped names on a critical source abort the step.
		return sourceResult{records: len(seeds), errors: len(errs)}, errs[0]
	}
	if !batch.Verified {
		return sourceResult{records: len(seeds)},
			domain.ErrValidation("composite feed below expected team coverage")
	}

	if dryRun {
		return sourceResult{records: len(seeds), detail: "dry run"}, nil
	}
	for _, seed := range seeds {
		if err := c.ratings.Upsert(ctx, c.pool, seed); err != nil {
			return sourceResult{records: len(seeds)}, fmt.Errorf("store rating seed %s: %w", seed.Team, err)
		}
	}
	return sourceResult{records: len(seeds)}, nil
}

// collectTeamStats fetches per-team season aggregates. They feed the archive
// and coverage verification only; the rating engine works from scores.
func (c *Collector) collectTeamStats(ctx context.Context, session *domain.CollectionSession, dryRun bool) (sourceResult, error) {
	teams := c.mapper.Teams()
	stats := make([]*provider.TeamSeasonStats, 0, len(teams))
	var mu sync.Mutex
	var errCount int

	c.forEachTeam(ctx, teams, func(ctx context.Context, t domain.Team) {
		s, err := c.espn.TeamStats(ctx, session.League, t.Abbreviation)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errCount++
			c.logger.Warn("team stats fetch failed", "team", t.TeamID, "error", err)
			return
		}
		stats = append(stats, s)
	})

	if len(stats) == 0 {
		return sourceResult{errors: errCount}, domain.ErrDataUnavailable("no team stats fetched")
	}
	c.archive.Write(session.League, domain.SourceTeamStats, session.Season, session.Week, c.now().UTC(), stats)
	return sourceResult{records: len(stats), errors: errCount, detail: "archived"}, nil
}

// collectSchedules ingests the week's scoreboard, including final scores for
// already-played games.
func (c *Collector) collectSchedules(ctx context.Context, session *domain.CollectionSession, dryRun bool) (sourceResult, error) {
	batch, err := c.espn.Scoreboard(ctx, session.League, session.Season, session.Week)
	if err != nil {
		return sourceResult{}, err
	}
	c.archive.Write(session.League, domain.SourceSchedules, session.Season, session.Week, batch.CapturedAt, batch)

	games, errs := c.normalizer.Games(batch)
	allErrs := len(batch.Errors) + len(errs)
	if len(games) == 0 {
		return sourceResult{errors: allErrs}, domain.ErrDataUnavailable("scoreboard produced no games")
	}

	if dryRun {
		return sourceResult{records: len(games), errors: allErrs, detail: "dry run"}, nil
	}
	for _, g := range games {
		if err := c.games.Upsert(ctx, c.pool, g); err != nil {
			return sourceResult{records: len(games), errors: allErrs},
				fmt.Errorf("store game %s: %w", g.GameID, err)
		}
	}
	return sourceResult{records: len(games), errors: allErrs}, nil
}

func (c *Collector) collectInjuries(ctx context.Context, session *domain.CollectionSession, dryRun bool) (sourceResult, error) {
	teams := c.mapper.Teams()
	var reports []domain.InjuryReport
	var mu sync.Mutex
	var errCount int

	c.forEachTeam(ctx, teams, func(ctx context.Context, t domain.Team) {
		batch, err := c.espn.Injuries(ctx, session.League, t.Abbreviation, t.Name)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errCount++
			c.logger.Warn("injury fetch failed", "team", t.TeamID, "error", err)
			return
		}
		normalized, _ := c.normalizer.Injuries(batch)
		errCount += len(batch.Errors)
		reports = append(reports, normalized...)
	})

	// Archive before the dry-run gate, like every other source: dry runs
	// skip database writes only.
	c.archive.Write(session.League, domain.SourceInjuries, session.Season, session.Week, c.now().UTC(), reports)

	if dryRun {
		return sourceResult{records: len(reports), errors: errCount, detail: "dry run"}, nil
	}
	for _, r := range reports {
		if err := c.injuries.Upsert(ctx, c.pool, r); err != nil {
			return sourceResult{records: len(reports), errors: errCount},
				fmt.Errorf("store injury %s/%s: %w", r.Team, r.PlayerName, err)
		}
	}
	return sourceResult{records: len(reports), errors: errCount}, nil
}

// collectWeather fetches kickoff forecasts for this week's outdoor games.
// Runs after schedules so venues and kickoffs are current.
func (c *Collector) collectWeather(ctx context.Context, session *domain.CollectionSession, dryRun bool) (sourceResult, error) {
	games, err := c.games.ListByWeek(ctx, c.pool, session.League, session.Season, session.Week)
	if err != nil {
		return sourceResult{}, fmt.Errorf("load week games: %w", err)
	}

	var records, errCount int
	now := c.now().UTC()
	for _, g := range games {
		if g.Indoor || g.Status != domain.GameScheduled || g.Kickoff.Sub(now) > weatherHorizon {
			continue
		}
		fc, err := c.weatherAPI.Forecast(ctx, provider.VenueLocation(g.Venue), g.Kickoff)
		if err != nil {
			errCount++
			c.logger.Warn("weather fetch failed", "game_id", g.GameID, "error", err)
			continue
		}
		report := c.normalizer.Weather(g.GameID, g.Indoor, fc)
		if !dryRun {
			if err := c.weather.Upsert(ctx, c.pool, report); err != nil {
				return sourceResult{records: records, errors: errCount},
					fmt.Errorf("store weather %s: %w", g.GameID, err)
			}
		}
		records++
	}
	return sourceResult{records: records, errors: errCount}, nil
}

func (c *Collector) collectOdds(ctx context.Context, session *domain.CollectionSession, dryRun bool) (sourceResult, error) {
	batch, err := c.oddsAPI.Lines(ctx, session.League)
	if err != nil {
		return sourceResult{}, err
	}
	c.archive.Write(session.League, domain.SourceOdds, session.Season, session.Week, batch.CapturedAt, batch)

	games, err := c.games.ListByWeek(ctx, c.pool, session.League, session.Season, session.Week)
	if err != nil {
		return sourceResult{}, fmt.Errorf("load week games: %w", err)
	}
	gamesByID := make(map[string]domain.Game, len(games))
	for _, g := range games {
		gamesByID[g.GameID] = g
	}

	odds, errs := c.normalizer.Odds(batch, gamesByID)
	allErrs := len(batch.Errors) + len(errs)
	if len(odds) == 0 {
		return sourceResult{errors: allErrs}, domain.ErrDataUnavailable("no odds lines joined to known games")
	}

	if dryRun {
		return sourceResult{records: len(odds), errors: allErrs, detail: "dry run"}, nil
	}
	for _, o := range odds {
		if err := c.odds.Upsert(ctx, c.pool, o); err != nil {
			return sourceResult{records: len(odds), errors: allErrs},
				fmt.Errorf("store odds %s/%s: %w", o.GameID, o.Sportsbook, err)
		}
	}
	return sourceResult{records: len(odds), errors: allErrs}, nil
}

// forEachTeam fans work over a bounded worker pool.
func (c *Collector) forEachTeam(ctx context.Context, teams []domain.Team, fn func(context.Context, domain.Team)) {
	work := make(chan domain.Team)
	var wg sync.WaitGroup
	for i := 0; i < teamFetchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				fn(ctx, t)
			}
		}()
	}
	for _, t := range teams {
		if ctx.Err() != nil {
			break
		}
		work <- t
	}
	close(work)
	wg.Wait()
}
