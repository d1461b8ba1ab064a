// Package edge turns stored ratings, factors, and market lines into bet
// recommendations. Detection is read-only over the collected data except for
// the prediction rows it emits; re-running over the same snapshot produces
// the same picks.
package edge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharpline/platform/internal/cache"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/factors"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/keynumbers"
	"github.com/sharpline/platform/internal/repository"
)

const (
	atsWindow = 5

	// defaultRestDays is assumed for a team with no prior final on record,
	// e.g. week 1 or a bye coming off an unplayed game.
	defaultRestDays = 7
)

// Detector runs edge detection for one league-week.
type Detector struct {
	pool        *pgxpool.Pool
	games       repository.GameRepository
	teams       repository.TeamRepository
	odds        repository.OddsRepository
	ratings     repository.RatingRepository
	injuries    repository.InjuryRepository
	weather     repository.WeatherRepository
	predictions repository.PredictionRepository
	settled     repository.SettledBetRepository

	tables       map[domain.League]*keynumbers.Table
	staking      Staking
	hfa          func(domain.League) float64
	modelVersion string
	events       *infra.EventPublisher
	analysis     *cache.TTLCache
	logger       *slog.Logger
	now          func() time.Time
}

// NewDetector wires the detector to the store and its configuration.
func NewDetector(
	pool *pgxpool.Pool,
	games repository.GameRepository,
	teams repository.TeamRepository,
	odds repository.OddsRepository,
	ratings repository.RatingRepository,
	injuries repository.InjuryRepository,
	weather repository.WeatherRepository,
	predictions repository.PredictionRepository,
	settled repository.SettledBetRepository,
	tables map[domain.League]*keynumbers.Table,
	staking Staking,
	hfa func(domain.League) float64,
	modelVersion string,
	events *infra.EventPublisher,
	logger *slog.Logger,
) *Detector {
	return &Detector{
		pool:         pool,
		games:        games,
		teams:        teams,
		odds:         odds,
		ratings:      ratings,
		injuries:     injuries,
		weather:      weather,
		predictions:  predictions,
		settled:      settled,
		tables:       tables,
		staking:      staking,
		hfa:          hfa,
		modelVersion: modelVersion,
		events:       events,
		analysis:     cache.ForAnalysis(),
		logger:       logger,
		now:          time.Now,
	}
}

// Run evaluates every scheduled game in the week and emits predictions,
// ranked best-first. Dry runs evaluate without writing or publishing.
func (d *Detector) Run(ctx context.Context, league domain.League, season, week int, dryRun bool) ([]domain.Prediction, error) {
	asOf := d.now().UTC()

	table, ok := d.tables[league]
	if !ok {
		return nil, domain.ErrValidation(fmt.Sprintf("no key number table for league %s", league))
	}

	ratingWeek, err := d.ratings.MaxWeek(ctx, d.pool, league, season)
	if err != nil {
		return nil, fmt.Errorf("find rating week: %w", err)
	}
	if ratingWeek < 0 {
		return nil, domain.ErrDataUnavailable(fmt.Sprintf("no ratings stored for %s %d", league, season))
	}
	ratingRows, err := d.ratings.ListWeek(ctx, d.pool, league, season, ratingWeek)
	if err != nil {
		return nil, fmt.Errorf("load week %d ratings: %w", ratingWeek, err)
	}
	ratingsByTeam := make(map[string]domain.TeamRating, len(ratingRows))
	for _, r := range ratingRows {
		ratingsByTeam[r.Team] = r
	}

	games, err := d.games.ListByWeek(ctx, d.pool, league, season, week)
	if err != nil {
		return nil, fmt.Errorf("load week %d games: %w", week, err)
	}

	divisions, err := d.teamDivisions(ctx, league, season)
	if err != nil {
		return nil, err
	}

	losses, err := d.seasonLosses(ctx, league, season, week)
	if err != nil {
		return nil, err
	}

	var preds []domain.Prediction
	kickoffs := make(map[string]time.Time)
	for _, g := range games {
		if g.Status != domain.GameScheduled {
			continue
		}
		kickoffs[g.GameID] = g.Kickoff

		lines, err := d.odds.LatestPerBook(ctx, d.pool, g.GameID, asOf)
		if err != nil {
			return nil, fmt.Errorf("load odds for %s: %w", g.GameID, err)
		}
		if len(lines) == 0 {
			d.logger.Debug("no odds captured, skipping game", "game_id", g.GameID)
			continue
		}

		homeRating, okHome := ratingsByTeam[g.HomeTeam]
		awayRating, okAway := ratingsByTeam[g.AwayTeam]
		if !okHome || !okAway {
			d.logger.Warn("missing rating, skipping game",
				"game_id", g.GameID, "home_rated", okHome, "away_rated", okAway)
			continue
		}

		homeCtx, err := d.buildContext(ctx, g, g.HomeTeam, g.AwayTeam, true, divisions, losses, asOf)
		if err != nil {
			return nil, err
		}
		awayCtx, err := d.buildContext(ctx, g, g.AwayTeam, g.HomeTeam, false, divisions, losses, asOf)
		if err != nil {
			return nil, err
		}

		p := Evaluate(Inputs{
			Game:         g,
			HomeRating:   homeRating.Rating,
			AwayRating:   awayRating.Rating,
			HFA:          d.hfa(league),
			HomeAdj:      factors.Calculate(homeCtx),
			AwayAdj:      factors.Calculate(awayCtx),
			MarketSpread: medianSpread(lines),
			MarketTotal:  medianTotal(lines),
			MarketPrice:  domain.StandardPrice,
			ModelVersion: d.modelVersion,
			GeneratedAt:  asOf,
		}, table, d.staking)
		preds = append(preds, p)
	}

	Rank(preds, kickoffs)

	if dryRun {
		d.logger.Info("dry run, predictions not stored",
			"league", league, "week", week, "evaluated", len(preds))
		return preds, nil
	}

	for _, p := range preds {
		if err := d.predictions.Insert(ctx, d.pool, p); err != nil {
			return nil, fmt.Errorf("store prediction %s: %w", p.GameID, err)
		}
		if p.Playable() {
			d.events.Publish(ctx, domain.TopicPredictionCreated, p.GameID, domain.PredictionCreatedEvent{
				PredictionID: p.ID,
				GameID:       p.GameID,
				League:       p.League,
				Side:         p.Side,
				Stars:        p.Stars,
				EdgePercent:  p.EdgePercent,
				GeneratedAt:  p.GeneratedAt,
			})
		}
	}

	playable := 0
	for _, p := range preds {
		if p.Playable() {
			playable++
		}
	}
	d.logger.Info("edge run complete",
		"league", league, "season", season, "week", week,
		"rating_week", ratingWeek, "evaluated", len(preds), "playable", playable)
	return preds, nil
}

func (d *Detector) buildContext(ctx context.Context, g domain.Game, team, opponent string, isHome bool, divisions map[string]string, losses map[string]bool, asOf time.Time) (domain.GameContext, error) {
	gc := domain.GameContext{
		Game:     g,
		Team:     team,
		Opponent: opponent,
		IsHome:   isHome,
	}

	if dTeam, dOpp := divisions[team], divisions[opponent]; dTeam != "" && dTeam == dOpp {
		gc.Divisional = true
	}
	gc.Revenge = losses[team+"|"+opponent]

	restTeam, err := d.restDays(ctx, g, team)
	if err != nil {
		return gc, err
	}
	restOpp, err := d.restDays(ctx, g, opponent)
	if err != nil {
		return gc, err
	}
	gc.RestDaysTeam = restTeam
	gc.RestDaysOpponent = restOpp

	injuries, err := d.injuries.LatestByTeam(ctx, d.pool, g.League, team, asOf)
	if err != nil {
		return gc, fmt.Errorf("load injuries for %s: %w", team, err)
	}
	gc.Injuries = injuries

	forecast, err := d.weather.Latest(ctx, d.pool, g.GameID, asOf)
	if err != nil {
		return gc, fmt.Errorf("load weather for %s: %w", g.GameID, err)
	}
	if forecast != nil && !g.Indoor {
		gc.Weather = forecast
	}

	results, err := d.settled.RecentResults(ctx, d.pool, g.League, team, atsWindow)
	if err != nil {
		return gc, fmt.Errorf("load recent results for %s: %w", team, err)
	}
	// Newest first from the store; the context wants most recent last, and
	// only decided bets count toward the streak.
	for i := len(results) - 1; i >= 0; i-- {
		switch results[i] {
		case domain.BetWin:
			gc.ATSLastFive = append(gc.ATSLastFive, true)
		case domain.BetLoss:
			gc.ATSLastFive = append(gc.ATSLastFive, false)
		}
	}
	return gc, nil
}

// restDays measures days between a team's previous final kickoff and this
// game's kickoff. Teams with no prior final get the standard week of rest.
func (d *Detector) restDays(ctx context.Context, g domain.Game, team string) (int, error) {
	key := cache.Key("rest", g.GameID, team)
	if v, ok := d.analysis.Get(key); ok {
		return v.(int), nil
	}
	prev, err := d.games.PreviousFinal(ctx, d.pool, g.League, team, g.Kickoff)
	if err != nil {
		return 0, fmt.Errorf("load previous game for %s: %w", team, err)
	}
	days := defaultRestDays
	if prev != nil {
		days = int(g.Kickoff.Sub(prev.Kickoff).Hours() / 24)
	}
	d.analysis.Set(key, days)
	return days, nil
}

// seasonLosses maps "team|opponent" for every head-to-head loss already in
// the books this season, marking the rematch a revenge spot for the loser.
func (d *Detector) seasonLosses(ctx context.Context, league domain.League, season, week int) (map[string]bool, error) {
	finals, err := d.games.ListFinalThrough(ctx, d.pool, league, season, week)
	if err != nil {
		return nil, fmt.Errorf("load season finals: %w", err)
	}
	losses := make(map[string]bool)
	for _, g := range finals {
		if g.HomeScore == nil || g.AwayScore == nil || *g.HomeScore == *g.AwayScore {
			continue
		}
		if *g.HomeScore > *g.AwayScore {
			losses[g.AwayTeam+"|"+g.HomeTeam] = true
		} else {
			losses[g.HomeTeam+"|"+g.AwayTeam] = true
		}
	}
	return losses, nil
}

func (d *Detector) teamDivisions(ctx context.Context, league domain.League, season int) (map[string]string, error) {
	key := cache.Key("divisions", league, season)
	if v, ok := d.analysis.Get(key); ok {
		return v.(map[string]string), nil
	}
	teams, err := d.teams.ListByLeague(ctx, d.pool, league, season)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	divisions := make(map[string]string, len(teams))
	for _, t := range teams {
		divisions[t.TeamID] = t.Division
	}
	d.analysis.Set(key, divisions)
	return divisions, nil
}

// medianSpread is the consensus home spread across the latest capture per
// book. The median shrugs off one book hanging a stale or off-market number.
func medianSpread(lines []domain.Odds) float64 {
	vals := make([]float64, len(lines))
	for i, o := range lines {
		vals[i] = o.HomeSpread
	}
	return median(vals)
}

func medianTotal(lines []domain.Odds) float64 {
	vals := make([]float64, len(lines))
	for i, o := range lines {
		vals[i] = o.Total
	}
	return median(vals)
}

func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
