package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sharpline/platform/internal/cache"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/guard"
)

// ── ESPN response envelope ──

type espnScoreboard struct {
	Events []espnEvent `json:"events"`
	Week   espnWeek    `json:"week"`
	Season espnSeason  `json:"season"`
}

type espnEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Week         espnWeek          `json:"week"`
	Season       espnSeason        `json:"season"`
	Status       espnStatus        `json:"status"`
	Competitions []espnCompetition `json:"competitions"`
}

type espnWeek struct {
	Number int `json:"number"`
}

type espnSeason struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type espnStatus struct {
	Type espnStatusType `json:"type"`
}

type espnStatusType struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Completed bool   `json:"completed"`
}

type espnCompetition struct {
	Venue       *espnVenue       `json:"venue,omitempty"`
	Competitors []espnCompetitor `json:"competitors"`
}

type espnVenue struct {
	FullName string `json:"fullName"`
	Indoor   bool   `json:"indoor"`
}

type espnCompetitor struct {
	ID       string   `json:"id"`
	HomeAway string   `json:"homeAway"`
	Score    string   `json:"score"`
	Team     espnTeam `json:"team"`
}

type espnTeam struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

type espnTeamStatsResponse struct {
	Team  espnTeam `json:"team"`
	Stats []struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	} `json:"statistics"`
}

type espnInjuryResponse struct {
	Injuries []struct {
		Status  string `json:"status"`
		Athlete struct {
			DisplayName string `json:"displayName"`
			Position    struct {
				Abbreviation string `json:"abbreviation"`
			} `json:"position"`
		} `json:"athlete"`
	} `json:"injuries"`
}

// ── Typed adapter records ──

// ScoreboardGame is one parsed scoreboard event, still in source vocabulary.
type ScoreboardGame struct {
	EventID    string
	Season     int
	Week       int
	Kickoff    time.Time
	State      string
	Completed  bool
	Venue      string
	Indoor     bool
	HomeName   string
	HomeAbbr   string
	HomeScore  *int
	AwayName   string
	AwayAbbr   string
	AwayScore  *int
	Source     string
	CapturedAt time.Time
}

// TeamSeasonStats is the per-team aggregate metrics record.
type TeamSeasonStats struct {
	TeamName       string
	TeamAbbr       string
	PointsPerGame  float64
	PointsAllowed  float64
	YardsPerGame   float64
	TurnoverMargin float64
	ThirdDownPct   float64
	Source         string
	CapturedAt     time.Time
}

// TeamInjury is one raw injury entry for a team.
type TeamInjury struct {
	TeamName   string
	PlayerName string
	Position   string
	Status     string
	Source     string
	CapturedAt time.Time
}

// Batch carries adapter output plus per-record parse errors. Adapters swallow
// per-record failures and return partial batches; the orchestrator aggregates.
type Batch[T any] struct {
	Records    []T
	Errors     []error
	Source     string
	CapturedAt time.Time
	// Verified is false when a structural invariant failed (for example the
	// expected team count), even if individual records parsed.
	Verified bool
}

// leagueSlug maps a league to its ESPN URL path segment.
func leagueSlug(league domain.League) string {
	if league == domain.LeagueNCAAF {
		return "college-football"
	}
	return "nfl"
}

// expectedTeamCount is the structural verification threshold per league.
func expectedTeamCount(league domain.League) int {
	if league == domain.LeagueNCAAF {
		return 130
	}
	return 32
}

// ESPNClient fetches scoreboard, team stats, and injury data. Injury fetches
// are memoized for the injury TTL since retries and overlapping runs hit the
// same per-team endpoints.
type ESPNClient struct {
	client   *guard.Client
	baseURL  string
	injuries *cache.TTLCache
	logger   *slog.Logger
}

// NewESPNClient builds the adapter on a guarded client.
func NewESPNClient(client *guard.Client, baseURL string, logger *slog.Logger) *ESPNClient {
	return &ESPNClient{
		client:   client,
		baseURL:  baseURL,
		injuries: cache.ForInjuries(),
		logger:   logger,
	}
}

// Scoreboard fetches one week of games for the league.
func (c *ESPNClient) Scoreboard(ctx context.Context, league domain.League, season, week int) (*Batch[ScoreboardGame], error) {
	url := fmt.Sprintf("%s/%s/scoreboard?dates=%d&seasontype=2&week=%d",
		c.baseURL, leagueSlug(league), season, week)

	resp, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var sb espnScoreboard
	if err := json.Unmarshal(resp.Body, &sb); err != nil {
		return nil, domain.ErrParse("espn scoreboard decode", err)
	}

	batch := &Batch[ScoreboardGame]{Source: "espn", CapturedAt: time.Now().UTC(), Verified: true}
	for _, ev := range sb.Events {
		game, err := parseScoreboardEvent(ev, batch.CapturedAt)
		if err != nil {
			batch.Errors = append(batch.Errors, fmt.Errorf("event %s: %w", ev.ID, err))
			continue
		}
		batch.Records = append(batch.Records, game)
	}
	if len(sb.Events) == 0 {
		batch.Verified = false
	}

	c.logger.Debug("espn scoreboard fetched",
		"league", league, "week", week, "games", len(batch.Records), "errors", len(batch.Errors))
	return batch, nil
}

func parseScoreboardEvent(ev espnEvent, capturedAt time.Time) (ScoreboardGame, error) {
	kickoff, err := time.Parse("2006-01-02T15:04Z", ev.Date)
	if err != nil {
		// ESPN alternates between two date layouts.
		kickoff, err = time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			return ScoreboardGame{}, domain.ErrParse("event date", err)
		}
	}
	if len(ev.Competitions) == 0 {
		return ScoreboardGame{}, domain.ErrParse("event has no competitions", nil)
	}
	comp := ev.Competitions[0]
	if len(comp.Competitors) != 2 {
		return ScoreboardGame{}, domain.ErrParse(
			fmt.Sprintf("expected 2 competitors, got %d", len(comp.Competitors)), nil)
	}

	game := ScoreboardGame{
		EventID:    ev.ID,
		Season:     ev.Season.Year,
		Week:       ev.Week.Number,
		Kickoff:    kickoff.UTC(),
		State:      ev.Status.Type.State,
		Completed:  ev.Status.Type.Completed,
		Source:     "espn",
		CapturedAt: capturedAt,
	}
	if comp.Venue != nil {
		game.Venue = comp.Venue.FullName
		game.Indoor = comp.Venue.Indoor
	}

	for _, competitor := range comp.Competitors {
		var score *int
		if competitor.Score != "" {
			if v, err := strconv.Atoi(competitor.Score); err == nil {
				score = &v
			}
		}
		switch competitor.HomeAway {
		case "home":
			game.HomeName = competitor.Team.DisplayName
			game.HomeAbbr = competitor.Team.Abbreviation
			game.HomeScore = score
		case "away":
			game.AwayName = competitor.Team.DisplayName
			game.AwayAbbr = competitor.Team.Abbreviation
			game.AwayScore = score
		}
	}
	if game.HomeAbbr == "" || game.AwayAbbr == "" {
		return ScoreboardGame{}, domain.ErrParse("missing home or away competitor", nil)
	}
	return game, nil
}

// TeamStats fetches one team's season aggregates.
func (c *ESPNClient) TeamStats(ctx context.Context, league domain.League, teamID string) (*TeamSeasonStats, error) {
	url := fmt.Sprintf("%s/%s/teams/%s/statistics", c.baseURL, leagueSlug(league), teamID)

	resp, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var payload espnTeamStatsResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, domain.ErrParse("espn team stats decode", err)
	}

	stats := &TeamSeasonStats{
		TeamName:   payload.Team.DisplayName,
		TeamAbbr:   payload.Team.Abbreviation,
		Source:     "espn",
		CapturedAt: time.Now().UTC(),
	}
	for _, s := range payload.Stats {
		switch s.Name {
		case "avgPointsFor", "pointsPerGame":
			stats.PointsPerGame = s.Value
		case "avgPointsAgainst", "pointsAllowedPerGame":
			stats.PointsAllowed = s.Value
		case "yardsPerGame", "totalYardsPerGame":
			stats.YardsPerGame = s.Value
		case "turnoverDifferential":
			stats.TurnoverMargin = s.Value
		case "thirdDownConvPct":
			stats.ThirdDownPct = s.Value
		}
	}
	return stats, nil
}

// Injuries fetches one team's injury list.
func (c *ESPNClient) Injuries(ctx context.Context, league domain.League, teamID, teamName string) (*Batch[TeamInjury], error) {
	key := cache.Key("injuries", league, teamID)
	if v, ok := c.injuries.Get(key); ok {
		return v.(*Batch[TeamInjury]), nil
	}

	url := fmt.Sprintf("%s/%s/teams/%s/injuries", c.baseURL, leagueSlug(league), teamID)

	resp, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var payload espnInjuryResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, domain.ErrParse("espn injuries decode", err)
	}

	batch := &Batch[TeamInjury]{Source: "espn", CapturedAt: time.Now().UTC(), Verified: true}
	for _, inj := range payload.Injuries {
		if inj.Athlete.DisplayName == "" {
			batch.Errors = append(batch.Errors, domain.ErrParse("injury entry missing athlete", nil))
			continue
		}
		batch.Records = append(batch.Records, TeamInjury{
			TeamName:   teamName,
			PlayerName: inj.Athlete.DisplayName,
			Position:   inj.Athlete.Position.Abbreviation,
			Status:     inj.Status,
			Source:     "espn",
			CapturedAt: batch.CapturedAt,
		})
	}
	c.injuries.Set(key, batch)
	return batch, nil
}
