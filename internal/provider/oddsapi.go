package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharpline/platform/internal/cache"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/guard"
)

// ── Odds API response types (the-odds-api v4 shape) ──

type oddsEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	CommenceTime string          `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []oddsBookmaker `json:"bookmakers"`
}

type oddsBookmaker struct {
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	LastUpdate string       `json:"last_update"`
	Markets    []oddsMarket `json:"markets"`
}

type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

type oddsOutcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// GameLine is one book's captured line for one game, in source vocabulary
// (team display names, not canonical ids).
type GameLine struct {
	EventID       string
	HomeName      string
	AwayName      string
	Kickoff       time.Time
	Sportsbook    string
	HomeSpread    float64
	AwaySpread    float64
	Total         float64
	HomeMoneyline int
	AwayMoneyline int
	HasSpread     bool
	HasTotal      bool
	Source        string
	CapturedAt    time.Time
}

// sportKey maps a league to its Odds API sport key.
func sportKey(league domain.League) string {
	if league == domain.LeagueNCAAF {
		return "americanfootball_ncaaf"
	}
	return "americanfootball_nfl"
}

// OddsClient fetches spreads, totals, and moneylines across books. Fetches
// are memoized for the short odds TTL, which coalesces retried runs without
// hiding real line movement.
type OddsClient struct {
	client  *guard.Client
	baseURL string
	apiKey  string
	cache   *cache.TTLCache
	logger  *slog.Logger
}

// NewOddsClient builds the adapter on a guarded client.
func NewOddsClient(client *guard.Client, baseURL, apiKey string, logger *slog.Logger) *OddsClient {
	return &OddsClient{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   cache.ForOdds(),
		logger:  logger,
	}
}

// Lines fetches current lines for all upcoming games in the league. One
// GameLine per (event, bookmaker).
func (c *OddsClient) Lines(ctx context.Context, league domain.League) (*Batch[GameLine], error) {
	key := cache.Key("lines", league)
	if v, ok := c.cache.Get(key); ok {
		return v.(*Batch[GameLine]), nil
	}

	url := fmt.Sprintf("%s/v4/sports/%s/odds/?regions=us&markets=h2h,spreads,totals&oddsFormat=american&dateFormat=iso&apiKey=%s",
		c.baseURL, sportKey(league), c.apiKey)

	resp, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	remaining := resp.Header.Get("x-requests-remaining")
	c.logger.Debug("odds api request", "league", league, "remaining", remaining)

	var events []oddsEvent
	if err := json.Unmarshal(resp.Body, &events); err != nil {
		return nil, domain.ErrParse("odds api decode", err)
	}

	batch := &Batch[GameLine]{Source: "oddsapi", CapturedAt: time.Now().UTC(), Verified: true}
	for _, ev := range events {
		lines, err := parseEventLines(ev, batch.CapturedAt)
		if err != nil {
			batch.Errors = append(batch.Errors, fmt.Errorf("event %s: %w", ev.ID, err))
			continue
		}
		batch.Records = append(batch.Records, lines...)
	}
	if len(events) == 0 {
		batch.Verified = false
	}

	c.logger.Info("odds lines fetched",
		"league", league, "events", len(events), "lines", len(batch.Records), "errors", len(batch.Errors))
	c.cache.Set(key, batch)
	return batch, nil
}

// parseEventLines flattens one event into per-book lines.
func parseEventLines(ev oddsEvent, capturedAt time.Time) ([]GameLine, error) {
	kickoff, err := time.Parse(time.RFC3339, ev.CommenceTime)
	if err != nil {
		return nil, domain.ErrParse("commence_time", err)
	}
	if ev.HomeTeam == "" || ev.AwayTeam == "" {
		return nil, domain.ErrParse("event missing team names", nil)
	}

	var lines []GameLine
	for _, bk := range ev.Bookmakers {
		line := GameLine{
			EventID:    ev.ID,
			HomeName:   ev.HomeTeam,
			AwayName:   ev.AwayTeam,
			Kickoff:    kickoff.UTC(),
			Sportsbook: bk.Key,
			Source:     "oddsapi",
			CapturedAt: capturedAt,
		}
		for _, mkt := range bk.Markets {
			for _, out := range mkt.Outcomes {
				switch mkt.Key {
				case "spreads":
					if out.Point == nil {
						continue
					}
					if out.Name == ev.HomeTeam {
						line.HomeSpread = *out.Point
						line.HasSpread = true
					} else if out.Name == ev.AwayTeam {
						line.AwaySpread = *out.Point
					}
				case "totals":
					if out.Point == nil {
						continue
					}
					if out.Name == "Over" {
						line.Total = *out.Point
						line.HasTotal = true
					}
				case "h2h":
					if out.Name == ev.HomeTeam {
						line.HomeMoneyline = out.Price
					} else if out.Name == ev.AwayTeam {
						line.AwayMoneyline = out.Price
					}
				}
			}
		}
		if line.HasSpread || line.HasTotal {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
