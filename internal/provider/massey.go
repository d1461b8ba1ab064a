package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/guard"
)

// CompositeRating is one team's scalar rating from a Massey-style composite
// feed, in source vocabulary.
type CompositeRating struct {
	TeamName   string
	Rating     float64
	Rank       int
	Source     string
	CapturedAt time.Time
}

type masseyFeedEntry struct {
	Team   string  `json:"team"`
	Rating float64 `json:"rating"`
	Rank   int     `json:"rank"`
}

// MasseyClient ingests a composite power-rating feed producing one scalar per
// team. The feed endpoint is configured; a browser-capture shim may sit in
// front of it for JavaScript-rendered sources.
type MasseyClient struct {
	client  *guard.Client
	feedURL string
	logger  *slog.Logger
}

// NewMasseyClient builds the adapter on a guarded client.
func NewMasseyClient(client *guard.Client, feedURL string, logger *slog.Logger) *MasseyClient {
	return &MasseyClient{client: client, feedURL: feedURL, logger: logger}
}

// Ratings fetches the composite table for the league and verifies team
// coverage against the league's expected team count.
func (c *MasseyClient) Ratings(ctx context.Context, league domain.League) (*Batch[CompositeRating], error) {
	if c.feedURL == "" {
		return nil, domain.ErrDataUnavailable("massey feed url not configured")
	}

	resp, err := c.client.Get(ctx, c.feedURL+"?league="+string(league), nil)
	if err != nil {
		return nil, err
	}

	var entries []masseyFeedEntry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, domain.ErrParse("massey feed decode", err)
	}

	batch := &Batch[CompositeRating]{Source: "massey", CapturedAt: time.Now().UTC(), Verified: true}
	for _, e := range entries {
		if e.Team == "" {
			batch.Errors = append(batch.Errors, domain.ErrParse("rating entry missing team", nil))
			continue
		}
		batch.Records = append(batch.Records, CompositeRating{
			TeamName:   e.Team,
			Rating:     e.Rating,
			Rank:       e.Rank,
			Source:     "massey",
			CapturedAt: batch.CapturedAt,
		})
	}

	if len(batch.Records) < expectedTeamCount(league) {
		batch.Verified = false
		c.logger.Warn("massey feed below expected team count",
			"league", league, "teams", len(batch.Records), "expected", expectedTeamCount(league))
	}
	return batch, nil
}
