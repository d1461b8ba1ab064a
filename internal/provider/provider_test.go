package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/guard"
	"github.com/sharpline/platform/internal/infra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTransport struct {
	body string
	gets int
}

func (c *countingTransport) Get(context.Context, string, map[string]string) (*infra.Response, error) {
	c.gets++
	return &infra.Response{Status: 200, Header: http.Header{}, Body: []byte(c.body)}, nil
}

func (c *countingTransport) Post(context.Context, string, []byte, map[string]string) (*infra.Response, error) {
	return &infra.Response{Status: 200, Header: http.Header{}, Body: []byte(c.body)}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func guarded(name string, transport guard.Transport) *guard.Client {
	return guard.NewClient(name, transport, guard.WithMinInterval(0))
}

func TestESPNInjuries_MemoizedPerTeam(t *testing.T) {
	transport := &countingTransport{body: `{"injuries":[
		{"status":"Questionable","athlete":{"displayName":"WR One","position":{"abbreviation":"WR"}}}]}`}
	c := NewESPNClient(guarded("espn", transport), "http://espn.test", testLogger())

	first, err := c.Injuries(context.Background(), domain.LeagueNFL, "GB", "Green Bay Packers")
	require.NoError(t, err)
	require.Len(t, first.Records, 1)
	assert.Equal(t, 1, transport.gets)

	// Same team inside the TTL comes from cache; a different team does not.
	second, err := c.Injuries(context.Background(), domain.LeagueNFL, "GB", "Green Bay Packers")
	require.NoError(t, err)
	assert.Equal(t, 1, transport.gets)
	assert.Equal(t, first, second)

	_, err = c.Injuries(context.Background(), domain.LeagueNFL, "DET", "Detroit Lions")
	require.NoError(t, err)
	assert.Equal(t, 2, transport.gets)
}

func TestOddsLines_MemoizedPerLeague(t *testing.T) {
	transport := &countingTransport{body: `[{"id":"ev1","commence_time":"2025-09-14T17:00:00Z",
		"home_team":"Green Bay Packers","away_team":"Detroit Lions",
		"bookmakers":[{"key":"book_a","markets":[{"key":"spreads","outcomes":[
			{"name":"Green Bay Packers","price":-110,"point":-3.0},
			{"name":"Detroit Lions","price":-110,"point":3.0}]}]}]}]`}
	c := NewOddsClient(guarded("oddsapi", transport), "http://odds.test", "key", testLogger())

	first, err := c.Lines(context.Background(), domain.LeagueNFL)
	require.NoError(t, err)
	require.Len(t, first.Records, 1)
	assert.Equal(t, 1, transport.gets)

	second, err := c.Lines(context.Background(), domain.LeagueNFL)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.gets)
	assert.Equal(t, first, second)

	_, err = c.Lines(context.Background(), domain.LeagueNCAAF)
	require.NoError(t, err)
	assert.Equal(t, 2, transport.gets)
}
