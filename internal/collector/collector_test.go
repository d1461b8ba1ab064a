package collector

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/guard"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/normalize"
	"github.com/sharpline/platform/internal/provider"
	"github.com/sharpline/platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionWith(runs ...domain.SourceRun) *domain.CollectionSession {
	return &domain.CollectionSession{Sources: runs}
}

func run(src domain.Source, ok bool) domain.SourceRun {
	return domain.SourceRun{Source: src, OK: ok}
}

func TestPostflight(t *testing.T) {
	c := &Collector{}

	cases := []struct {
		name    string
		session *domain.CollectionSession
		want    domain.SessionStatus
	}{
		{
			"all sources clean",
			sessionWith(run(domain.SourcePowerRatings, true), run(domain.SourceOdds, true),
				run(domain.SourceWeather, true)),
			domain.SessionOK,
		},
		{
			"nothing succeeded",
			sessionWith(run(domain.SourcePowerRatings, false), run(domain.SourceOdds, false)),
			domain.SessionFailed,
		},
		{
			"critical source down",
			sessionWith(run(domain.SourcePowerRatings, true), run(domain.SourceOdds, false),
				run(domain.SourceWeather, true)),
			domain.SessionDegraded,
		},
		{
			"optional source down",
			sessionWith(run(domain.SourcePowerRatings, true), run(domain.SourceOdds, true),
				run(domain.SourceWeather, false)),
			domain.SessionDegraded,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.postflight(tc.session))
		})
	}
}

func TestCriticalFailure(t *testing.T) {
	s := sessionWith(run(domain.SourceWeather, false), run(domain.SourceInjuries, false))
	assert.False(t, s.CriticalFailure())

	s = sessionWith(run(domain.SourcePowerRatings, false))
	assert.True(t, s.CriticalFailure())
}

type staticTransport struct{ body string }

func (s *staticTransport) Get(context.Context, string, map[string]string) (*infra.Response, error) {
	return &infra.Response{Status: 200, Header: http.Header{}, Body: []byte(s.body)}, nil
}

func (s *staticTransport) Post(context.Context, string, []byte, map[string]string) (*infra.Response, error) {
	return &infra.Response{Status: 200, Header: http.Header{}, Body: []byte(s.body)}, nil
}

type recordingInjuryRepo struct{ upserts []domain.InjuryReport }

func (r *recordingInjuryRepo) Upsert(_ context.Context, _ repository.DBTX, report domain.InjuryReport) error {
	r.upserts = append(r.upserts, report)
	return nil
}

func (r *recordingInjuryRepo) LatestByTeam(context.Context, repository.DBTX, domain.League, string, time.Time) ([]domain.InjuryReport, error) {
	return nil, nil
}

func injuryTestCollector(t *testing.T, archiveRoot string, repo *recordingInjuryRepo) *Collector {
	t.Helper()
	mappingPath := filepath.Join(t.TempDir(), "teams_nfl.yaml")
	mapping := `league: nfl
teams:
  - team_id: GB
    name: Green Bay Packers
    abbreviation: GB
    aliases:
      espn: Green Bay Packers
`
	require.NoError(t, os.WriteFile(mappingPath, []byte(mapping), 0o644))
	mapper, err := normalize.LoadTeamMapper(filepath.Dir(mappingPath), domain.LeagueNFL, 2025)
	require.NoError(t, err)

	calendar := &normalize.SeasonCalendar{League: domain.LeagueNFL, Season: 2025}
	transport := &staticTransport{body: `{"injuries":[
		{"status":"Out","athlete":{"displayName":"QB One","position":{"abbreviation":"QB"}}}]}`}
	espn := provider.NewESPNClient(
		guard.NewClient("espn", transport, guard.WithMinInterval(0)), "http://espn.test", testLogger())

	return &Collector{
		injuries:   repo,
		espn:       espn,
		normalizer: normalize.New(mapper, calendar, testLogger()),
		mapper:     mapper,
		archive:    NewArchive(archiveRoot, testLogger()),
		logger:     testLogger(),
		now:        time.Now,
	}
}

func TestCollectInjuries_DryRunArchivesWithoutWrites(t *testing.T) {
	root := t.TempDir()
	repo := &recordingInjuryRepo{}
	c := injuryTestCollector(t, root, repo)
	session := &domain.CollectionSession{League: domain.LeagueNFL, Season: 2025, Week: 2}

	res, err := c.collectInjuries(context.Background(), session, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.records)
	assert.Equal(t, "dry run", res.detail)

	// Raw capture lands in the archive even on a dry run; only the database
	// write is skipped.
	entries, err := os.ReadDir(filepath.Join(root, "nfl", "injuries", "2025", "02"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, repo.upserts)
}

func TestCollectInjuries_WetRunUpserts(t *testing.T) {
	root := t.TempDir()
	repo := &recordingInjuryRepo{}
	c := injuryTestCollector(t, root, repo)
	session := &domain.CollectionSession{League: domain.LeagueNFL, Season: 2025, Week: 2}

	res, err := c.collectInjuries(context.Background(), session, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.records)
	require.Len(t, repo.upserts, 1)
	assert.Equal(t, "GB", repo.upserts[0].Team)
	assert.Equal(t, "QB One", repo.upserts[0].PlayerName)
}

func TestArchive_WritesUnderLeagueSourceWeek(t *testing.T) {
	root := t.TempDir()
	a := NewArchive(root, testLogger())
	captured := time.Date(2025, 9, 12, 8, 30, 0, 0, time.UTC)

	a.Write(domain.LeagueNFL, domain.SourceOdds, 2025, 2, captured,
		map[string]any{"lines": 14})

	path := filepath.Join(root, "nfl", "odds", "2025", "02", "20250912T083000Z.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lines": 14`)
}

func TestArchive_EmptyRootDisables(t *testing.T) {
	a := NewArchive("", testLogger())
	// Must be a no-op, not a panic or a write to cwd.
	a.Write(domain.LeagueNFL, domain.SourceOdds, 2025, 2, time.Now(), "payload")
}

func TestArchive_BestEffortOnBadPayload(t *testing.T) {
	root := t.TempDir()
	a := NewArchive(root, testLogger())

	// Channels cannot marshal; the run must survive.
	a.Write(domain.LeagueNFL, domain.SourceOdds, 2025, 2, time.Now(), make(chan int))

	entries, err := os.ReadDir(filepath.Join(root, "nfl", "odds", "2025", "02"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
