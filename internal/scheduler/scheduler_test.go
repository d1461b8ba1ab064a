package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sharpline/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	mu         sync.Mutex
	collects   int
	detects    [][2]int
	results    [][2]int
	session    *domain.CollectionSession
	collectErr error
	resultsErr error
}

func (f *fakePipeline) Collect(ctx context.Context, league domain.League) (*domain.CollectionSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collects++
	return f.session, f.collectErr
}

func (f *fakePipeline) DetectEdges(ctx context.Context, league domain.League, season, week int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detects = append(f.detects, [2]int{season, week})
	return nil
}

func (f *fakePipeline) CheckResults(ctx context.Context, league domain.League, season, week int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, [2]int{season, week})
	return f.resultsErr
}

func testScheduler(p Pipeline) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(
		[]domain.League{domain.LeagueNFL},
		p,
		map[domain.League]int{domain.LeagueNFL: 2025},
		func(domain.League, time.Time) int { return 3 },
		logger,
	)
}

func TestEvaluate_FiresOncePerWindow(t *testing.T) {
	s := testScheduler(&fakePipeline{})
	// Tuesday 08:xx UTC hits the NFL collect trigger.
	s.now = func() time.Time { return time.Date(2025, 9, 9, 8, 15, 0, 0, time.UTC) }

	q := make(chan job, queueDepth)
	queues := map[domain.League]chan job{domain.LeagueNFL: q}

	s.evaluate(queues)
	s.evaluate(queues)

	require.Len(t, q, 1, "same window must enqueue exactly once")
	j := <-q
	assert.Equal(t, jobCollect, j.kind)
	assert.Equal(t, "nfl|collect|2025090908", j.window)
}

func TestEvaluate_NewWindowFiresAgain(t *testing.T) {
	s := testScheduler(&fakePipeline{})
	q := make(chan job, queueDepth)
	queues := map[domain.League]chan job{domain.LeagueNFL: q}

	s.now = func() time.Time { return time.Date(2025, 9, 9, 8, 15, 0, 0, time.UTC) }
	s.evaluate(queues)
	// Next week, same slot.
	s.now = func() time.Time { return time.Date(2025, 9, 16, 8, 15, 0, 0, time.UTC) }
	s.evaluate(queues)

	assert.Len(t, q, 2)
}

func TestEvaluate_OffHoursEnqueueNothing(t *testing.T) {
	s := testScheduler(&fakePipeline{})
	// Wednesday noon matches no trigger.
	s.now = func() time.Time { return time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC) }

	q := make(chan job, queueDepth)
	s.evaluate(map[domain.League]chan job{domain.LeagueNFL: q})
	assert.Empty(t, q)
}

func TestEvaluate_FullQueueDropsTrigger(t *testing.T) {
	s := testScheduler(&fakePipeline{})
	q := make(chan job, queueDepth)
	for i := 0; i < queueDepth; i++ {
		q <- job{}
	}

	s.now = func() time.Time { return time.Date(2025, 9, 9, 8, 15, 0, 0, time.UTC) }
	s.evaluate(map[domain.League]chan job{domain.LeagueNFL: q})
	assert.Len(t, q, queueDepth, "overflow must drop, not block")
}

func TestExecute_CleanCollectTriggersEdgeDetection(t *testing.T) {
	p := &fakePipeline{session: &domain.CollectionSession{
		Status: domain.SessionOK, Season: 2025, Week: 3,
	}}
	s := testScheduler(p)

	s.execute(context.Background(), job{kind: jobCollect, league: domain.LeagueNFL})

	assert.Equal(t, 1, p.collects)
	require.Len(t, p.detects, 1)
	assert.Equal(t, [2]int{2025, 3}, p.detects[0])
}

func TestExecute_DegradedCollectSkipsEdgeDetection(t *testing.T) {
	p := &fakePipeline{session: &domain.CollectionSession{
		Status: domain.SessionDegraded, Season: 2025, Week: 3,
	}}
	s := testScheduler(p)

	s.execute(context.Background(), job{kind: jobCollect, league: domain.LeagueNFL})

	assert.Equal(t, 1, p.collects)
	assert.Empty(t, p.detects)
}

func TestExecute_ResultsUsesCurrentWeek(t *testing.T) {
	p := &fakePipeline{}
	s := testScheduler(p)

	s.execute(context.Background(), job{kind: jobResults, league: domain.LeagueNFL})

	require.Len(t, p.results, 1)
	assert.Equal(t, [2]int{2025, 3}, p.results[0])
}

func TestExecute_ResultsSkipsAfterSeason(t *testing.T) {
	p := &fakePipeline{}
	s := testScheduler(p)
	s.weekOf = func(domain.League, time.Time) int { return 0 }

	s.execute(context.Background(), job{kind: jobResults, league: domain.LeagueNFL})
	assert.Empty(t, p.results)
}

func TestExecute_ResultsToleratesNoFinals(t *testing.T) {
	p := &fakePipeline{resultsErr: domain.ErrDataUnavailable("no finals")}
	s := testScheduler(p)

	s.execute(context.Background(), job{kind: jobResults, league: domain.LeagueNFL})
	assert.Len(t, p.results, 1)
}
