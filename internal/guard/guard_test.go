package guard

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/infra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport plays back a scripted sequence of responses and errors,
// counting how many calls actually reach it.
type fakeTransport struct {
	calls     int
	responses []*infra.Response
	errs      []error
}

func (f *fakeTransport) next() (*infra.Response, error) {
	i := f.calls
	f.calls++
	var resp *infra.Response
	var err error
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if resp == nil && err == nil {
		resp = &infra.Response{Status: http.StatusOK, Header: http.Header{}}
	}
	return resp, err
}

func (f *fakeTransport) Get(ctx context.Context, url string, headers map[string]string) (*infra.Response, error) {
	return f.next()
}

func (f *fakeTransport) Post(ctx context.Context, url string, body []byte, headers map[string]string) (*infra.Response, error) {
	return f.next()
}

func response(status int, header http.Header) *infra.Response {
	if header == nil {
		header = http.Header{}
	}
	return &infra.Response{Status: status, Header: header}
}

// fastClient disables real sleeping and rate limiting so retry behavior is
// observable without wall-clock delays.
func fastClient(t *testing.T, transport Transport, opts ...Option) (*Client, *[]time.Duration) {
	t.Helper()
	c := NewClient("test", transport, append([]Option{WithMinInterval(0)}, opts...)...)
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestClient_SuccessFirstAttempt(t *testing.T) {
	ft := &fakeTransport{}
	c, _ := fastClient(t, ft)

	resp, err := c.Get(context.Background(), "http://example.test", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, ft.calls)

	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap.Requests)
	assert.Equal(t, int64(1), snap.Successes)
	assert.Equal(t, int64(0), snap.Retries)
}

func TestClient_RetriesTransientThenSucceeds(t *testing.T) {
	ft := &fakeTransport{
		responses: []*infra.Response{response(500, nil), response(500, nil), response(200, nil)},
	}
	c, slept := fastClient(t, ft)

	resp, err := c.Get(context.Background(), "http://example.test", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 3, ft.calls)
	// Exponential backoff: 1s then 2s.
	require.Len(t, *slept, 2)
	assert.Equal(t, 1*time.Second, (*slept)[0])
	assert.Equal(t, 2*time.Second, (*slept)[1])
	assert.Equal(t, int64(2), c.Snapshot().Retries)
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	ft := &fakeTransport{responses: []*infra.Response{response(404, nil)}}
	c, slept := fastClient(t, ft)

	_, err := c.Get(context.Background(), "http://example.test", nil)
	require.Error(t, err)
	assert.Equal(t, domain.CodeClientError, domain.CodeOf(err))
	assert.Equal(t, 1, ft.calls)
	assert.Empty(t, *slept)
}

func TestClient_Honors429RetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	ft := &fakeTransport{responses: []*infra.Response{response(429, h), response(200, nil)}}
	c, slept := fastClient(t, ft)

	_, err := c.Get(context.Background(), "http://example.test", nil)
	require.NoError(t, err)
	require.Len(t, *slept, 1)
	assert.Equal(t, 7*time.Second, (*slept)[0])
}

func TestClient_ExhaustedRetriesIsTransient(t *testing.T) {
	netErr := errors.New("connection refused")
	ft := &fakeTransport{errs: []error{netErr, netErr, netErr}}
	c, _ := fastClient(t, ft)

	_, err := c.Get(context.Background(), "http://example.test", nil)
	require.Error(t, err)
	assert.Equal(t, domain.CodeTransient, domain.CodeOf(err))
	assert.Equal(t, maxAttempts, ft.calls)
}

func TestClient_BreakerFastFailsWithoutTransport(t *testing.T) {
	netErr := errors.New("connection refused")
	ft := &fakeTransport{
		errs: make([]error, 100),
	}
	for i := range ft.errs {
		ft.errs[i] = netErr
	}
	c, _ := fastClient(t, ft)

	// Five consecutive failed calls trip the breaker.
	for i := 0; i < DefaultFailThreshold; i++ {
		_, err := c.Get(context.Background(), "http://example.test", nil)
		require.Error(t, err)
	}
	reached := ft.calls

	_, err := c.Get(context.Background(), "http://example.test", nil)
	require.Error(t, err)
	assert.Equal(t, domain.CodeBreakerOpen, domain.CodeOf(err))
	assert.Equal(t, reached, ft.calls, "fast-fail must not touch the transport")
	assert.Equal(t, "open", c.Snapshot().BreakerState)
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(5, 300*time.Second)

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
		assert.True(t, cb.Allow(), "still closed after %d failures", i+1)
	}
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenSingleProbe(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, 300*time.Second)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())

	// Reset timeout elapses; exactly one probe is admitted.
	now = now.Add(300 * time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())
	assert.False(t, cb.Allow(), "second caller must wait for the probe verdict")

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, 300*time.Second)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	now = now.Add(300 * time.Second)
	require.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow(), "reopened breaker blocks until the next window")

	now = now.Add(300 * time.Second)
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_SuccessDecrementsFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, 300*time.Second)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	// 2 - 1 + 1 = 2 failures, still under the threshold of 3.
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestRateLimiter_SpacesCalls(t *testing.T) {
	rl := NewRateLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRateLimiter_CanceledContext(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, rl.Wait(ctx))
	cancel()
	assert.Error(t, rl.Wait(ctx))
}
