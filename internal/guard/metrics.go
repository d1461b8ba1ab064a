package guard

import "sync/atomic"

// Metrics holds per-client request counters, safe for concurrent increment.
type Metrics struct {
	requests  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	retries   atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of one client's counters.
type MetricsSnapshot struct {
	Client       string `json:"client"`
	Requests     int64  `json:"requests"`
	Successes    int64  `json:"successes"`
	Failures     int64  `json:"failures"`
	Retries      int64  `json:"retries"`
	BreakerState string `json:"breaker_state"`
}

func (m *Metrics) addRequest() { m.requests.Add(1) }
func (m *Metrics) addSuccess() { m.successes.Add(1) }
func (m *Metrics) addFailure() { m.failures.Add(1) }
func (m *Metrics) addRetry()   { m.retries.Add(1) }
