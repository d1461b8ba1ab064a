package guard

import (
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

const (
	// DefaultFailThreshold opens the breaker after this many accumulated
	// failures.
	DefaultFailThreshold = 5
	// DefaultResetTimeout is the open window before a half-open probe.
	DefaultResetTimeout = 300 * time.Second
)

// CircuitBreaker guards one source client. Failures accumulate toward the
// threshold; successes decrement the count back toward zero. While open every
// call fails fast until the reset timeout, then a single probe is allowed.
type CircuitBreaker struct {
	mu            sync.Mutex
	state         CircuitState
	failures      int
	openedAt      time.Time
	failThreshold int
	resetTimeout  time.Duration
	probing       bool

	now func() time.Time
}

// NewCircuitBreaker creates a breaker with configurable thresholds.
func NewCircuitBreaker(failThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failThreshold <= 0 {
		failThreshold = DefaultFailThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	return &CircuitBreaker{
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		now:           time.Now,
	}
}

// Allow reports whether a request may proceed. In the open state it permits
// exactly one probe once the reset timeout has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) >= cb.resetTimeout {
			cb.state = CircuitHalfOpen
			cb.probing = true
			return true
		}
		return false
	case CircuitHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return true
	}
}

// RecordSuccess closes a half-open breaker and decrements accumulated
// failures toward zero.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.failures = 0
		cb.probing = false
		return
	}
	if cb.failures > 0 {
		cb.failures--
	}
}

// RecordFailure increments the failure count; reaching the threshold (or
// failing the half-open probe) opens the breaker.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		cb.openedAt = cb.now()
		cb.probing = false
		return
	}

	cb.failures++
	if cb.failures >= cb.failThreshold {
		cb.state = CircuitOpen
		cb.openedAt = cb.now()
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
