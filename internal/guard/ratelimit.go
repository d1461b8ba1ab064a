package guard

import (
	"context"
	"sync"
	"time"
)

// DefaultMinInterval is the default gap between successive requests of one
// source client.
const DefaultMinInterval = 500 * time.Millisecond

// RateLimiter enforces a minimum interval between successive requests. It
// records the timestamp of the last admitted request and sleeps callers until
// the interval has elapsed. Safe for concurrent use; concurrent callers are
// serialized onto the interval grid.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewRateLimiter creates an interval gate. A non-positive interval disables
// the gate.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until the caller may issue a request or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.interval <= 0 {
		return ctx.Err()
	}

	rl.mu.Lock()
	now := time.Now()
	slot := rl.next
	if slot.Before(now) {
		slot = now
	}
	rl.next = slot.Add(rl.interval)
	rl.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
