// Package cache provides process-local TTL memoization for idempotent
// fetches. It is a latency and quota optimization, not a correctness layer;
// nothing here is shared across processes.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Category TTLs.
const (
	TTLWeather  = 1800 * time.Second
	TTLInjuries = 900 * time.Second
	TTLOdds     = 60 * time.Second
	TTLAnalysis = 300 * time.Second
)

type entry struct {
	capturedAt time.Time
	value      any
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Expired int64 `json:"expired"`
	Size    int   `json:"size"`
}

// TTLCache is a keyed in-memory cache with a single TTL per cache instance.
// Eviction is lazy: entries are dropped when read past their TTL.
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	stats   Stats

	now func() time.Time
}

// New creates a cache with the given TTL.
func New(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// ForWeather returns a cache tuned for forecast fetches.
func ForWeather() *TTLCache { return New(TTLWeather) }

// ForInjuries returns a cache tuned for injury-feed fetches.
func ForInjuries() *TTLCache { return New(TTLInjuries) }

// ForOdds returns a cache tuned for odds captures.
func ForOdds() *TTLCache { return New(TTLOdds) }

// ForAnalysis returns a cache for generic analysis intermediates.
func ForAnalysis() *TTLCache { return New(TTLAnalysis) }

// Key builds a cache key from a function name and its serialized arguments.
func Key(fn string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, fn)
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	return strings.Join(parts, "|")
}

// Get returns the cached value if present and fresh.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if c.now().Sub(e.capturedAt) > c.ttl {
		delete(c.entries, key)
		c.stats.Expired++
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return e.value, true
}

// Set stores a value under the key, stamping the capture time.
func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{capturedAt: c.now(), value: value}
}

// Clear drops all entries.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Snapshot returns the current counters and size.
func (c *TTLCache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}
