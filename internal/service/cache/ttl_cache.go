package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	v         T
	fetchedAt time.Time
}

// TTLCache is a key-value cache with one TTL for all entries. Entries are
// never evicted; staleness is checked lazily on Get against the injected
// clock, and stale values stay reachable through Peek.
type TTLCache[T any] struct {
	mu    sync.RWMutex
	m     map[string]entry[T]
	ttl   time.Duration
	clock Clock
}

// NewTTL creates a cache holding values for ttl. A nil clock means wall time.
func NewTTL[T any](ttl time.Duration, clock Clock) *TTLCache[T] {
	if clock == nil {
		clock = SystemClock()
	}
	return &TTLCache[T]{m: make(map[string]entry[T]), ttl: ttl, clock: clock}
}

// Get returns the value for key if it is still fresh. A value is stale once
// now - fetchedAt >= ttl.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(e.fetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.v, true
}

// Peek returns the value for key regardless of freshness. Used to fall back
// to a stale value when a refresh fails.
func (c *TTLCache[T]) Peek(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	return e.v, true
}

// Set stores v for key stamped with the current clock time.
func (c *TTLCache[T]) Set(key string, v T) {
	c.mu.Lock()
	c.m[key] = entry[T]{v: v, fetchedAt: c.clock.Now()}
	c.mu.Unlock()
}

// Len returns the number of entries, fresh or stale.
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
