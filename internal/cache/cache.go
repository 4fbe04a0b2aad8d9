// Package cache provides the in-memory TTL caches shared across requests.
package cache

import (
	"sort"
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Cache is a simple in-memory TTL cache. The zero max means unbounded;
// a bounded cache evicts the oldest 20% of entries before inserting at capacity.
// Entries are never mutated, only replaced or evicted.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
	max   int
}

// New creates an unbounded Cache.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
	}
}

// NewBounded creates a Cache holding at most max entries.
func NewBounded[T any](ttl time.Duration, max int) *Cache[T] {
	c := New[T](ttl)
	c.max = max
	return c
}

// Get returns the value and true if present and fresh.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if time.Since(e.storedAt) >= c.ttl {
		// stale
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set inserts or updates key. Racing writers to the same key are
// last-write-wins, which is fine for idempotent payloads.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.max > 0 && len(c.items) >= c.max {
		if _, exists := c.items[key]; !exists {
			c.evictOldestLocked(c.max / 5)
		}
	}
	c.items[key] = entry[T]{value: value, storedAt: time.Now()}
}

// evictOldestLocked drops the n entries with the oldest storedAt.
func (c *Cache[T]) evictOldestLocked(n int) {
	if n < 1 {
		n = 1
	}
	type aged struct {
		key string
		at  time.Time
	}
	all := make([]aged, 0, len(c.items))
	for k, e := range c.items {
		all = append(all, aged{key: k, at: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.items, a.key)
	}
}

// Size returns the current number of items.
func (c *Cache[T]) Size() int {
	c.mu.RLock()
	sz := len(c.items)
	c.mu.RUnlock()
	return sz
}

// Cleanup removes stale entries. Intended for a periodic background sweep.
func (c *Cache[T]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.items {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.items, k)
		}
	}
}
