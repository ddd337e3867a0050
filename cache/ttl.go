// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/danielhkuo/verivote/clock"
)

// Entry is a cached value and when it was fetched. Never mutated after Set.
type Entry[T any] struct {
	Value     T
	FetchedAt time.Time
}

type TTL[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]Entry[T]
}

// NewTTL returns an empty cache whose entries expire after ttl.
func NewTTL[T any](ttl time.Duration, clk clock.Clock) *TTL[T] {
	return &TTL[T]{ttl: ttl, clock: clk, entries: make(map[string]Entry[T])}
}

// Get returns the value for key if present and not expired.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.clock.Now().Sub(e.FetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.Value, true
}

// Set replaces the entry for key, stamped with the current time.
func (c *TTL[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry[T]{Value: v, FetchedAt: c.clock.Now()}
}

// Invalidate drops key so the next read fetches.
func (c *TTL[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Peek returns the entry for key regardless of age.
func (c *TTL[T]) Peek(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// GetOrFetch returns the cached value or calls fetch and stores its result.
// Failed fetches are not cached.
func (c *TTL[T]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}
