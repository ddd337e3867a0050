// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/models"
)

const KeyAllElections = "all-elections"

// DefaultTTL is how long the election list stays fresh.
const DefaultTTL = 5 * time.Minute

// ElectionList caches the result of one GetAllElections call. Callers must
// treat the returned slice as read-only.
type ElectionList struct {
	cache  *TTL[[]models.Election]
	source backend.Elections
}

func NewElectionList(source backend.Elections, ttl time.Duration, clk clock.Clock) *ElectionList {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ElectionList{cache: NewTTL[[]models.Election](ttl, clk), source: source}
}

// All returns every election visible to the user.
func (l *ElectionList) All(ctx context.Context) ([]models.Election, error) {
	return l.cache.GetOrFetch(ctx, KeyAllElections, func(ctx context.Context) ([]models.Election, error) {
		elections, err := l.source.GetAllElections(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch elections: %w", err)
		}
		slog.Debug("election list refreshed", "count", len(elections))
		return elections, nil
	})
}

// Invalidate forces the next All to refetch, e.g. after a vote is cast.
func (l *ElectionList) Invalidate() {
	l.cache.Invalidate(KeyAllElections)
}

// FetchedAt reports when the cached list was fetched, if there is one.
func (l *ElectionList) FetchedAt() (time.Time, bool) {
	e, ok := l.cache.Peek(KeyAllElections)
	return e.FetchedAt, ok
}
