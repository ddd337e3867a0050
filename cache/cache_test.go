// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/models"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type countingElections struct {
	backend.Elections
	calls int
	err   error
}

func (c *countingElections) GetAllElections(context.Context) ([]models.Election, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []models.Election{{ID: "e1"}, {ID: "e2"}}, nil
}

func TestElectionListCachesWithinTTL(t *testing.T) {
	clk := clock.Fake(epoch)
	src := &countingElections{}
	list := NewElectionList(src, 5*time.Minute, clk)
	ctx := context.Background()

	first, err := list.All(ctx)
	if err != nil {
		t.Fatal(err)
	}

	clk.Advance(4*time.Minute + 59*time.Second)
	second, err := list.All(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if src.calls != 1 {
		t.Errorf("Expected 1 fetch within TTL, got %d", src.calls)
	}
	if &first[0] != &second[0] {
		t.Error("Expected the identical cached slice")
	}
}

func TestElectionListRefetchesAfterTTL(t *testing.T) {
	clk := clock.Fake(epoch)
	src := &countingElections{}
	list := NewElectionList(src, 5*time.Minute, clk)
	ctx := context.Background()

	if _, err := list.All(ctx); err != nil {
		t.Fatal(err)
	}

	clk.Advance(5 * time.Minute)
	if _, err := list.All(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := list.All(ctx); err != nil {
		t.Fatal(err)
	}

	if src.calls != 2 {
		t.Errorf("Expected exactly one refetch after TTL, got %d total fetches", src.calls)
	}
	fetchedAt, ok := list.FetchedAt()
	if !ok || !fetchedAt.Equal(epoch.Add(5*time.Minute)) {
		t.Errorf("Expected entry stamped at refetch time, got %v (ok=%v)", fetchedAt, ok)
	}
}

func TestElectionListInvalidate(t *testing.T) {
	clk := clock.Fake(epoch)
	src := &countingElections{}
	list := NewElectionList(src, 5*time.Minute, clk)
	ctx := context.Background()

	list.All(ctx)
	list.Invalidate()
	list.All(ctx)

	if src.calls != 2 {
		t.Errorf("Expected refetch after invalidate, got %d fetches", src.calls)
	}
}

func TestElectionListDoesNotCacheErrors(t *testing.T) {
	clk := clock.Fake(epoch)
	src := &countingElections{err: errors.New("backend down")}
	list := NewElectionList(src, 5*time.Minute, clk)
	ctx := context.Background()

	if _, err := list.All(ctx); err == nil {
		t.Fatal("Expected error")
	}
	src.err = nil
	all, err := list.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || src.calls != 2 {
		t.Errorf("Expected a fresh fetch after failure, got %d elections and %d calls", len(all), src.calls)
	}
}

func TestTTLSetReplacesEntry(t *testing.T) {
	clk := clock.Fake(epoch)
	c := NewTTL[string](time.Minute, clk)

	if _, ok := c.Get("k"); ok {
		t.Fatal("Expected empty cache")
	}

	c.Set("k", "v1")
	clk.Advance(30 * time.Second)
	c.Set("k", "v2")
	clk.Advance(45 * time.Second)

	v, ok := c.Get("k")
	if !ok || v != "v2" {
		t.Errorf("Expected v2 still fresh, got %q (ok=%v)", v, ok)
	}
}
