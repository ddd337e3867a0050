// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache provides the process-wide election list cache.

TTL is a small generic cache of immutable entries. A refresh replaces the
entry; readers never see an entry mutated in place. ElectionList wraps it
with the single "all elections" key shared by the dashboard, the full list
and search:

	list := cache.NewElectionList(elections, 5*time.Minute, clock.Real())
	all, err := list.All(ctx)

The lock is not held while fetching, so two callers that miss at the same
time may both fetch; the last write wins. The source is idempotent so
this is harmless.
*/
package cache
