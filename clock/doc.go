// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package clock provides an injectable time source.

Everything that gates on wall-clock time (election phase, cache TTL, the
countdown ticker) takes a Clock instead of calling time.Now directly:

	c := clock.Real()
	phase := election.Classify(c.Now(), e.StartingTime, e.EndingTime)

Tests use a FakeClock that only moves when Advance is called:

	c := clock.Fake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Advance(5 * time.Minute)

Tickers created from a FakeClock deliver one tick per elapsed interval
during Advance, dropping ticks when the consumer falls behind (same as
time.Ticker).
*/
package clock
