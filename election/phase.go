// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "time"

type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseActive   Phase = "active"
	PhaseEnded    Phase = "ended"
)

// Classify returns the phase of the window [start, end] at now.
// Both bounds are inclusive for PhaseActive.
func Classify(now, start, end time.Time) Phase {
	if now.Before(start) {
		return PhaseUpcoming
	}
	if now.After(end) {
		return PhaseEnded
	}
	return PhaseActive
}

// TimeRemaining returns the time until the next phase boundary: until start
// while upcoming, until end while active, zero once ended.
func TimeRemaining(now, start, end time.Time) time.Duration {
	switch Classify(now, start, end) {
	case PhaseUpcoming:
		return start.Sub(now)
	case PhaseActive:
		return end.Sub(now)
	default:
		return 0
	}
}

// Progress returns how far through the voting window now is, in [0, 1].
func Progress(now, start, end time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		if now.Before(start) {
			return 0
		}
		return 1
	}
	switch Classify(now, start, end) {
	case PhaseUpcoming:
		return 0
	case PhaseEnded:
		return 1
	}
	return float64(now.Sub(start)) / float64(total)
}
