// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr classifies failures so every layer can tell an expected
blocking state from a real fault.

# Classes

  - UserBlocking: expected gating (bot detected, not on voter list,
    election not active, already voted, quorum not met). Shown as an
    informative state, never logged as an application error.
  - Retryable: network or server failure; the action stays available.
  - Ambiguous: the request may have reached the server (a timed-out cast).
    Must not be retried blindly.
  - Invalid: malformed caller input.
  - Fatal: anything unclassified.

Packages declare their sentinels with New so errors.Is keeps working and
Classify can recover the class through any amount of %w wrapping:

	var ErrQuorumNotMet = apperr.New(apperr.UserBlocking, "quorum_not_met", "quorum not met")

	apperr.Classify(fmt.Errorf("combine: %w", ErrQuorumNotMet)) // UserBlocking
*/
package apperr
