// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election holds the pure decision procedures for a single election.

# Phase

Classify maps a wall-clock instant onto the election window:

	now < start        → PhaseUpcoming
	start ≤ now ≤ end  → PhaseActive
	now > end          → PhaseEnded

Callers pass a fresh clock reading at every decision point; phases are
never cached.

# Eligibility

Decide applies the voting gate in a fixed order, first match wins:

 1. bot verdict says bot        → ReasonBotDetected
 2. bot verdict still pending   → ReasonSecurityCheckPending
 3. phase is not active         → ReasonElectionNotActive
 4. user already voted          → ReasonAlreadyVoted
 5. listed election, not voter  → ReasonNotOnVoterList

# Quorum

QuorumOf derives quorum/completion flags from guardian counts, and Tracker
keeps the submitted count monotonic across observations of the same
election.
*/
package election
