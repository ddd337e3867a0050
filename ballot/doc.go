// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot implements the lifecycle of one encrypted ballot in a voting
session.

# States

	Idle ──Create──▶ Creating ──ok──▶ Ready ──Cast──▶ Casting ──ok──▶ Cast
	                    │               │                │
	                    └──fail──▶ Error│                ├─retryable─▶ Ready
	                                    │                └─ambiguous─▶ Unconfirmed
	                                    └──Challenge──▶ Challenging ──▶ Challenged

Error and Challenged accept a new Create, which supersedes the old
ballot. Cast is terminal. Unconfirmed is resolved only by Reconcile with
the backend's hasVoted flag; it is never retried as a fresh cast.

# Invariants

  - At most one ballot is in progress per Machine.
  - A challenged ballot is never cast. Cast from Challenged fails with
    ErrChallengedBallot before any backend is contacted.
  - Create and Cast each ask the bot detector for a fresh verdict. A
    provider failure fails open and is reported to the EventSink as
    EventBotCheckFailed.
*/
package ballot
