// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package orchestrator ties the election decision procedures to the backends
for each user session.

An Orchestrator owns the sessions, the guardian quorum tracker, the combined
tallies fetched so far and the local journal. A Session is created for a
user's backend token and owns one ballot state machine per election, a
cached election list, and one View.

# Views

View.Show loads an election and builds an ElectionView: phase, eligibility
from a fresh bot verdict, quorum progress, countdown, guardians and ballot
status. Showing a new election discards everything still in flight for the
previous one. Each Show starts a one-second countdown ticker that never
waits on the network, and launches the on-load effects:

  - auto_tally when the election has ended and has no tally yet
  - auto_combine when the election has ended and guardian quorum is met

Each effect runs at most once per Show. Failures are logged and journaled
but never turn into an error for the view. Results are applied only while
the view still shows the election generation that started them.

# Ambiguous casts

A cast whose outcome is unknown is persisted in the journal and reconciled
against the election's hasVoted flag on the next Show, in this process or a
later one.
*/
package orchestrator
