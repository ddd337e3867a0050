// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db manages the local journal database.

The journal holds two things the orchestrator must not lose or silently
drop:

  - event: conditions recorded outside the log, such as a bot check that
    failed open or an auto-combine attempt that lost a quorum race
  - pending_cast: casts whose outcome is unknown, so a restarted process
    does not offer a fresh cast that could double-vote

# Drivers

Both SQLite (modernc.org/sqlite, default) and PostgreSQL (lib/pq) are
supported. Queries use $N placeholders, which both accept.

	conn, err := db.Open(db.TypeSQLite, "file:verivote.db")
	err = db.CreateSchema(conn)
	journal := db.NewJournal(conn, clock.Real())

# Schema

	event(id, session, election_id, kind, detail, created_at)
	pending_cast(session, election_id, tracking_code, ballot_hash,
	             ciphertext, ciphertext_with_nonce, created_at)

The plaintext choice of a pending cast is never written.
Timestamps are Unix milliseconds so both drivers scan them identically.
CreateSchema is idempotent.
*/
package db
