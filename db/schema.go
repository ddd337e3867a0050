// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the journal.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// One statement per entry; the sqlite driver executes only the first
// statement of a multi-statement string in some modes.
var schema = []string{
	// Orchestrator events (bot-check failures, auto-combine attempts, ...)
	`CREATE TABLE IF NOT EXISTS event (
    id TEXT PRIMARY KEY,
    session TEXT NOT NULL,
    election_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_event_election ON event(election_id, kind)`,

	// Casts whose outcome is unknown; at most one per session and election.
	// The plaintext choice is never stored.
	`CREATE TABLE IF NOT EXISTS pending_cast (
    session TEXT NOT NULL,
    election_id TEXT NOT NULL,
    tracking_code TEXT NOT NULL,
    ballot_hash TEXT NOT NULL,
    ciphertext TEXT NOT NULL,
    ciphertext_with_nonce TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    PRIMARY KEY (session, election_id)
)`,
}
