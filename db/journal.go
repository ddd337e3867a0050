// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/models"
)

// Event kinds
const (
	EventBotCheckFailed    = "bot_check_failed"
	EventAutoCombineDone   = "auto_combine_done"
	EventAutoCombineFailed = "auto_combine_failed"
	EventAutoTallyFailed   = "auto_tally_failed"
	EventCastUnconfirmed   = "cast_unconfirmed"
	EventCastReconciled    = "cast_reconciled"
)

type Event struct {
	ID         string    `json:"id"`
	Session    string    `json:"-"`
	ElectionID string    `json:"election_id"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// Journal records orchestrator events and ambiguous casts.
type Journal struct {
	db    *sql.DB
	clock clock.Clock
}

func NewJournal(db *sql.DB, clk clock.Clock) *Journal {
	return &Journal{db: db, clock: clk}
}

// Record appends an event.
func (j *Journal) Record(ctx context.Context, session, electionID, kind, detail string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO event (id, session, election_id, kind, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), session, electionID, kind, detail, j.clock.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Events returns the most recent events for an election, newest first.
func (j *Journal) Events(ctx context.Context, electionID string, limit int) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session, election_id, kind, detail, created_at
		FROM event
		WHERE election_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, electionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Session, &e.ElectionID, &e.Kind, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// SavePendingCast stores a cast whose outcome is unknown, replacing any
// earlier one for the same session and election. Only the ciphertexts and
// their identifiers are kept; b.ChosenChoiceID is dropped.
func (j *Journal) SavePendingCast(ctx context.Context, session, electionID string, b models.EncryptedBallot) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM pending_cast WHERE session = $1 AND election_id = $2
	`, session, electionID); err != nil {
		return fmt.Errorf("failed to clear pending cast: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pending_cast (session, election_id, tracking_code, ballot_hash,
		                          ciphertext, ciphertext_with_nonce, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, session, electionID, b.TrackingCode, b.BallotHash, b.Ciphertext,
		b.CiphertextWithNonce, j.clock.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to save pending cast: %w", err)
	}

	return tx.Commit()
}

// PendingCast returns the unresolved cast for a session and election.
func (j *Journal) PendingCast(ctx context.Context, session, electionID string) (models.EncryptedBallot, bool, error) {
	var b models.EncryptedBallot
	err := j.db.QueryRowContext(ctx, `
		SELECT tracking_code, ballot_hash, ciphertext, ciphertext_with_nonce
		FROM pending_cast
		WHERE session = $1 AND election_id = $2
	`, session, electionID).Scan(&b.TrackingCode, &b.BallotHash, &b.Ciphertext,
		&b.CiphertextWithNonce)

	if err == sql.ErrNoRows {
		return models.EncryptedBallot{}, false, nil
	}
	if err != nil {
		return models.EncryptedBallot{}, false, fmt.Errorf("failed to query pending cast: %w", err)
	}
	return b, true, nil
}

// ClearPendingCast removes the unresolved cast once it is reconciled.
func (j *Journal) ClearPendingCast(ctx context.Context, session, electionID string) error {
	_, err := j.db.ExecContext(ctx, `
		DELETE FROM pending_cast WHERE session = $1 AND election_id = $2
	`, session, electionID)
	if err != nil {
		return fmt.Errorf("failed to clear pending cast: %w", err)
	}
	return nil
}
