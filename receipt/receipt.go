// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/danielhkuo/verivote/models"
)

var ErrFingerprintMismatch = errors.New("receipt fingerprint does not match its contents")

// New returns a sealed receipt for a cast ballot.
func New(trackingCode, hash, electionID string, castAt time.Time) models.VoteReceipt {
	r := models.VoteReceipt{
		ID:           uuid.NewString(),
		TrackingCode: trackingCode,
		Hash:         hash,
		ElectionID:   electionID,
		Timestamp:    castAt.UTC().Truncate(time.Millisecond),
	}
	r.Fingerprint = Fingerprint(r)
	return r
}

// Fingerprint is the Keccak-256 digest of r's canonical fields. ID and the
// fingerprint itself are excluded.
func Fingerprint(r models.VoteReceipt) string {
	canonical := strings.Join([]string{
		r.ElectionID,
		r.TrackingCode,
		r.Hash,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
	}, "\n")
	return crypto.Keccak256Hash([]byte(canonical)).Hex()
}

// Check reports whether r's fingerprint matches its contents.
func Check(r models.VoteReceipt) error {
	if r.Fingerprint == "" || Fingerprint(r) != r.Fingerprint {
		return ErrFingerprintMismatch
	}
	return nil
}

func WriteJSON(w io.Writer, r models.VoteReceipt) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	return nil
}

func WriteText(w io.Writer, r models.VoteReceipt) error {
	_, err := fmt.Fprintf(w,
		"Vote receipt\n\nElection:      %s\nTracking code: %s\nBallot hash:   %s\nCast at:       %s\nReceipt ID:    %s\nFingerprint:   %s\n\n"+
			"Keep this receipt. After the tally is published, use the tracking code\nand ballot hash to check that your vote was counted.\n",
		r.ElectionID, r.TrackingCode, r.Hash, r.Timestamp.UTC().Format(time.RFC3339), r.ID, r.Fingerprint)
	if err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// Parse decodes a JSON receipt and checks its fingerprint.
func Parse(rd io.Reader) (models.VoteReceipt, error) {
	var r models.VoteReceipt
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return models.VoteReceipt{}, fmt.Errorf("failed to decode receipt: %w", err)
	}
	if err := Check(r); err != nil {
		return models.VoteReceipt{}, err
	}
	return r, nil
}
