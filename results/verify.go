// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/models"
)

type Outcome string

const (
	OutcomeVerified  Outcome = "verified"
	OutcomeCorrupted Outcome = "corrupted"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeError     Outcome = "error"
)

var errNotArray = errors.New("ballot list is not a JSON array")

// Verification sources
const (
	SourceLocal  = "local"
	SourceLedger = "ledger"
)

// Message returns a voter-facing explanation of o.
func (o Outcome) Message() string {
	switch o {
	case OutcomeVerified:
		return "Your ballot was found in the tally and its hash matches your receipt"
	case OutcomeCorrupted:
		return "A ballot with this tracking code exists but its hash does not match your receipt"
	case OutcomeNotFound:
		return "No ballot with this tracking code was found in the tally"
	}
	return "Verification could not be performed on the available data"
}

// Verify classifies (trackingCode, hash) against records. A nil records
// slice means the ballot list is missing and yields OutcomeError; an empty
// non-nil slice yields OutcomeNotFound.
func Verify(trackingCode, hash string, records []models.BallotTallyRecord) Outcome {
	trackingCode = strings.TrimSpace(trackingCode)
	hash = strings.TrimSpace(hash)
	if records == nil || trackingCode == "" || hash == "" {
		return OutcomeError
	}

	rec, ok := Dedupe(records)[trackingCode]
	if !ok {
		return OutcomeNotFound
	}
	return matchRecord(hash, rec)
}

// VerifyRaw is Verify over a JSON ballot list as received from a backend.
// Anything that is not a JSON array of records is OutcomeError.
func VerifyRaw(trackingCode, hash string, raw json.RawMessage) Outcome {
	records, err := DecodeRecords(raw)
	if err != nil {
		return OutcomeError
	}
	return Verify(trackingCode, hash, records)
}

// DecodeRecords parses a JSON array of tally records. A missing or
// non-array payload is an error.
func DecodeRecords(raw json.RawMessage) ([]models.BallotTallyRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}
	records := []models.BallotTallyRecord{}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Dedupe indexes records by ballot id; the first record for an id wins.
func Dedupe(records []models.BallotTallyRecord) map[string]models.BallotTallyRecord {
	index := make(map[string]models.BallotTallyRecord, len(records))
	for _, r := range records {
		if r.BallotID == "" {
			continue
		}
		if _, dup := index[r.BallotID]; dup {
			continue
		}
		index[r.BallotID] = r
	}
	return index
}

func matchRecord(hash string, rec models.BallotTallyRecord) Outcome {
	if rec.InitialHash != "" && hash == rec.InitialHash {
		return OutcomeVerified
	}
	if rec.DecryptedHash != nil && *rec.DecryptedHash != "" && hash == *rec.DecryptedHash {
		return OutcomeVerified
	}
	return OutcomeCorrupted
}

// Verifier checks receipts locally when the ballot list is at hand and
// falls back to the ledger otherwise.
type Verifier struct {
	ledger backend.Ledger
}

func NewVerifier(ledger backend.Ledger) *Verifier {
	return &Verifier{ledger: ledger}
}

// Check returns the outcome and which source produced it. local may be nil
// when the ballot list is not available client-side.
func (v *Verifier) Check(ctx context.Context, electionID, trackingCode, hash string, local []models.BallotTallyRecord) (Outcome, string) {
	if local != nil {
		return Verify(trackingCode, hash, local), SourceLocal
	}

	if strings.TrimSpace(trackingCode) == "" || strings.TrimSpace(hash) == "" {
		return OutcomeError, SourceLedger
	}

	res, err := v.ledger.VerifyBallot(ctx, electionID, strings.TrimSpace(trackingCode))
	if err != nil {
		slog.Warn("remote ballot verification failed", "election_id", electionID, "error", err)
		return OutcomeError, SourceLedger
	}
	if !res.Success || res.Data == nil {
		return OutcomeNotFound, SourceLedger
	}
	if res.Data.BallotID != "" && res.Data.BallotID != strings.TrimSpace(trackingCode) {
		return OutcomeNotFound, SourceLedger
	}
	return matchRecord(strings.TrimSpace(hash), *res.Data), SourceLedger
}
