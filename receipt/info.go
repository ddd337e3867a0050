// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package receipt

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/danielhkuo/verivote/models"
)

// BallotInfo is the exported audit document for one ballot in the tally.
type BallotInfo struct {
	ElectionID   string                    `json:"election_id"`
	TrackingCode string                    `json:"tracking_code"`
	Record       *models.BallotTallyRecord `json:"record,omitempty"`
	Outcome      string                    `json:"outcome"`
	Message      string                    `json:"message"`
	Source       string                    `json:"source"`
	ExportedAt   time.Time                 `json:"exported_at"`
}

func (b BallotInfo) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode ballot info: %w", err)
	}
	return nil
}

func (b BallotInfo) WriteText(w io.Writer) error {
	status, verification, initial, decrypted := "-", "-", "-", "-"
	if b.Record != nil {
		status = b.Record.Status
		verification = b.Record.Verification
		initial = b.Record.InitialHash
		if b.Record.DecryptedHash != nil {
			decrypted = *b.Record.DecryptedHash
		}
	}
	_, err := fmt.Fprintf(w,
		"Ballot info\n\nElection:       %s\nTracking code:  %s\nStatus:         %s\nVerification:   %s\nInitial hash:   %s\nDecrypted hash: %s\nOutcome:        %s (%s)\n%s\nExported at:    %s\n",
		b.ElectionID, b.TrackingCode, status, verification, initial, decrypted,
		b.Outcome, b.Source, b.Message, b.ExportedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write ballot info: %w", err)
	}
	return nil
}
