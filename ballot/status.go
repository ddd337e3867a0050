// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import "github.com/danielhkuo/verivote/models"

// Status is an immutable view of a Machine for rendering.
type Status struct {
	State        State               `json:"state"`
	TrackingCode string              `json:"tracking_code,omitempty"`
	BallotHash   string              `json:"ballot_hash,omitempty"`
	ChoiceID     string              `json:"choice_id,omitempty"`
	ChoiceTitle  string              `json:"choice_title,omitempty"`
	Error        string              `json:"error,omitempty"`
	CanCast      bool                `json:"can_cast"`
	CanChallenge bool                `json:"can_challenge"`
	CanCreate    bool                `json:"can_create"`
	Challenge    *ChallengeOutcome   `json:"challenge,omitempty"`
	Receipt      *models.VoteReceipt `json:"receipt,omitempty"`
}

func (m *Machine) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		State:        m.state,
		Error:        m.lastErr,
		CanCast:      m.state == StateReady,
		CanChallenge: m.state == StateReady,
	}
	switch m.state {
	case StateIdle, StateReady, StateError, StateChallenged:
		s.CanCreate = true
	}
	if m.ballot != nil {
		s.TrackingCode = m.ballot.TrackingCode
		s.BallotHash = m.ballot.BallotHash
		s.ChoiceID = m.ballot.ChosenChoiceID
		s.ChoiceTitle = m.choice.Title
	}
	if m.challenge != nil {
		c := *m.challenge
		s.Challenge = &c
	}
	if m.receipt != nil {
		r := *m.receipt
		s.Receipt = &r
	}
	return s
}

// Receipt returns the receipt of a cast ballot.
func (m *Machine) Receipt() (models.VoteReceipt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.receipt == nil {
		return models.VoteReceipt{}, false
	}
	return *m.receipt, true
}
