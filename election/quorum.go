// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"sync"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/models"
)

var (
	ErrQuorumNotMet        = apperr.New(apperr.UserBlocking, "quorum_not_met", "quorum not met")
	ErrKeyAlreadySubmitted = apperr.New(apperr.UserBlocking, "key_already_submitted", "guardian key already submitted")
	ErrNotGuardian         = apperr.New(apperr.UserBlocking, "not_guardian", "user is not a guardian of this election")
)

type QuorumStatus struct {
	QuorumMet    bool   `json:"quorum_met"`
	AllSubmitted bool   `json:"all_submitted"`
	Submitted    int    `json:"submitted"`
	Required     int    `json:"required"`
	Total        int    `json:"total"`
	Message      string `json:"message"`
}

// QuorumOf derives the quorum flags. QuorumMet does not depend on total.
func QuorumOf(submitted, quorum, total int) QuorumStatus {
	s := QuorumStatus{
		QuorumMet:    submitted >= quorum,
		AllSubmitted: total > 0 && submitted >= total,
		Submitted:    submitted,
		Required:     quorum,
		Total:        total,
	}

	switch {
	case s.AllSubmitted:
		s.Message = fmt.Sprintf("All %d guardians submitted", total)
	case s.QuorumMet:
		s.Message = fmt.Sprintf("%d of %d required guardians submitted; quorum reached", submitted, quorum)
	default:
		s.Message = fmt.Sprintf("%d of %d required guardians submitted", submitted, quorum)
	}
	return s
}

// RequireQuorum returns an error wrapping ErrQuorumNotMet with the counts
// when s does not meet quorum.
func (s QuorumStatus) RequireQuorum() error {
	if s.QuorumMet {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrQuorumNotMet, s.Message)
}

// CanSubmitKey reports whether g may submit a decryption share.
func CanSubmitKey(g models.Guardian) error {
	if g.SubmittedKey {
		return fmt.Errorf("%w: guardian %d", ErrKeyAlreadySubmitted, g.SequenceOrder)
	}
	return nil
}

// RequestingGuardian returns the guardian entry for the requesting user.
func RequestingGuardian(guardians []models.Guardian) (models.Guardian, error) {
	for _, g := range guardians {
		if g.IsRequestingUser {
			return g, nil
		}
	}
	return models.Guardian{}, ErrNotGuardian
}

// Tracker remembers the highest guardian submission count seen per
// election so a stale backend read cannot move progress backwards.
type Tracker struct {
	mu        sync.Mutex
	submitted map[string]int
}

func NewTracker() *Tracker {
	return &Tracker{submitted: make(map[string]int)}
}

// Observe records e.GuardiansSubmitted and returns the quorum status using
// the highest count observed so far.
func (t *Tracker) Observe(e models.Election) QuorumStatus {
	t.mu.Lock()
	n := e.GuardiansSubmitted
	if prev, ok := t.submitted[e.ID]; ok && prev > n {
		n = prev
	}
	t.submitted[e.ID] = n
	t.mu.Unlock()

	return QuorumOf(n, e.Quorum, e.TotalGuardians)
}
