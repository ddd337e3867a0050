// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"errors"
	"strings"
	"testing"

	"github.com/danielhkuo/verivote/models"
)

func TestQuorumOf(t *testing.T) {
	tests := []struct {
		submitted, quorum, total int
		quorumMet, allSubmitted  bool
	}{
		{2, 3, 5, false, false},
		{3, 3, 5, true, false},
		{5, 3, 5, true, true},
		{0, 1, 0, false, false},
		{4, 3, 0, true, false},
	}

	for _, tt := range tests {
		s := QuorumOf(tt.submitted, tt.quorum, tt.total)
		if s.QuorumMet != tt.quorumMet {
			t.Errorf("QuorumOf(%d,%d,%d).QuorumMet: expected %v, got %v",
				tt.submitted, tt.quorum, tt.total, tt.quorumMet, s.QuorumMet)
		}
		if s.AllSubmitted != tt.allSubmitted {
			t.Errorf("QuorumOf(%d,%d,%d).AllSubmitted: expected %v, got %v",
				tt.submitted, tt.quorum, tt.total, tt.allSubmitted, s.AllSubmitted)
		}
	}
}

func TestRequireQuorumCarriesCounts(t *testing.T) {
	err := QuorumOf(2, 3, 5).RequireQuorum()
	if !errors.Is(err, ErrQuorumNotMet) {
		t.Fatalf("Expected ErrQuorumNotMet, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 of 3 required guardians submitted") {
		t.Errorf("Expected counts in message, got %q", err.Error())
	}

	if err := QuorumOf(3, 3, 5).RequireQuorum(); err != nil {
		t.Errorf("Expected no error at quorum, got %v", err)
	}
}

func TestCanSubmitKey(t *testing.T) {
	if err := CanSubmitKey(models.Guardian{SequenceOrder: 1}); err != nil {
		t.Errorf("Expected fresh guardian to be allowed, got %v", err)
	}
	err := CanSubmitKey(models.Guardian{SequenceOrder: 2, SubmittedKey: true})
	if !errors.Is(err, ErrKeyAlreadySubmitted) {
		t.Errorf("Expected ErrKeyAlreadySubmitted, got %v", err)
	}
}

func TestRequestingGuardian(t *testing.T) {
	guardians := []models.Guardian{
		{UserID: "a", SequenceOrder: 1},
		{UserID: "b", SequenceOrder: 2, IsRequestingUser: true},
	}
	g, err := RequestingGuardian(guardians)
	if err != nil {
		t.Fatal(err)
	}
	if g.UserID != "b" {
		t.Errorf("Expected guardian b, got %s", g.UserID)
	}

	if _, err := RequestingGuardian(guardians[:1]); !errors.Is(err, ErrNotGuardian) {
		t.Errorf("Expected ErrNotGuardian, got %v", err)
	}
}

func TestTrackerMonotonic(t *testing.T) {
	tr := NewTracker()
	e := models.Election{ID: "e1", Quorum: 3, TotalGuardians: 5}

	e.GuardiansSubmitted = 3
	if s := tr.Observe(e); !s.QuorumMet {
		t.Fatal("Expected quorum at 3 submissions")
	}

	// A stale read reporting fewer submissions must not regress progress
	e.GuardiansSubmitted = 1
	s := tr.Observe(e)
	if s.Submitted != 3 || !s.QuorumMet {
		t.Errorf("Expected submitted to stay at 3 with quorum, got %+v", s)
	}

	e.GuardiansSubmitted = 5
	if s := tr.Observe(e); !s.AllSubmitted {
		t.Errorf("Expected all submitted, got %+v", s)
	}
	e.GuardiansSubmitted = 2
	if s := tr.Observe(e); s.Submitted != 5 {
		t.Errorf("Expected 5 recorded, got %d", s.Submitted)
	}
}
