// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"testing"
)

func TestElectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		quorum  int
		total   int
		wantErr bool
	}{
		{"quorum within total", 3, 5, false},
		{"quorum equals total", 5, 5, false},
		{"single guardian", 1, 1, false},
		{"zero quorum", 0, 5, true},
		{"no guardians", 0, 0, true},
		{"quorum above total", 6, 5, true},
		{"negative quorum", -1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Election{ID: "e1", Quorum: tt.quorum, TotalGuardians: tt.total}.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidQuorum) {
				t.Errorf("Expected ErrInvalidQuorum, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}
