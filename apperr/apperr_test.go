// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errTest = New(UserBlocking, "quorum_not_met", "quorum not met")

func TestClassifyThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("combine: %w", fmt.Errorf("2 of 3: %w", errTest))

	if got := Classify(wrapped); got != UserBlocking {
		t.Errorf("Expected UserBlocking, got %s", got)
	}
	if got := ReasonOf(wrapped); got != "quorum_not_met" {
		t.Errorf("Expected reason quorum_not_met, got %q", got)
	}
	if !errors.Is(wrapped, errTest) {
		t.Error("Expected errors.Is to find the sentinel")
	}
}

func TestClassifyUnclassified(t *testing.T) {
	if got := Classify(errors.New("boom")); got != Fatal {
		t.Errorf("Expected Fatal, got %s", got)
	}
	if got := Classify(nil); got != Fatal {
		t.Errorf("Expected Fatal for nil, got %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errTest, http.StatusConflict},
		{Blocked("not_on_voter_list", "nope"), http.StatusForbidden},
		{Blocked("not_found", "missing"), http.StatusNotFound},
		{Blocked("security_check_pending", "wait"), http.StatusServiceUnavailable},
		{New(Retryable, "network", "down"), http.StatusBadGateway},
		{New(Ambiguous, "cast_unconfirmed", "maybe"), http.StatusGatewayTimeout},
		{New(Invalid, "bad_input", "bad"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
