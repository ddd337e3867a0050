// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/models"
)

// Epoch is the fixed instant fake clocks start at in tests.
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB opens a fresh in-memory SQLite journal with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    ":memory:",
		DatabaseType:   db.TypeSQLite,
		BackendURL:     "http://backend.test",
		CryptoURL:      "http://backend.test",
		LedgerURL:      "http://backend.test",
		CacheTTL:       5 * time.Minute,
		RequestTimeout: 5 * time.Second,
		EffectWait:     2 * time.Second,
	}
}

// ActiveElection returns an election whose voting window contains Epoch.
func ActiveElection(id string) models.Election {
	return models.Election{
		ID:              id,
		Title:           "Board Election",
		Description:     "Annual board election",
		StartingTime:    Epoch.Add(-time.Hour),
		EndingTime:      Epoch.Add(time.Hour),
		EligibilityMode: models.EligibilityListed,
		Visibility:      models.VisibilityPublic,
		Quorum:          3,
		TotalGuardians:  5,
		UserRoles:       []string{models.RoleVoter},
		Choices: []models.Choice{
			{ID: "c1", Title: "Alice", PartyName: "Blue"},
			{ID: "c2", Title: "Bob", PartyName: "Green"},
		},
	}
}

// EndedElection returns an election that ended before Epoch with the given
// number of guardian submissions.
func EndedElection(id string, submitted int) models.Election {
	e := ActiveElection(id)
	e.StartingTime = Epoch.Add(-3 * time.Hour)
	e.EndingTime = Epoch.Add(-time.Hour)
	e.GuardiansSubmitted = submitted
	return e
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
