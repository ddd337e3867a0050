// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/orchestrator"
	"github.com/danielhkuo/verivote/testutil"
)

type testEnv struct {
	o         *orchestrator.Orchestrator
	cfg       cliparse.Config
	crypto    *testutil.FakeCrypto
	elections *testutil.FakeElections
	bots      *testutil.FakeBots
	ledger    *testutil.FakeLedger
	token     string
}

func newTestEnv(t *testing.T, elections ...models.Election) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	clk := clock.Fake(testutil.Epoch)
	cfg := testutil.GetTestConfig()
	env := &testEnv{
		cfg:       cfg,
		crypto:    testutil.NewFakeCrypto(elections[0]),
		elections: testutil.NewFakeElections(elections...),
		bots:      &testutil.FakeBots{},
		ledger:    testutil.NewFakeLedger(),
	}
	env.o = orchestrator.New(orchestrator.Deps{
		Crypto:    env.crypto,
		Elections: env.elections,
		Bots:      env.bots,
		Ledger:    env.ledger,
		Journal:   db.NewJournal(conn, clk),
		Clock:     clk,
	}, orchestrator.Config{
		CacheTTL:    cfg.CacheTTL,
		EffectWait:  cfg.EffectWait,
		SessionSalt: "test-salt",
	})
	t.Cleanup(env.o.Close)

	token, err := env.o.CreateSession("user-token")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	env.token = token
	return env
}

func (e *testEnv) headers() map[string]string {
	return map[string]string{SessionHeader: e.token}
}

// request builds a request carrying the session header and path values.
func (e *testEnv) request(method, path string, body interface{}, pathValues ...string) *http.Request {
	req := testutil.MakeRequest(method, path, body, e.headers())
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t, testutil.ActiveElection("e1"))
	handler := NewElectionHandler(env.o, env.cfg)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"missing header", nil},
		{"malformed token", map[string]string{SessionHeader: "short"}},
		{"unknown token", map[string]string{SessionHeader: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/elections", nil, tt.headers)
			w := httptest.NewRecorder()

			handler.ListElections(w, req)

			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, testutil.ActiveElection("e1"))
	other, err := env.o.CreateSession("other-user")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if other == env.token {
		t.Fatal("Expected distinct session tokens")
	}

	ballots := NewBallotHandler(env.o, env.cfg)
	w := httptest.NewRecorder()
	ballots.CreateBallot(w, env.request("POST", "/elections/e1/ballot", models.CreateBallotRequest{ChoiceID: "c1"}, "id", "e1"))
	testutil.AssertStatus(t, w, http.StatusCreated)

	req := testutil.MakeRequest("GET", "/elections/e1/ballot", nil, map[string]string{SessionHeader: other})
	req.SetPathValue("id", "e1")
	w = httptest.NewRecorder()
	ballots.GetBallot(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var status struct {
		State string `json:"state"`
	}
	testutil.AssertJSON(t, w, &status)
	if status.State != "idle" {
		t.Errorf("Expected other session's ballot to be idle, got %s", status.State)
	}
}
