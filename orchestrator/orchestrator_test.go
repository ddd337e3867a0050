// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/election"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/testutil"
)

type env struct {
	o         *Orchestrator
	s         *Session
	clk       *clock.FakeClock
	crypto    *testutil.FakeCrypto
	elections *testutil.FakeElections
	bots      *testutil.FakeBots
	ledger    *testutil.FakeLedger
	journal   *db.Journal
}

func newEnv(t *testing.T, elections ...models.Election) *env {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	clk := clock.Fake(testutil.Epoch)
	e := &env{
		clk:       clk,
		crypto:    testutil.NewFakeCrypto(elections[0]),
		elections: testutil.NewFakeElections(elections...),
		bots:      &testutil.FakeBots{},
		ledger:    testutil.NewFakeLedger(),
		journal:   db.NewJournal(conn, clk),
	}
	e.o = New(Deps{
		Crypto:    e.crypto,
		Elections: e.elections,
		Bots:      e.bots,
		Ledger:    e.ledger,
		Journal:   e.journal,
		Clock:     clk,
	}, Config{SessionSalt: "test-salt"})
	t.Cleanup(e.o.Close)

	e.s = e.session(t, "user-token")
	return e
}

func (e *env) session(t *testing.T, userToken string) *Session {
	t.Helper()
	token, err := e.o.CreateSession(userToken)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	s, err := e.o.Session(token)
	if err != nil {
		t.Fatalf("Session lookup failed: %v", err)
	}
	return s
}

func (e *env) count(t *testing.T, electionID, kind string) int {
	t.Helper()
	events, err := e.journal.Events(context.Background(), electionID, 1000)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func settle(t *testing.T, v *View) ElectionView {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := v.Settle(ctx); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	snap, ok := v.Snapshot()
	if !ok {
		t.Fatal("Expected an election to be shown")
	}
	return snap
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionLookup(t *testing.T) {
	env := newEnv(t, testutil.ActiveElection("e1"))

	if _, err := env.o.CreateSession("  "); !errors.Is(err, ErrMissingUserToken) {
		t.Errorf("Expected ErrMissingUserToken, got %v", err)
	}
	if _, err := env.o.Session("not-a-token"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Expected ErrUnknownSession, got %v", err)
	}
	if got := apperr.HTTPStatus(ErrUnknownSession); got != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown session, got %d", got)
	}

	token, _ := env.o.CreateSession("someone")
	env.o.EndSession(token)
	if _, err := env.o.Session(token); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Expected ended session to be unknown, got %v", err)
	}
}

// Ended election, quorum 3 of 5, 3 submitted: the page load tries to combine
// exactly once, and a failure still renders the page.
func TestAutoCombineFailureDoesNotFailView(t *testing.T) {
	env := newEnv(t, testutil.EndedElection("e1", 3))
	env.crypto.CombineErr = &backend.RequestError{Op: "combine", Kind: backend.KindServer, Status: 500}

	view, err := env.s.View().Show(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if view.Phase != election.PhaseEnded || !view.Quorum.QuorumMet {
		t.Fatalf("Expected ended election with quorum, got phase=%s quorum=%+v", view.Phase, view.Quorum)
	}

	snap := settle(t, env.s.View())
	if _, _, _, combines := env.crypto.Counts(); combines != 1 {
		t.Errorf("Expected exactly 1 combine attempt, got %d", combines)
	}
	if snap.Effects[EffectAutoCombine] != EffectFailed {
		t.Errorf("Expected auto_combine failed, got %s", snap.Effects[EffectAutoCombine])
	}
	if snap.Results != nil {
		t.Error("Expected no results after failed combine")
	}
	if got := env.count(t, "e1", db.EventAutoCombineFailed); got != 1 {
		t.Errorf("Expected 1 auto_combine_failed event, got %d", got)
	}

	if snap.Effects[EffectAutoTally] != EffectDone {
		t.Errorf("Expected auto_tally done, got %s", snap.Effects[EffectAutoTally])
	}
	if !snap.Election.HasTally {
		t.Error("Expected tally flag after auto_tally")
	}
}

func TestAutoCombineRendersResults(t *testing.T) {
	e := testutil.EndedElection("e1", 4)
	e.HasTally = true
	env := newEnv(t, e)
	env.crypto.Combined = backend.CombineResult{Tally: models.RawTally{
		Results: map[string]models.ChoiceTally{
			"Alice": {Votes: 3},
			"Bob":   {Votes: 7},
		},
		TotalValidBallots:   10,
		TotalEligibleVoters: 20,
	}}

	if _, err := env.s.View().Show(context.Background(), "e1"); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	snap := settle(t, env.s.View())

	if snap.Effects[EffectAutoTally] != EffectSkipped {
		t.Errorf("Expected auto_tally skipped for tallied election, got %s", snap.Effects[EffectAutoTally])
	}
	if _, _, tallies := env.elections.Calls(); tallies != 0 {
		t.Errorf("Expected no tally request, got %d", tallies)
	}
	if snap.Results == nil {
		t.Fatal("Expected results after auto-combine")
	}
	if len(snap.Results.Winners) != 1 || snap.Results.Winners[0] != "Bob" {
		t.Errorf("Expected Bob to win, got %v", snap.Results.Winners)
	}
	if snap.Results.TurnoutRate != 50 {
		t.Errorf("Expected turnout 50, got %v", snap.Results.TurnoutRate)
	}
	if got := env.count(t, "e1", db.EventAutoCombineDone); got != 1 {
		t.Errorf("Expected 1 auto_combine_done event, got %d", got)
	}

	ranked, err := env.s.Results(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if ranked.TotalVotes != 10 {
		t.Errorf("Expected 10 total votes from cached combine, got %d", ranked.TotalVotes)
	}
}

func TestNoEffectsWithoutPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		election models.Election
	}{
		{"active", testutil.ActiveElection("e1")},
		{"ended below quorum and tallied", func() models.Election {
			e := testutil.EndedElection("e1", 2)
			e.HasTally = true
			return e
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, tt.election)

			if _, err := env.s.View().Show(context.Background(), "e1"); err != nil {
				t.Fatalf("Show failed: %v", err)
			}
			snap := settle(t, env.s.View())

			for name, state := range snap.Effects {
				if state != EffectSkipped {
					t.Errorf("Expected %s skipped, got %s", name, state)
				}
			}
			if _, _, _, combines := env.crypto.Counts(); combines != 0 {
				t.Errorf("Expected no combine attempt, got %d", combines)
			}
		})
	}
}

func TestEachShowRunsEffectsOnce(t *testing.T) {
	e := testutil.EndedElection("e1", 3)
	e.HasTally = true
	env := newEnv(t, e)

	for i := 0; i < 3; i++ {
		if _, err := env.s.View().Show(context.Background(), "e1"); err != nil {
			t.Fatalf("Show failed: %v", err)
		}
		settle(t, env.s.View())
	}
	if _, _, _, combines := env.crypto.Counts(); combines != 3 {
		t.Errorf("Expected one combine per page load, got %d", combines)
	}
}

func TestShowDiscardsPreviousElection(t *testing.T) {
	ended := testutil.EndedElection("e1", 3)
	ended.HasTally = true
	env := newEnv(t, ended, testutil.ActiveElection("e2"))
	env.crypto.CombineGate = make(chan struct{})
	env.crypto.Combined = backend.CombineResult{Tally: models.RawTally{
		Results: map[string]models.ChoiceTally{"Alice": {Votes: 1}},
	}}

	v := env.s.View()
	if _, err := v.Show(context.Background(), "e1"); err != nil {
		t.Fatalf("Show e1 failed: %v", err)
	}
	if _, err := v.Show(context.Background(), "e2"); err != nil {
		t.Fatalf("Show e2 failed: %v", err)
	}
	close(env.crypto.CombineGate)

	snap := settle(t, v)
	if snap.Election.ID != "e2" {
		t.Fatalf("Expected e2 to be shown, got %s", snap.Election.ID)
	}
	if snap.Results != nil {
		t.Error("Expected e1's combine result not to leak into e2's view")
	}
	for name, state := range snap.Effects {
		if state != EffectSkipped {
			t.Errorf("Expected %s skipped for active election, got %s", name, state)
		}
	}
	if got := env.clk.ActiveTickers(); got != 1 {
		t.Errorf("Expected only the current view's ticker to run, got %d", got)
	}
}

func TestShowNotFound(t *testing.T) {
	env := newEnv(t, testutil.ActiveElection("e1"))

	_, err := env.s.View().Show(context.Background(), "missing")
	if !errors.Is(err, ErrElectionNotFound) {
		t.Fatalf("Expected ErrElectionNotFound, got %v", err)
	}
	if apperr.HTTPStatus(err) != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", apperr.HTTPStatus(err))
	}

	env.elections.GetErr = &backend.RequestError{Op: "get election", Kind: backend.KindNetwork}
	_, err = env.s.View().Show(context.Background(), "e1")
	if errors.Is(err, ErrElectionNotFound) || apperr.Classify(err) != apperr.Retryable {
		t.Errorf("Expected retryable transport error distinct from not found, got %v", err)
	}
}

func TestCountdownTicks(t *testing.T) {
	env := newEnv(t, testutil.ActiveElection("e1"))
	v := env.s.View()

	view, err := v.Show(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if view.Countdown != "01:00:00" {
		t.Errorf("Expected countdown 01:00:00, got %s", view.Countdown)
	}
	if view.Timing != "ends 1 hour from now" {
		t.Errorf("Expected timing text, got %q", view.Timing)
	}

	env.clk.Advance(time.Second)
	waitFor(t, func() bool {
		snap, _ := v.Snapshot()
		return snap.Countdown == "00:59:59"
	})

	env.clk.Advance(time.Hour)
	waitFor(t, func() bool {
		snap, _ := v.Snapshot()
		return snap.Phase == election.PhaseEnded
	})
	snap, _ := v.Snapshot()
	if snap.Eligibility.Reason != election.ReasonElectionNotActive {
		t.Errorf("Expected election_not_active after end, got %q", snap.Eligibility.Reason)
	}
}

func TestBotCheckFailureFailsOpen(t *testing.T) {
	env := newEnv(t, testutil.ActiveElection("e1"))
	env.bots.Err = errors.New("provider unavailable")

	view, err := env.s.View().Show(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if !view.Eligibility.Eligible || !view.BotCheckFailed {
		t.Errorf("Expected eligible with failed check flagged, got %+v", view.Eligibility)
	}
	if got := env.count(t, "e1", db.EventBotCheckFailed); got != 1 {
		t.Errorf("Expected 1 bot_check_failed event, got %d", got)
	}
}

func TestBotDetectedInView(t *testing.T) {
	env := newEnv(t, testutil.ActiveElection("e1"))
	env.bots.Default = models.BotVerdict{IsBot: true}

	view, err := env.s.View().Show(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if view.Eligibility.Eligible || view.Eligibility.Reason != election.ReasonBotDetected {
		t.Errorf("Expected bot_detected, got %+v", view.Eligibility)
	}
}

func TestGuardianViewFields(t *testing.T) {
	e := testutil.ActiveElection("e1")
	e.UserRoles = []string{models.RoleGuardian}
	env := newEnv(t, e)
	env.elections.Guardians["e1"] = []models.Guardian{
		{UserID: "g1", SequenceOrder: 1, IsRequestingUser: true},
		{UserID: "g2", SequenceOrder: 2, SubmittedKey: true},
	}

	view, err := env.s.View().Show(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if len(view.Guardians) != 2 || !view.CanSubmitKey {
		t.Errorf("Expected guardians and key submission allowed, got %+v", view)
	}
	if view.CanCombine {
		t.Error("Expected combine unavailable with 0 of 3 keys")
	}
}

// The combine action follows quorum alone, the same rule Combine enforces.
func TestCanCombineFollowsQuorum(t *testing.T) {
	e := testutil.ActiveElection("e1")
	e.GuardiansSubmitted = 3
	env := newEnv(t, e)

	view, err := env.s.View().Show(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if !view.CanCombine {
		t.Error("Expected combine available once quorum is met")
	}
	if view.Effects[EffectAutoCombine] != EffectSkipped {
		t.Errorf("Expected no auto-combine before the election ends, got %s", view.Effects[EffectAutoCombine])
	}
	if _, err := env.s.Combine(context.Background(), "e1"); err != nil {
		t.Errorf("Expected Combine to agree with can_combine, got %v", err)
	}
}

func TestInvalidQuorumRejected(t *testing.T) {
	tests := []struct {
		name      string
		quorum    int
		total     int
		submitted int
	}{
		{"zero quorum", 0, 0, 0},
		{"quorum above total", 6, 5, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testutil.EndedElection("e1", tt.submitted)
			e.Quorum = tt.quorum
			e.TotalGuardians = tt.total
			env := newEnv(t, e)

			_, err := env.s.View().Show(context.Background(), "e1")
			if !errors.Is(err, ErrInvalidElection) {
				t.Fatalf("Expected ErrInvalidElection, got %v", err)
			}
			if got := apperr.ReasonOf(err); got != "invalid_election" {
				t.Errorf("Expected reason invalid_election, got %q", got)
			}
			if _, ok := env.s.View().Snapshot(); ok {
				t.Error("Expected no election shown")
			}
			if _, err := env.s.Combine(context.Background(), "e1"); !errors.Is(err, ErrInvalidElection) {
				t.Errorf("Expected Combine to reject the election, got %v", err)
			}
			if _, _, _, combines := env.crypto.Counts(); combines != 0 {
				t.Errorf("Expected 0 combine calls, got %d", combines)
			}
		})
	}
}

func TestIdleSessionsReaped(t *testing.T) {
	env := newEnv(t, testutil.ActiveElection("e1"))
	ctx := context.Background()

	idleToken, _ := env.o.CreateSession("idle-user")
	busyToken, _ := env.o.CreateSession("busy-user")
	idle, _ := env.o.Session(idleToken)
	if _, err := idle.View().Show(ctx, "e1"); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if got := env.clk.ActiveTickers(); got != 1 {
		t.Fatalf("Expected 1 view ticker, got %d", got)
	}

	env.clk.Advance(20 * time.Minute)
	if _, err := env.o.Session(busyToken); err != nil {
		t.Fatalf("Session lookup failed: %v", err)
	}
	env.clk.Advance(15 * time.Minute)

	// env.s was last looked up at the start too
	if got := env.o.ReapIdle(); got != 2 {
		t.Errorf("Expected 2 idle sessions reaped, got %d", got)
	}
	if got := env.clk.ActiveTickers(); got != 0 {
		t.Errorf("Expected reaped view's ticker stopped, got %d active", got)
	}
	if _, ok := idle.View().Snapshot(); ok {
		t.Error("Expected reaped view to be closed")
	}
	if _, err := env.o.Session(idleToken); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Expected idle session to be unknown, got %v", err)
	}
	if _, err := env.o.Session(busyToken); err != nil {
		t.Errorf("Expected recently used session to survive, got %v", err)
	}
}

func TestReaperRunsOnClock(t *testing.T) {
	env := newEnv(t, testutil.ActiveElection("e1"))
	token, _ := env.o.CreateSession("someone")
	s, _ := env.o.Session(token)
	if _, err := s.View().Show(context.Background(), "e1"); err != nil {
		t.Fatalf("Show failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.o.RunReaper(ctx)
		close(done)
	}()

	// View ticker plus the reaper's own
	waitFor(t, func() bool { return env.clk.ActiveTickers() == 2 })
	env.clk.Advance(DefaultSessionIdle + time.Minute)
	waitFor(t, func() bool { return env.clk.ActiveTickers() == 1 })

	cancel()
	<-done
	if got := env.clk.ActiveTickers(); got != 0 {
		t.Errorf("Expected reaper ticker stopped, got %d active", got)
	}
	if _, err := env.o.Session(token); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Expected session reaped, got %v", err)
	}
}
