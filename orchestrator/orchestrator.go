// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/cache"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/election"
	"github.com/danielhkuo/verivote/results"
)

// DefaultEffectWait bounds how long a page load waits for on-load effects
// before rendering.
const DefaultEffectWait = 2 * time.Second

// DefaultSessionIdle is how long an unused session is kept.
const DefaultSessionIdle = 30 * time.Minute

var (
	ErrUnknownSession      = apperr.New(apperr.UserBlocking, "unauthorized", "unknown or expired session")
	ErrMissingUserToken    = apperr.New(apperr.Invalid, "missing_token", "a backend user token is required")
	ErrElectionNotFound    = apperr.New(apperr.UserBlocking, "not_found", "election not found or not accessible")
	ErrInvalidChoice       = apperr.New(apperr.Invalid, "invalid_choice", "choice is not on this ballot")
	ErrNoReceipt           = apperr.New(apperr.UserBlocking, "not_found", "no ballot has been cast in this election from this session")
	ErrResultsPending      = apperr.New(apperr.UserBlocking, "not_found", "results have not been published yet")
	ErrMissingCredentials  = apperr.New(apperr.Invalid, "invalid_credentials", "guardian credentials are required")
	ErrMissingTrackingCode = apperr.New(apperr.Invalid, "invalid_tracking_code", "a tracking code is required")
	ErrSuperseded          = apperr.New(apperr.UserBlocking, "invalid_state", "view was replaced by a newer request")
	ErrInvalidElection     = apperr.New(apperr.Fatal, "invalid_election", "election has an invalid guardian quorum")
	ErrExpectedChoice      = apperr.New(apperr.Invalid, "expected_choice_required", "this ballot has no recorded choice; name the expected choice")
)

type Config struct {
	CacheTTL   time.Duration
	EffectWait time.Duration
	// SessionIdle is how long a session survives without a lookup before
	// the reaper closes its view and forgets it.
	SessionIdle time.Duration
	// SessionSalt keys the tags that identify users in logs and the
	// journal. Keep it stable to reconcile casts across restarts.
	SessionSalt string
}

type Deps struct {
	Crypto    backend.Crypto
	Elections backend.Elections
	Bots      backend.BotDetector
	Ledger    backend.Ledger
	Journal   *db.Journal // optional
	Clock     clock.Clock
}

type Orchestrator struct {
	deps     Deps
	cfg      Config
	tracker  *election.Tracker
	verifier *results.Verifier

	mu       sync.Mutex
	sessions map[string]*Session
	combined map[string]backend.CombineResult
}

func New(deps Deps, cfg Config) *Orchestrator {
	if deps.Bots == nil {
		deps.Bots = backend.NoBotDetector{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.EffectWait <= 0 {
		cfg.EffectWait = DefaultEffectWait
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = DefaultSessionIdle
	}
	return &Orchestrator{
		deps:     deps,
		cfg:      cfg,
		tracker:  election.NewTracker(),
		verifier: results.NewVerifier(deps.Ledger),
		sessions: make(map[string]*Session),
		combined: make(map[string]backend.CombineResult),
	}
}

func (o *Orchestrator) EffectWait() time.Duration { return o.cfg.EffectWait }

// CreateSession registers a session for the holder of userToken and returns
// its session token.
func (o *Orchestrator) CreateSession(userToken string) (string, error) {
	userToken = strings.TrimSpace(userToken)
	if userToken == "" {
		return "", ErrMissingUserToken
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", err
	}
	s := newSession(o, userToken)

	o.mu.Lock()
	s.lastSeen = o.deps.Clock.Now()
	o.sessions[token] = s
	o.mu.Unlock()

	slog.Info("session created", "session", s.tag)
	return token, nil
}

// Session looks up a session by token and marks it as in use.
func (o *Orchestrator) Session(token string) (*Session, error) {
	if err := auth.ValidateSessionToken(token); err != nil {
		return nil, ErrUnknownSession
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[token]
	if !ok {
		return nil, ErrUnknownSession
	}
	s.lastSeen = o.deps.Clock.Now()
	return s, nil
}

// EndSession closes the session's view and forgets the token.
func (o *Orchestrator) EndSession(token string) {
	o.mu.Lock()
	s, ok := o.sessions[token]
	delete(o.sessions, token)
	o.mu.Unlock()

	if ok {
		s.view.Close()
		slog.Info("session ended", "session", s.tag)
	}
}

// ReapIdle ends every session not looked up within SessionIdle and returns
// how many were dropped.
func (o *Orchestrator) ReapIdle() int {
	now := o.deps.Clock.Now()

	o.mu.Lock()
	var idle []*Session
	for token, s := range o.sessions {
		if now.Sub(s.lastSeen) >= o.cfg.SessionIdle {
			idle = append(idle, s)
			delete(o.sessions, token)
		}
	}
	o.mu.Unlock()

	for _, s := range idle {
		s.view.Close()
		slog.Info("idle session expired", "session", s.tag)
	}
	return len(idle)
}

// RunReaper calls ReapIdle on a clock ticker until ctx is done.
func (o *Orchestrator) RunReaper(ctx context.Context) {
	interval := o.cfg.SessionIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := o.deps.Clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.ReapIdle(); n > 0 {
				slog.Debug("reaped idle sessions", "count", n)
			}
		}
	}
}

// Close stops every view's ticker and in-flight effects.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	sessions := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.mu.Unlock()

	for _, s := range sessions {
		s.view.Close()
	}
}

func (o *Orchestrator) storeCombined(electionID string, res backend.CombineResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.combined[electionID] = res
}

func (o *Orchestrator) combinedFor(electionID string) (backend.CombineResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, ok := o.combined[electionID]
	return res, ok
}

// record appends a journal event. Journal failures are logged only.
func (o *Orchestrator) record(tag, electionID, kind, detail string) {
	if o.deps.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.deps.Journal.Record(ctx, tag, electionID, kind, detail); err != nil {
		slog.Error("failed to record event", "kind", kind, "election_id", electionID, "error", err)
	}
}
