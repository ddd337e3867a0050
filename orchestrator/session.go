// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/ballot"
	"github.com/danielhkuo/verivote/cache"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/models"
)

// Session is one user's state: ballot machines, the cached election list
// and the current view.
type Session struct {
	o         *Orchestrator
	tag       string
	userToken string
	elections *cache.ElectionList
	view      *View
	lastSeen  time.Time // guarded by o.mu

	mu       sync.Mutex
	machines map[string]*ballot.Machine
	voted    map[string]bool
}

func newSession(o *Orchestrator, userToken string) *Session {
	s := &Session{
		o:         o,
		tag:       auth.SessionTag(userToken, o.cfg.SessionSalt),
		userToken: userToken,
		elections: cache.NewElectionList(o.deps.Elections, o.cfg.CacheTTL, o.deps.Clock),
		machines:  make(map[string]*ballot.Machine),
		voted:     make(map[string]bool),
	}
	s.view = &View{s: s}
	return s
}

// Tag identifies the user behind the session without revealing the token.
func (s *Session) Tag() string { return s.tag }

func (s *Session) View() *View { return s.view }

func (s *Session) withUser(ctx context.Context) context.Context {
	return backend.WithUserToken(ctx, s.userToken)
}

func (s *Session) machine(electionID string) *ballot.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[electionID]
	if !ok {
		m = ballot.NewMachine(electionID, ballot.Deps{
			Crypto: s.o.deps.Crypto,
			Bots:   s.o.deps.Bots,
			Clock:  s.o.deps.Clock,
			Events: journalSink{s: s, electionID: electionID},
		})
		s.machines[electionID] = m
	}
	return m
}

// journalSink forwards ballot machine events to the journal.
type journalSink struct {
	s          *Session
	electionID string
}

func (j journalSink) Event(kind, detail string) {
	j.s.o.record(j.s.tag, j.electionID, kind, detail)
}

func (s *Session) markVoted(electionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voted[electionID] = true
}

// applyVoted keeps hasVoted true once it has been observed.
func (s *Session) applyVoted(e *models.Election) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voted[e.ID] {
		e.HasVoted = true
	} else if e.HasVoted {
		s.voted[e.ID] = true
	}
}

// fetchElection loads election detail. A missing or invisible election is
// ErrElectionNotFound, distinct from a transport failure. An election whose
// quorum is outside 1..totalGuardians is rejected before any quorum logic
// sees it.
func (s *Session) fetchElection(ctx context.Context, electionID string) (models.Election, error) {
	e, err := s.o.deps.Elections.GetElectionByID(s.withUser(ctx), electionID)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to load election: %w", err)
	}
	if e == nil {
		return models.Election{}, ErrElectionNotFound
	}
	if err := e.Validate(); err != nil {
		slog.Warn("backend returned an invalid election", "election_id", electionID, "error", err)
		return models.Election{}, fmt.Errorf("%w: %v", ErrInvalidElection, err)
	}
	s.applyVoted(e)
	return *e, nil
}

// checkBots asks the detector for a fresh verdict. A provider failure fails
// open and is recorded as such.
func (s *Session) checkBots(ctx context.Context, electionID string) models.BotVerdict {
	v, err := s.o.deps.Bots.Detect(s.withUser(ctx))
	if err != nil {
		slog.Warn("bot check failed, allowing request", "session", s.tag, "election_id", electionID, "error", err)
		s.o.record(s.tag, electionID, db.EventBotCheckFailed, err.Error())
		return models.BotVerdict{CheckFailed: true}
	}
	return v
}

// reconcile resolves an unconfirmed cast against e.HasVoted. A cast left
// ambiguous by an earlier session of the same user is restored first.
func (s *Session) reconcile(ctx context.Context, e *models.Election) {
	m := s.machine(e.ID)
	j := s.o.deps.Journal

	if j != nil && m.State() == ballot.StateIdle {
		b, ok, err := j.PendingCast(ctx, s.tag, e.ID)
		if err != nil {
			slog.Error("failed to load pending cast", "session", s.tag, "election_id", e.ID, "error", err)
		} else if ok {
			m.RestoreUnconfirmed(b)
		}
	}

	if !m.Reconcile(e.HasVoted) {
		return
	}
	slog.Info("unconfirmed cast reconciled", "session", s.tag, "election_id", e.ID, "has_voted", e.HasVoted)
	if m.State() == ballot.StateCast {
		s.markVoted(e.ID)
		s.elections.Invalidate()
	}
	if j != nil {
		if err := j.ClearPendingCast(ctx, s.tag, e.ID); err != nil {
			slog.Error("failed to clear pending cast", "session", s.tag, "election_id", e.ID, "error", err)
		}
	}
}

func (s *Session) persistPending(ctx context.Context, electionID string, m *ballot.Machine) {
	j := s.o.deps.Journal
	if j == nil {
		return
	}
	b, ok := m.PendingBallot()
	if !ok {
		return
	}
	if err := j.SavePendingCast(context.WithoutCancel(ctx), s.tag, electionID, b); err != nil {
		slog.Error("failed to persist pending cast", "session", s.tag, "election_id", electionID, "error", err)
	}
}
