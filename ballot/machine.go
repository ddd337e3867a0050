// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/receipt"
)

type State string

const (
	StateIdle        State = "idle"
	StateCreating    State = "creating"
	StateReady       State = "ready"
	StateCasting     State = "casting"
	StateCast        State = "cast"
	StateChallenging State = "challenging"
	StateChallenged  State = "challenged"
	StateError       State = "error"
	StateUnconfirmed State = "unconfirmed"
)

var (
	ErrBotDetected          = apperr.New(apperr.UserBlocking, "bot_detected", "automated activity detected")
	ErrSecurityCheckPending = apperr.New(apperr.UserBlocking, "security_check_pending", "security check still pending, retry shortly")
	ErrChallengedBallot     = apperr.New(apperr.UserBlocking, "challenged_ballot", "a challenged ballot can never be cast")
	ErrAlreadyCast          = apperr.New(apperr.UserBlocking, "already_cast", "ballot already cast")
	ErrNoBallot             = apperr.New(apperr.UserBlocking, "invalid_state", "no encrypted ballot is ready")
	ErrBusy                 = apperr.New(apperr.UserBlocking, "invalid_state", "another ballot operation is in progress")
	ErrCastUnconfirmed      = apperr.New(apperr.Ambiguous, "cast_unconfirmed", "cast may have been recorded; waiting for confirmation")
	ErrEmptyChoice          = apperr.New(apperr.Invalid, "invalid_choice", "a choice is required")
	ErrNotFailed            = apperr.New(apperr.UserBlocking, "invalid_state", "no ballot error to dismiss")
)

// castTimeout bounds a cast once it is handed to the backend. The caller's
// cancellation does not reach it: a half-sent cast must resolve one way or
// the other.
const castTimeout = 30 * time.Second

// Event kinds reported to the EventSink
const (
	EventBotCheckFailed  = "bot_check_failed"
	EventCastUnconfirmed = "cast_unconfirmed"
	EventCastReconciled  = "cast_reconciled"
)

// EventSink receives conditions worth recording outside the log.
type EventSink interface {
	Event(kind, detail string)
}

type ChallengeOutcome struct {
	Verdict        string `json:"verdict"` // match, mismatch or unknown
	ExpectedChoice string `json:"expected_choice"`
	RevealedChoice string `json:"revealed_choice,omitempty"`
	TrackingCode   string `json:"tracking_code"`
}

// Challenge verdicts
const (
	VerdictMatch    = "match"
	VerdictMismatch = "mismatch"
	VerdictUnknown  = "unknown"
)

type Deps struct {
	Crypto backend.Crypto
	Bots   backend.BotDetector
	Clock  clock.Clock
	Events EventSink
}

// Machine is the ballot lifecycle for one session in one election.
// Safe for concurrent use; overlapping operations are rejected with ErrBusy.
type Machine struct {
	mu         sync.Mutex
	electionID string
	deps       Deps

	state     State
	ballot    *models.EncryptedBallot
	choice    models.Choice
	lastErr   string
	challenge *ChallengeOutcome
	receipt   *models.VoteReceipt
}

func NewMachine(electionID string, deps Deps) *Machine {
	if deps.Bots == nil {
		deps.Bots = backend.NoBotDetector{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &Machine{electionID: electionID, deps: deps, state: StateIdle}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Create encrypts choice into a fresh ballot, superseding any ballot that
// is ready, failed or challenged.
func (m *Machine) Create(ctx context.Context, choice models.Choice) error {
	if choice.ID == "" {
		return ErrEmptyChoice
	}

	m.mu.Lock()
	switch m.state {
	case StateIdle, StateReady, StateError, StateChallenged:
	case StateCast:
		m.mu.Unlock()
		return ErrAlreadyCast
	case StateUnconfirmed:
		m.mu.Unlock()
		return ErrCastUnconfirmed
	default:
		m.mu.Unlock()
		return ErrBusy
	}
	m.state = StateCreating
	m.ballot = nil
	m.challenge = nil
	m.lastErr = ""
	m.mu.Unlock()

	if err := m.checkBot(ctx); err != nil {
		m.finish(StateIdle, nil, err.Error())
		return err
	}

	b, err := m.deps.Crypto.CreateEncryptedBallot(ctx, m.electionID, choice.ID)
	if err != nil {
		m.finish(StateError, nil, err.Error())
		return fmt.Errorf("failed to create encrypted ballot: %w", err)
	}
	b.ChosenChoiceID = choice.ID

	m.mu.Lock()
	m.choice = choice
	m.mu.Unlock()
	m.finish(StateReady, &b, "")
	slog.Debug("encrypted ballot ready", "election_id", m.electionID, "tracking_code", b.TrackingCode)
	return nil
}

// Cast submits the ready ballot. On success the ballot is cleared and the
// receipt returned.
func (m *Machine) Cast(ctx context.Context) (models.VoteReceipt, error) {
	m.mu.Lock()
	switch m.state {
	case StateReady:
	case StateChallenged:
		m.mu.Unlock()
		return models.VoteReceipt{}, ErrChallengedBallot
	case StateCast:
		m.mu.Unlock()
		return models.VoteReceipt{}, ErrAlreadyCast
	case StateUnconfirmed:
		m.mu.Unlock()
		return models.VoteReceipt{}, ErrCastUnconfirmed
	case StateCreating, StateCasting, StateChallenging:
		m.mu.Unlock()
		return models.VoteReceipt{}, ErrBusy
	default:
		m.mu.Unlock()
		return models.VoteReceipt{}, ErrNoBallot
	}
	m.state = StateCasting
	b := *m.ballot
	m.mu.Unlock()

	if err := m.checkBot(ctx); err != nil {
		m.finish(StateReady, &b, err.Error())
		return models.VoteReceipt{}, err
	}

	castCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), castTimeout)
	defer cancel()
	res, err := m.deps.Crypto.CastEncryptedBallot(castCtx, m.electionID, b)
	if err != nil {
		if k, ok := backend.KindOf(err); ok && k == backend.KindAmbiguous {
			m.finish(StateUnconfirmed, &b, err.Error())
			m.emit(EventCastUnconfirmed, b.TrackingCode)
			slog.Warn("cast outcome unknown", "election_id", m.electionID, "tracking_code", b.TrackingCode, "error", err)
			return models.VoteReceipt{}, fmt.Errorf("%w: %v", ErrCastUnconfirmed, err)
		}
		m.finish(StateReady, &b, err.Error())
		return models.VoteReceipt{}, fmt.Errorf("failed to cast ballot: %w", err)
	}

	castAt := res.Timestamp
	if castAt.IsZero() {
		castAt = m.deps.Clock.Now()
	}
	r := receipt.New(firstNonEmpty(res.TrackingCode, b.TrackingCode), firstNonEmpty(res.Hash, b.BallotHash), m.electionID, castAt)

	m.mu.Lock()
	m.receipt = &r
	m.mu.Unlock()
	m.finish(StateCast, nil, "")
	slog.Info("ballot cast", "election_id", m.electionID, "tracking_code", r.TrackingCode)
	return r, nil
}

// Challenge spoils the ready ballot by asking the backend to decrypt it and
// comparing the revealed choice with expectedChoice.
func (m *Machine) Challenge(ctx context.Context, expectedChoice string) (ChallengeOutcome, error) {
	if expectedChoice == "" {
		return ChallengeOutcome{}, ErrEmptyChoice
	}

	m.mu.Lock()
	switch m.state {
	case StateReady:
	case StateCast:
		m.mu.Unlock()
		return ChallengeOutcome{}, ErrAlreadyCast
	case StateUnconfirmed:
		m.mu.Unlock()
		return ChallengeOutcome{}, ErrCastUnconfirmed
	case StateCreating, StateCasting, StateChallenging:
		m.mu.Unlock()
		return ChallengeOutcome{}, ErrBusy
	default:
		m.mu.Unlock()
		return ChallengeOutcome{}, ErrNoBallot
	}
	m.state = StateChallenging
	b := *m.ballot
	m.mu.Unlock()

	res, err := m.deps.Crypto.Challenge(ctx, m.electionID, b.CiphertextWithNonce, expectedChoice)
	if err != nil {
		if k, ok := backend.KindOf(err); ok && k == backend.KindAmbiguous {
			// The nonce may have been disclosed, so the ballot is spoiled either way
			out := ChallengeOutcome{Verdict: VerdictUnknown, ExpectedChoice: expectedChoice, TrackingCode: b.TrackingCode}
			m.mu.Lock()
			m.challenge = &out
			m.mu.Unlock()
			m.finish(StateChallenged, nil, err.Error())
			return out, fmt.Errorf("challenge outcome unknown: %w", err)
		}
		m.finish(StateReady, &b, err.Error())
		return ChallengeOutcome{}, fmt.Errorf("failed to challenge ballot: %w", err)
	}

	out := ChallengeOutcome{
		Verdict:        VerdictMismatch,
		ExpectedChoice: expectedChoice,
		RevealedChoice: res.RevealedChoice,
		TrackingCode:   b.TrackingCode,
	}
	matched := res.RevealedChoice == expectedChoice
	if matched {
		out.Verdict = VerdictMatch
	}
	if res.Match != matched {
		slog.Warn("challenge match flag disagrees with revealed choice",
			"election_id", m.electionID, "tracking_code", b.TrackingCode, "backend_match", res.Match, "revealed", res.RevealedChoice)
	}

	m.mu.Lock()
	m.challenge = &out
	m.mu.Unlock()
	m.finish(StateChallenged, nil, "")
	slog.Info("ballot challenged", "election_id", m.electionID, "verdict", out.Verdict)
	return out, nil
}

// Reconcile resolves an unconfirmed cast using the backend's hasVoted flag.
// It reports whether the state changed.
func (m *Machine) Reconcile(hasVoted bool) bool {
	m.mu.Lock()
	if m.state != StateUnconfirmed || m.ballot == nil {
		m.mu.Unlock()
		return false
	}

	b := m.ballot
	if hasVoted {
		r := receipt.New(b.TrackingCode, b.BallotHash, m.electionID, m.deps.Clock.Now())
		m.receipt = &r
		m.state = StateCast
		m.ballot = nil
	} else {
		m.state = StateReady
	}
	m.lastErr = ""
	m.mu.Unlock()

	m.emit(EventCastReconciled, fmt.Sprintf("%s voted=%t", b.TrackingCode, hasVoted))
	return true
}

// RestoreUnconfirmed puts an idle machine into Unconfirmed for a cast that
// was left ambiguous by an earlier process. The plaintext choice is not
// persisted, so a restored ballot that returns to Ready can only be
// challenged with an explicit expected choice.
func (m *Machine) RestoreUnconfirmed(b models.EncryptedBallot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return false
	}
	m.state = StateUnconfirmed
	m.ballot = &b
	return true
}

// Dismiss acknowledges a creation error and returns the machine to Idle.
func (m *Machine) Dismiss() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateError {
		return ErrNotFailed
	}
	m.state = StateIdle
	m.lastErr = ""
	return nil
}

// PendingBallot returns the ballot awaiting cast confirmation.
func (m *Machine) PendingBallot() (models.EncryptedBallot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnconfirmed || m.ballot == nil {
		return models.EncryptedBallot{}, false
	}
	return *m.ballot, true
}

// checkBot asks for a fresh verdict. Provider failures fail open.
func (m *Machine) checkBot(ctx context.Context) error {
	v, err := m.deps.Bots.Detect(ctx)
	if err != nil {
		slog.Warn("bot check failed, allowing request", "election_id", m.electionID, "error", err)
		m.emit(EventBotCheckFailed, err.Error())
		return nil
	}
	if v.IsBot {
		slog.Info("bot detected", "election_id", m.electionID, "request_id", v.RequestID)
		return ErrBotDetected
	}
	if v.Pending {
		return ErrSecurityCheckPending
	}
	return nil
}

func (m *Machine) finish(state State, b *models.EncryptedBallot, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.ballot = b
	m.lastErr = errMsg
}

func (m *Machine) emit(kind, detail string) {
	if m.deps.Events != nil {
		m.deps.Events.Event(kind, detail)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
