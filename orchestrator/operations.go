// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/ballot"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/election"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/receipt"
	"github.com/danielhkuo/verivote/results"
)

// LogsResponse pairs the public ledger entries with this user's local
// journal events.
type LogsResponse struct {
	Ledger []models.LogEntry `json:"ledger"`
	Local  []db.Event        `json:"local"`
}

const localEventLimit = 50

// CreateBallot encrypts choiceID into a fresh ballot after the eligibility
// gate. The bot verdict is fetched by the ballot machine itself.
func (s *Session) CreateBallot(ctx context.Context, electionID, choiceID string) (ballot.Status, error) {
	e, err := s.fetchElection(ctx, electionID)
	if err != nil {
		return ballot.Status{}, err
	}
	if err := s.gate(e); err != nil {
		return ballot.Status{}, err
	}
	choice, ok := e.ChoiceByID(choiceID)
	if !ok {
		return ballot.Status{}, fmt.Errorf("%w: %q", ErrInvalidChoice, choiceID)
	}

	m := s.machine(e.ID)
	err = m.Create(s.withUser(ctx), choice)
	return m.Snapshot(), err
}

// CastBallot submits the ready ballot. A challenged or missing ballot is
// refused by the machine before any backend is contacted.
func (s *Session) CastBallot(ctx context.Context, electionID string) (models.VoteReceipt, error) {
	m := s.machine(electionID)
	if m.State() == ballot.StateReady {
		e, err := s.fetchElection(ctx, electionID)
		if err != nil {
			return models.VoteReceipt{}, err
		}
		if err := s.gate(e); err != nil {
			return models.VoteReceipt{}, err
		}
	}

	r, err := m.Cast(s.withUser(ctx))
	if err != nil {
		if errors.Is(err, ballot.ErrCastUnconfirmed) {
			s.persistPending(ctx, electionID, m)
		}
		return models.VoteReceipt{}, err
	}

	s.markVoted(electionID)
	s.elections.Invalidate()
	s.view.update(electionID, func(vm *ElectionView) { vm.Election.HasVoted = true })
	return r, nil
}

// ChallengeBallot spoils the ready ballot to audit its encryption. An empty
// expectedChoice means the choice the ballot was created for. A ballot
// restored from an unconfirmed cast has no recorded choice and needs an
// explicit one.
func (s *Session) ChallengeBallot(ctx context.Context, electionID, expectedChoice string) (ballot.ChallengeOutcome, error) {
	m := s.machine(electionID)
	expectedChoice = strings.TrimSpace(expectedChoice)
	if expectedChoice == "" {
		st := m.Snapshot()
		if st.State == ballot.StateReady && st.ChoiceTitle == "" {
			return ballot.ChallengeOutcome{}, ErrExpectedChoice
		}
		expectedChoice = st.ChoiceTitle
	}
	return m.Challenge(s.withUser(ctx), expectedChoice)
}

// DismissBallotError acknowledges a failed ballot creation so the voter can
// start over.
func (s *Session) DismissBallotError(electionID string) (ballot.Status, error) {
	m := s.machine(electionID)
	if err := m.Dismiss(); err != nil {
		return m.Snapshot(), err
	}
	slog.Debug("ballot error dismissed", "session", s.tag, "election_id", electionID)
	return m.Snapshot(), nil
}

// BallotStatus returns the ballot machine's state for electionID.
func (s *Session) BallotStatus(electionID string) ballot.Status {
	return s.machine(electionID).Snapshot()
}

// Combine asks the backend to combine guardian decryption shares. It is
// refused locally until quorum is met.
func (s *Session) Combine(ctx context.Context, electionID string) (results.RankedResults, error) {
	e, err := s.fetchElection(ctx, electionID)
	if err != nil {
		return results.RankedResults{}, err
	}
	q := s.o.tracker.Observe(e)
	if err := q.RequireQuorum(); err != nil {
		slog.Debug("combine refused", "session", s.tag, "election_id", e.ID, "submitted", q.Submitted, "required", q.Required)
		return results.RankedResults{}, err
	}

	res, err := s.o.deps.Crypto.CombinePartialDecryptions(s.withUser(ctx), e.ID)
	if err != nil {
		if backend.IsQuorumNotMet(err) {
			return results.RankedResults{}, fmt.Errorf("%w: backend reports %v", election.ErrQuorumNotMet, err)
		}
		return results.RankedResults{}, fmt.Errorf("failed to combine partial decryptions: %w", err)
	}

	s.o.storeCombined(e.ID, res)
	ranked := results.Aggregate(res.Tally, e.ChoiceTitles())
	s.view.update(e.ID, func(vm *ElectionView) {
		vm.Results = &ranked
		vm.Quorum = q
	})
	slog.Info("partial decryptions combined", "session", s.tag, "election_id", e.ID, "total_votes", ranked.TotalVotes)
	return ranked, nil
}

// SubmitGuardianKey sends the requesting guardian's credentials for partial
// decryption. A guardian may submit once.
func (s *Session) SubmitGuardianKey(ctx context.Context, electionID, credentials string) (models.GuardianKeyResponse, error) {
	if strings.TrimSpace(credentials) == "" {
		return models.GuardianKeyResponse{}, ErrMissingCredentials
	}

	uctx := s.withUser(ctx)
	guardians, err := s.o.deps.Elections.GetGuardians(uctx, electionID)
	if err != nil {
		return models.GuardianKeyResponse{}, fmt.Errorf("failed to load guardians: %w", err)
	}
	g, err := election.RequestingGuardian(guardians)
	if err != nil {
		return models.GuardianKeyResponse{}, err
	}
	if err := election.CanSubmitKey(g); err != nil {
		return models.GuardianKeyResponse{}, err
	}

	res, err := s.o.deps.Crypto.SubmitGuardianKey(uctx, electionID, credentials)
	if err != nil {
		return models.GuardianKeyResponse{}, fmt.Errorf("failed to submit guardian key: %w", err)
	}
	if !res.Success {
		return models.GuardianKeyResponse{}, apperr.New(apperr.Invalid, "key_rejected", res.Message)
	}
	slog.Info("guardian key submitted", "session", s.tag, "election_id", electionID, "sequence", g.SequenceOrder)

	if e, err := s.fetchElection(ctx, electionID); err == nil {
		q := s.o.tracker.Observe(e)
		s.view.update(electionID, func(vm *ElectionView) {
			vm.Quorum = q
			vm.CanSubmitKey = false
		})
	}
	return models.GuardianKeyResponse{Success: true, Message: res.Message}, nil
}

// Verify checks a receipt against the tally, locally when the ballot list
// is available and through the ledger otherwise.
func (s *Session) Verify(ctx context.Context, electionID, trackingCode, hash string) models.VerifyVoteResponse {
	trackingCode = strings.TrimSpace(trackingCode)
	resp := models.VerifyVoteResponse{TrackingCode: trackingCode}

	records, ok, err := s.localRecords(ctx, electionID)
	var outcome results.Outcome
	switch {
	case err != nil:
		slog.Warn("ballot list malformed", "election_id", electionID, "error", err)
		outcome, resp.Source = results.OutcomeError, results.SourceLocal
	case ok:
		outcome, resp.Source = s.o.verifier.Check(ctx, electionID, trackingCode, hash, records)
	default:
		outcome, resp.Source = s.o.verifier.Check(s.withUser(ctx), electionID, trackingCode, hash, nil)
	}

	resp.Outcome = string(outcome)
	resp.Message = outcome.Message()
	slog.Debug("vote verified", "election_id", electionID, "outcome", outcome, "source", resp.Source)
	return resp
}

// Results returns the ranked results of a combined tally.
func (s *Session) Results(ctx context.Context, electionID string) (results.RankedResults, error) {
	e, err := s.fetchElection(ctx, electionID)
	if err != nil {
		return results.RankedResults{}, err
	}
	res, err := s.combined(ctx, e.ID)
	if err != nil {
		return results.RankedResults{}, err
	}
	return results.Aggregate(res.Tally, e.ChoiceTitles()), nil
}

// Logs returns the election's ledger entries and this user's journal events.
func (s *Session) Logs(ctx context.Context, electionID string) (LogsResponse, error) {
	entries, err := s.o.deps.Ledger.GetLogs(s.withUser(ctx), electionID)
	if err != nil {
		return LogsResponse{}, fmt.Errorf("failed to load ledger logs: %w", err)
	}
	resp := LogsResponse{Ledger: entries, Local: []db.Event{}}
	if resp.Ledger == nil {
		resp.Ledger = []models.LogEntry{}
	}

	if j := s.o.deps.Journal; j != nil {
		events, err := j.Events(ctx, electionID, localEventLimit)
		if err != nil {
			slog.Error("failed to load journal events", "election_id", electionID, "error", err)
		}
		for _, ev := range events {
			if ev.Session == s.tag {
				resp.Local = append(resp.Local, ev)
			}
		}
	}
	return resp, nil
}

// Receipt returns the sealed receipt of the ballot cast in electionID.
func (s *Session) Receipt(electionID string) (models.VoteReceipt, error) {
	r, ok := s.machine(electionID).Receipt()
	if !ok {
		return models.VoteReceipt{}, ErrNoReceipt
	}
	return r, nil
}

// BallotInfo exports the tally record for trackingCode with its
// verification outcome.
func (s *Session) BallotInfo(ctx context.Context, electionID, trackingCode string) (receipt.BallotInfo, error) {
	trackingCode = strings.TrimSpace(trackingCode)
	if trackingCode == "" {
		return receipt.BallotInfo{}, ErrMissingTrackingCode
	}

	info := receipt.BallotInfo{
		ElectionID:   electionID,
		TrackingCode: trackingCode,
		ExportedAt:   s.o.deps.Clock.Now(),
	}
	outcome := results.OutcomeNotFound

	records, ok, err := s.localRecords(ctx, electionID)
	switch {
	case err != nil:
		outcome, info.Source = results.OutcomeError, results.SourceLocal
	case ok:
		info.Source = results.SourceLocal
		if rec, found := results.Dedupe(records)[trackingCode]; found {
			info.Record = &rec
		}
	default:
		info.Source = results.SourceLedger
		res, err := s.o.deps.Ledger.VerifyBallot(s.withUser(ctx), electionID, trackingCode)
		if err != nil {
			slog.Warn("ledger ballot lookup failed", "election_id", electionID, "error", err)
			outcome = results.OutcomeError
		} else if res.Success && res.Data != nil {
			info.Record = res.Data
		}
	}

	if info.Record != nil {
		outcome = recordOutcome(*info.Record)
	}
	info.Outcome = string(outcome)
	info.Message = outcome.Message()
	return info, nil
}

// recordOutcome maps the tally's own verification status of a record.
func recordOutcome(rec models.BallotTallyRecord) results.Outcome {
	switch rec.Verification {
	case models.VerificationSuccess:
		return results.OutcomeVerified
	case models.VerificationFailed:
		return results.OutcomeCorrupted
	}
	return results.OutcomeError
}

// gate applies the eligibility rules that do not need a bot verdict.
func (s *Session) gate(e models.Election) error {
	d := election.Decide(e, e.UserRoles, e.HasVoted, models.BotVerdict{}, s.o.deps.Clock.Now())
	if err := d.Err(); err != nil {
		slog.Debug("ballot operation blocked", "session", s.tag, "election_id", e.ID, "reason", d.Reason)
		return err
	}
	return nil
}

// combined returns the combined tally for electionID from memory or the
// published results.
func (s *Session) combined(ctx context.Context, electionID string) (backend.CombineResult, error) {
	if res, ok := s.o.combinedFor(electionID); ok {
		return res, nil
	}
	res, err := s.o.deps.Elections.GetResults(s.withUser(ctx), electionID)
	if err != nil {
		if k, ok := backend.KindOf(err); ok && k == backend.KindNotFound {
			return backend.CombineResult{}, ErrResultsPending
		}
		return backend.CombineResult{}, fmt.Errorf("failed to load results: %w", err)
	}
	s.o.storeCombined(electionID, res)
	return res, nil
}

// localRecords returns the decoded ballot list when one is available
// client-side. ok is false when there is none; err is set when it exists
// but is malformed.
func (s *Session) localRecords(ctx context.Context, electionID string) ([]models.BallotTallyRecord, bool, error) {
	res, err := s.combined(ctx, electionID)
	if err != nil {
		if !errors.Is(err, ErrResultsPending) {
			slog.Warn("results unavailable, falling back to ledger", "election_id", electionID, "error", err)
		}
		return nil, false, nil
	}
	raw := strings.TrimSpace(string(res.Ballots))
	if raw == "" || raw == "null" {
		return nil, false, nil
	}
	records, err := results.DecodeRecords(res.Ballots)
	if err != nil {
		return nil, true, err
	}
	return records, true, nil
}
