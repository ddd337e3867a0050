// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/models"
)

// FakeCrypto is an in-memory cryptographic backend. Ballots are "encrypted"
// by recording which choice title each nonce ciphertext reveals.
type FakeCrypto struct {
	mu sync.Mutex

	// Choice titles by id, used to answer challenges
	Titles map[string]string

	CreateErr    error
	CastErr      error
	ChallengeErr error
	CombineErr   error
	KeyErr       error

	// RevealOverride, when set, is returned by every challenge (a cheating
	// encrypter).
	RevealOverride string

	// MatchOverride, when set, replaces the match flag of every challenge
	// answer.
	MatchOverride *bool

	Combined backend.CombineResult

	Creates    int
	Casts      int
	Challenges int
	Combines   int
	KeySubmits int

	// Released receives once per Combine call when non-nil, letting tests
	// block inside the call.
	CombineGate chan struct{}

	reveals map[string]string
	next    int
}

func NewFakeCrypto(e models.Election) *FakeCrypto {
	titles := make(map[string]string, len(e.Choices))
	for _, c := range e.Choices {
		titles[c.ID] = c.Title
	}
	return &FakeCrypto{Titles: titles, reveals: make(map[string]string)}
}

func (f *FakeCrypto) CreateEncryptedBallot(_ context.Context, electionID, choiceID string) (models.EncryptedBallot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Creates++
	if f.CreateErr != nil {
		return models.EncryptedBallot{}, f.CreateErr
	}
	f.next++
	nonce := fmt.Sprintf("ctn-%s-%d", choiceID, f.next)
	f.reveals[nonce] = f.Titles[choiceID]
	return models.EncryptedBallot{
		Ciphertext:          fmt.Sprintf("ct-%s-%d", choiceID, f.next),
		CiphertextWithNonce: nonce,
		BallotHash:          fmt.Sprintf("H%d", f.next),
		TrackingCode:        fmt.Sprintf("T%d", f.next),
		ChosenChoiceID:      choiceID,
	}, nil
}

func (f *FakeCrypto) CastEncryptedBallot(_ context.Context, electionID string, b models.EncryptedBallot) (backend.CastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Casts++
	if f.CastErr != nil {
		return backend.CastResult{}, f.CastErr
	}
	return backend.CastResult{TrackingCode: b.TrackingCode, Hash: b.BallotHash}, nil
}

func (f *FakeCrypto) Challenge(_ context.Context, electionID, ciphertextWithNonce, expected string) (backend.ChallengeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Challenges++
	if f.ChallengeErr != nil {
		return backend.ChallengeResult{}, f.ChallengeErr
	}
	revealed := f.reveals[ciphertextWithNonce]
	if f.RevealOverride != "" {
		revealed = f.RevealOverride
	}
	match := revealed == expected
	if f.MatchOverride != nil {
		match = *f.MatchOverride
	}
	return backend.ChallengeResult{Match: match, RevealedChoice: revealed}, nil
}

func (f *FakeCrypto) CombinePartialDecryptions(ctx context.Context, electionID string) (backend.CombineResult, error) {
	f.mu.Lock()
	gate := f.CombineGate
	f.Combines++
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return backend.CombineResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CombineErr != nil {
		return backend.CombineResult{}, f.CombineErr
	}
	return f.Combined, nil
}

func (f *FakeCrypto) SubmitGuardianKey(_ context.Context, electionID, credentials string) (backend.GuardianKeyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.KeySubmits++
	if f.KeyErr != nil {
		return backend.GuardianKeyResult{}, f.KeyErr
	}
	return backend.GuardianKeyResult{Success: true, Message: "Partial decryption submitted"}, nil
}

// Counts returns (creates, casts, challenges, combines) under the lock.
func (f *FakeCrypto) Counts() (creates, casts, challenges, combines int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Creates, f.Casts, f.Challenges, f.Combines
}

// SetCastErr swaps the cast error under the lock.
func (f *FakeCrypto) SetCastErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CastErr = err
}

// FakeElections serves elections from memory.
type FakeElections struct {
	mu sync.Mutex

	Elections map[string]models.Election
	Guardians map[string][]models.Guardian
	Results   map[string]backend.CombineResult

	GetErr    error
	ListErr   error
	TallyErr  error
	GetCalls  int
	ListCalls int
	Tallies   int
}

func NewFakeElections(elections ...models.Election) *FakeElections {
	f := &FakeElections{
		Elections: make(map[string]models.Election),
		Guardians: make(map[string][]models.Guardian),
		Results:   make(map[string]backend.CombineResult),
	}
	for _, e := range elections {
		f.Elections[e.ID] = e
	}
	return f
}

func (f *FakeElections) GetElectionByID(_ context.Context, id string) (*models.Election, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.GetCalls++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	e, ok := f.Elections[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *FakeElections) GetAllElections(context.Context) ([]models.Election, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	all := make([]models.Election, 0, len(f.Elections))
	for _, e := range f.Elections {
		all = append(all, e)
	}
	return all, nil
}

func (f *FakeElections) CreateTally(_ context.Context, electionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Tallies++
	if f.TallyErr != nil {
		return f.TallyErr
	}
	e := f.Elections[electionID]
	e.HasTally = true
	f.Elections[electionID] = e
	return nil
}

func (f *FakeElections) GetResults(_ context.Context, electionID string) (backend.CombineResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res, ok := f.Results[electionID]
	if !ok {
		return backend.CombineResult{}, &backend.RequestError{Op: "get results", Kind: backend.KindNotFound, Status: 404}
	}
	return res, nil
}

func (f *FakeElections) GetGuardians(_ context.Context, electionID string) ([]models.Guardian, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Guardian(nil), f.Guardians[electionID]...), nil
}

// Update replaces an election under the lock.
func (f *FakeElections) Update(e models.Election) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Elections[e.ID] = e
}

// Calls returns (get, list, tally) call counts.
func (f *FakeElections) Calls() (get, list, tallies int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.GetCalls, f.ListCalls, f.Tallies
}

// FakeBots returns queued verdicts in order, then Default.
type FakeBots struct {
	mu       sync.Mutex
	Queue    []models.BotVerdict
	Default  models.BotVerdict
	Err      error
	Detected int
}

func (f *FakeBots) Detect(context.Context) (models.BotVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Detected++
	if f.Err != nil {
		return models.BotVerdict{}, f.Err
	}
	if len(f.Queue) > 0 {
		v := f.Queue[0]
		f.Queue = f.Queue[1:]
		return v, nil
	}
	return f.Default, nil
}

// Calls returns how many verdicts were requested.
func (f *FakeBots) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Detected
}

// FakeLedger serves logs and remote verifications from memory.
type FakeLedger struct {
	mu          sync.Mutex
	Logs        map[string][]models.LogEntry
	Records     map[string]models.BallotTallyRecord
	VerifyCalls int
}

func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		Logs:    make(map[string][]models.LogEntry),
		Records: make(map[string]models.BallotTallyRecord),
	}
}

func (f *FakeLedger) GetLogs(_ context.Context, electionID string) ([]models.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LogEntry{}, f.Logs[electionID]...), nil
}

func (f *FakeLedger) VerifyBallot(_ context.Context, electionID, trackingCode string) (backend.LedgerVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.VerifyCalls++
	rec, ok := f.Records[trackingCode]
	if !ok {
		return backend.LedgerVerification{Success: false, Error: "not found"}, nil
	}
	return backend.LedgerVerification{Success: true, Data: &rec}, nil
}

// RecordsJSON encodes tally records the way the combination step returns them.
func RecordsJSON(records ...models.BallotTallyRecord) json.RawMessage {
	b, _ := json.Marshal(records)
	return b
}
