// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orchestrator

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/ballot"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/election"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/results"
)

type EffectState string

const (
	EffectSkipped EffectState = "skipped"
	EffectRunning EffectState = "running"
	EffectDone    EffectState = "done"
	EffectFailed  EffectState = "failed"
)

// On-load effects
const (
	EffectAutoTally   = "auto_tally"
	EffectAutoCombine = "auto_combine"
)

// ElectionView is the rendered state of one election for one session.
type ElectionView struct {
	Election       models.Election        `json:"election"`
	Phase          election.Phase         `json:"phase"`
	Eligibility    election.Decision      `json:"eligibility"`
	BotCheckFailed bool                   `json:"bot_check_failed,omitempty"`
	Quorum         election.QuorumStatus  `json:"quorum"`
	Countdown      string                 `json:"countdown"`
	Timing         string                 `json:"timing"`
	Progress       float64                `json:"progress"`
	Guardians      []models.Guardian      `json:"guardians,omitempty"`
	CanSubmitKey   bool                   `json:"can_submit_key"`
	CanCombine     bool                   `json:"can_combine"`
	Ballot         ballot.Status          `json:"ballot"`
	Effects        map[string]EffectState `json:"effects"`
	Results        *results.RankedResults `json:"results,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// View shows one election at a time. Every Show starts a new generation;
// work started by an older generation is cancelled and its results dropped.
type View struct {
	s *Session

	mu      sync.Mutex
	gen     uint64
	model   *ElectionView
	verdict models.BotVerdict
	cancel  context.CancelFunc
	ticker  *clock.Ticker
	settled chan struct{}
}

// Show loads electionID into the view and launches its on-load effects.
func (v *View) Show(ctx context.Context, electionID string) (ElectionView, error) {
	gen := v.begin()
	s := v.s

	e, err := s.fetchElection(ctx, electionID)
	if err != nil {
		return ElectionView{}, err
	}
	s.reconcile(ctx, &e)
	verdict := s.checkBots(ctx, e.ID)

	model := &ElectionView{
		Election: e,
		Quorum:   s.o.tracker.Observe(e),
		Effects: map[string]EffectState{
			EffectAutoTally:   EffectSkipped,
			EffectAutoCombine: EffectSkipped,
		},
	}
	if e.HasRole(models.RoleGuardian) || e.HasRole(models.RoleAdmin) {
		s.loadGuardians(ctx, model)
	}
	if res, ok := s.o.combinedFor(e.ID); ok {
		ranked := results.Aggregate(res.Tally, e.ChoiceTitles())
		model.Results = &ranked
	}
	refresh(model, verdict, s.o.deps.Clock.Now())

	planned := planEffects(model)
	for _, name := range planned {
		model.Effects[name] = EffectRunning
	}

	effCtx, cancel := context.WithCancel(context.WithoutCancel(s.withUser(ctx)))
	done := make(chan struct{})

	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		cancel()
		return ElectionView{}, ErrSuperseded
	}
	v.model = model
	v.verdict = verdict
	v.cancel = cancel
	v.ticker = s.o.deps.Clock.NewTicker(time.Second)
	v.settled = done
	ticker := v.ticker
	out := v.snapshotLocked()
	v.mu.Unlock()

	go v.tick(effCtx, gen, ticker)
	go v.runEffects(effCtx, gen, e, planned, done)

	slog.Debug("election shown", "session", s.tag, "election_id", e.ID, "phase", model.Phase, "effects", planned)
	return out, nil
}

// Settle waits until the current generation's effects have finished or ctx
// is done.
func (v *View) Settle(ctx context.Context) error {
	v.mu.Lock()
	done := v.settled
	v.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current view model, if an election is shown.
func (v *View) Snapshot() (ElectionView, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.model == nil {
		return ElectionView{}, false
	}
	return v.snapshotLocked(), true
}

// Close stops the ticker and cancels in-flight effects.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.model = nil
	v.settled = nil
}

func (v *View) begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.model = nil
	v.settled = nil
	return v.gen
}

func (v *View) stopLocked() {
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.ticker != nil {
		v.ticker.Stop()
		v.ticker = nil
	}
}

func (v *View) snapshotLocked() ElectionView {
	out := *v.model
	out.Effects = maps.Clone(v.model.Effects)
	out.Ballot = v.s.machine(out.Election.ID).Snapshot()
	return out
}

// apply runs fn on the model if generation gen is still shown.
func (v *View) apply(gen uint64, fn func(*ElectionView)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != gen || v.model == nil {
		return false
	}
	fn(v.model)
	return true
}

// update runs fn on the model if electionID is shown, then re-derives the
// time-dependent fields.
func (v *View) update(electionID string, fn func(*ElectionView)) {
	now := v.s.o.deps.Clock.Now()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.model == nil || v.model.Election.ID != electionID {
		return
	}
	fn(v.model)
	refresh(v.model, v.verdict, now)
}

func (v *View) tick(ctx context.Context, gen uint64, t *clock.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			now := v.s.o.deps.Clock.Now()
			v.apply(gen, func(m *ElectionView) {
				refresh(m, v.verdict, now)
			})
		}
	}
}

func (v *View) runEffects(ctx context.Context, gen uint64, e models.Election, planned []string, done chan struct{}) {
	defer close(done)

	var wg sync.WaitGroup
	for _, name := range planned {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state := v.runEffect(ctx, gen, e, name)
			v.apply(gen, func(m *ElectionView) { m.Effects[name] = state })
		}()
	}
	wg.Wait()
}

func (v *View) runEffect(ctx context.Context, gen uint64, e models.Election, name string) EffectState {
	s := v.s
	switch name {
	case EffectAutoTally:
		if err := s.o.deps.Elections.CreateTally(ctx, e.ID); err != nil {
			if ctx.Err() != nil {
				return EffectSkipped
			}
			slog.Warn("auto-tally failed", "session", s.tag, "election_id", e.ID, "error", err)
			s.o.record(s.tag, e.ID, db.EventAutoTallyFailed, err.Error())
			return EffectFailed
		}
		v.apply(gen, func(m *ElectionView) { m.Election.HasTally = true })
		return EffectDone

	case EffectAutoCombine:
		res, err := s.o.deps.Crypto.CombinePartialDecryptions(ctx, e.ID)
		if err != nil {
			if ctx.Err() != nil {
				return EffectSkipped
			}
			if backend.IsQuorumNotMet(err) {
				slog.Info("auto-combine rejected, quorum not met", "session", s.tag, "election_id", e.ID)
			} else {
				slog.Warn("auto-combine failed", "session", s.tag, "election_id", e.ID, "error", err)
			}
			s.o.record(s.tag, e.ID, db.EventAutoCombineFailed, err.Error())
			return EffectFailed
		}
		s.o.storeCombined(e.ID, res)
		ranked := results.Aggregate(res.Tally, e.ChoiceTitles())
		v.apply(gen, func(m *ElectionView) { m.Results = &ranked })
		s.o.record(s.tag, e.ID, db.EventAutoCombineDone, "")
		return EffectDone
	}
	return EffectSkipped
}

// planEffects returns the on-load effects whose preconditions hold.
func planEffects(m *ElectionView) []string {
	if m.Phase != election.PhaseEnded {
		return nil
	}
	var planned []string
	if !m.Election.HasTally {
		planned = append(planned, EffectAutoTally)
	}
	if m.Quorum.QuorumMet {
		planned = append(planned, EffectAutoCombine)
	}
	return planned
}

// refresh re-derives everything in m that depends on the current time.
func refresh(m *ElectionView, verdict models.BotVerdict, now time.Time) {
	e := m.Election
	m.Phase = election.Classify(now, e.StartingTime, e.EndingTime)
	m.Eligibility = election.Decide(e, e.UserRoles, e.HasVoted, verdict, now)
	m.BotCheckFailed = verdict.CheckFailed
	m.Countdown = formatCountdown(election.TimeRemaining(now, e.StartingTime, e.EndingTime))
	m.Timing = timingText(m.Phase, e, now)
	m.Progress = election.Progress(now, e.StartingTime, e.EndingTime)
	m.CanCombine = m.Quorum.QuorumMet
	m.UpdatedAt = now
}

func (s *Session) loadGuardians(ctx context.Context, m *ElectionView) {
	guardians, err := s.o.deps.Elections.GetGuardians(s.withUser(ctx), m.Election.ID)
	if err != nil {
		slog.Warn("failed to load guardians", "session", s.tag, "election_id", m.Election.ID, "error", err)
		return
	}
	m.Guardians = guardians
	if g, err := election.RequestingGuardian(guardians); err == nil {
		m.CanSubmitKey = election.CanSubmitKey(g) == nil
	}
}
