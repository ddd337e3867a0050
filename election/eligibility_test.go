// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"testing"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/models"
)

func testElection(mode string) models.Election {
	return models.Election{
		ID:              "e1",
		StartingTime:    start,
		EndingTime:      end,
		EligibilityMode: mode,
		Quorum:          3,
		TotalGuardians:  5,
	}
}

func TestDecide(t *testing.T) {
	active := start.Add(time.Hour)
	human := models.BotVerdict{}
	voter := []string{models.RoleVoter}

	tests := []struct {
		name     string
		mode     string
		roles    []string
		hasVoted bool
		verdict  models.BotVerdict
		now      time.Time
		eligible bool
		reason   Reason
		phase    Phase
	}{
		{"listed voter", models.EligibilityListed, voter, false, human, active, true, ReasonNone, PhaseActive},
		{"unlisted anyone", models.EligibilityUnlisted, nil, false, human, active, true, ReasonNone, PhaseActive},
		{"listed non-voter", models.EligibilityListed, []string{models.RoleGuardian}, false, human, active, false, ReasonNotOnVoterList, PhaseActive},
		{"bot beats everything", models.EligibilityListed, voter, true, models.BotVerdict{IsBot: true, Pending: true}, end.Add(time.Hour), false, ReasonBotDetected, PhaseEnded},
		{"pending check", models.EligibilityListed, voter, false, models.BotVerdict{Pending: true}, active, false, ReasonSecurityCheckPending, PhaseActive},
		{"upcoming", models.EligibilityListed, voter, false, human, start.Add(-time.Hour), false, ReasonElectionNotActive, PhaseUpcoming},
		{"ended beats already voted", models.EligibilityListed, voter, true, human, end.Add(time.Second), false, ReasonElectionNotActive, PhaseEnded},
		{"already voted", models.EligibilityListed, voter, true, human, active, false, ReasonAlreadyVoted, PhaseActive},
		{"failed check fails open", models.EligibilityListed, voter, false, models.BotVerdict{CheckFailed: true}, active, true, ReasonNone, PhaseActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(testElection(tt.mode), tt.roles, tt.hasVoted, tt.verdict, tt.now)
			if d.Eligible != tt.eligible {
				t.Errorf("Expected eligible=%v, got %v", tt.eligible, d.Eligible)
			}
			if d.Reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, d.Reason)
			}
			if d.Phase != tt.phase {
				t.Errorf("Expected phase %s, got %s", tt.phase, d.Phase)
			}
			if d.Message == "" {
				t.Error("Expected a human-readable message")
			}
		})
	}
}

// hasVoted during the active window wins over every role/mode combination.
func TestDecideAlreadyVotedIgnoresRoles(t *testing.T) {
	active := start.Add(time.Hour)
	roleSets := [][]string{
		nil,
		{models.RoleVoter},
		{models.RoleAdmin},
		{models.RoleGuardian, models.RoleVoter},
	}

	for _, mode := range []string{models.EligibilityListed, models.EligibilityUnlisted} {
		for _, roles := range roleSets {
			d := Decide(testElection(mode), roles, true, models.BotVerdict{}, active)
			if d.Reason != ReasonAlreadyVoted {
				t.Errorf("mode=%s roles=%v: expected %q, got %q", mode, roles, ReasonAlreadyVoted, d.Reason)
			}
		}
	}
}

func TestDecisionErr(t *testing.T) {
	active := start.Add(time.Hour)

	ok := Decide(testElection(models.EligibilityUnlisted), nil, false, models.BotVerdict{}, active)
	if err := ok.Err(); err != nil {
		t.Errorf("Expected nil error for eligible decision, got %v", err)
	}

	blocked := Decide(testElection(models.EligibilityListed), nil, false, models.BotVerdict{}, active)
	err := blocked.Err()
	if apperr.Classify(err) != apperr.UserBlocking {
		t.Errorf("Expected user_blocking class, got %s", apperr.Classify(err))
	}
	if apperr.ReasonOf(err) != string(ReasonNotOnVoterList) {
		t.Errorf("Expected reason %q, got %q", ReasonNotOnVoterList, apperr.ReasonOf(err))
	}
}
