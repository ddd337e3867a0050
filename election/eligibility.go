// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/models"
)

type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonBotDetected          Reason = "bot_detected"
	ReasonSecurityCheckPending Reason = "security_check_pending"
	ReasonElectionNotActive    Reason = "election_not_active"
	ReasonAlreadyVoted         Reason = "already_voted"
	ReasonNotOnVoterList       Reason = "not_on_voter_list"
)

// Decision is the outcome of the voting gate. Phase is always set so
// callers can message ElectionNotActive precisely.
type Decision struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason,omitempty"`
	Phase    Phase  `json:"phase"`
	Message  string `json:"message"`
}

// Decide evaluates whether the user may vote in e at now.
func Decide(e models.Election, roles []string, hasVoted bool, verdict models.BotVerdict, now time.Time) Decision {
	phase := Classify(now, e.StartingTime, e.EndingTime)

	if verdict.IsBot {
		return Decision{Reason: ReasonBotDetected, Phase: phase,
			Message: "Automated activity detected; voting is blocked for this request"}
	}
	if verdict.Pending {
		return Decision{Reason: ReasonSecurityCheckPending, Phase: phase,
			Message: "Security check in progress, please retry shortly"}
	}
	if phase != PhaseActive {
		return Decision{Reason: ReasonElectionNotActive, Phase: phase, Message: notActiveMessage(phase)}
	}
	if hasVoted {
		return Decision{Reason: ReasonAlreadyVoted, Phase: phase,
			Message: "You have already voted in this election"}
	}

	canVote := e.EligibilityMode == models.EligibilityUnlisted || containsRole(roles, models.RoleVoter)
	if !canVote {
		return Decision{Reason: ReasonNotOnVoterList, Phase: phase,
			Message: "You are not on the voter list for this election"}
	}

	return Decision{Eligible: true, Phase: phase, Message: "You are eligible to vote"}
}

// Err returns nil for an eligible decision, otherwise a UserBlocking error
// carrying the reason and message.
func (d Decision) Err() error {
	if d.Eligible {
		return nil
	}
	return apperr.Blocked(string(d.Reason), d.Message)
}

func notActiveMessage(phase Phase) string {
	switch phase {
	case PhaseUpcoming:
		return "Voting has not started yet"
	case PhaseEnded:
		return "Voting has ended"
	}
	return fmt.Sprintf("Election is %s", phase)
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
