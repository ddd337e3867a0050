// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"math"
	"sort"

	"github.com/danielhkuo/verivote/models"
)

// RankedChoice is one row of the final results.
type RankedChoice struct {
	Name       string  `json:"name"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
	Rank       int     `json:"rank"` // 1-indexed, ties share a rank
}

type RankedResults struct {
	Choices             []RankedChoice `json:"choices"`
	TotalVotes          int            `json:"total_votes"`
	TotalValidBallots   int            `json:"total_valid_ballots"`
	TotalEligibleVoters int            `json:"total_eligible_voters"`
	TurnoutRate         float64        `json:"turnout_rate"`
	Winners             []string       `json:"winners"`
	IsTie               bool           `json:"is_tie"`
}

// Aggregate normalizes raw into RankedResults. order is the ballot order of
// choice names and breaks vote ties; names missing from order follow in
// lexical order.
func Aggregate(raw models.RawTally, order []string) RankedResults {
	rows := normalize(raw)

	position := make(map[string]int, len(order))
	for i, name := range order {
		if _, seen := position[name]; !seen {
			position[name] = i
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		// 1. More votes first
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}

		// 2. Ballot order
		pa, aKnown := position[a.Name]
		pb, bKnown := position[b.Name]
		if aKnown != bKnown {
			return aKnown
		}
		if aKnown && pa != pb {
			return pa < pb
		}

		// 3. Stable tie-breaking by name
		return a.Name < b.Name
	})

	total := 0
	for _, r := range rows {
		total += r.Votes
	}

	res := RankedResults{
		Choices:             rows,
		TotalVotes:          total,
		TotalValidBallots:   raw.TotalValidBallots,
		TotalEligibleVoters: raw.TotalEligibleVoters,
		Winners:             []string{},
	}
	if res.TotalValidBallots == 0 {
		res.TotalValidBallots = total
	}
	res.TurnoutRate = turnout(res.TotalValidBallots, res.TotalEligibleVoters)

	for i := range rows {
		if total > 0 {
			rows[i].Percentage = round2(float64(rows[i].Votes) / float64(total) * 100)
		}
		if i > 0 && rows[i].Votes == rows[i-1].Votes {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
		if rows[i].Rank == 1 && rows[i].Votes > 0 {
			res.Winners = append(res.Winners, rows[i].Name)
		}
	}
	res.IsTie = len(res.Winners) > 1

	return res
}

// normalize flattens either raw shape into unranked rows. The combined map
// wins when both are present.
func normalize(raw models.RawTally) []RankedChoice {
	if len(raw.Results) > 0 {
		rows := make([]RankedChoice, 0, len(raw.Results))
		for name, t := range raw.Results {
			rows = append(rows, RankedChoice{Name: name, Votes: t.Votes, Percentage: t.Percentage})
		}
		return rows
	}

	rows := make([]RankedChoice, 0, len(raw.Choices))
	for _, c := range raw.Choices {
		rows = append(rows, RankedChoice{Name: c.Name, Votes: c.TotalVotes})
	}
	return rows
}

// turnout returns valid/eligible as a percentage, 0 when nobody is eligible.
func turnout(valid, eligible int) float64 {
	if eligible == 0 {
		return 0
	}
	return round2(float64(valid) / float64(eligible) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
