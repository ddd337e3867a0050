// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/verivote/election"
	"github.com/danielhkuo/verivote/models"
)

// ListElections returns every election visible to the user, most recent
// first, from the cached list.
func (s *Session) ListElections(ctx context.Context) ([]models.ElectionSummary, error) {
	all, err := s.allElections(ctx)
	if err != nil {
		return nil, err
	}
	now := s.o.deps.Clock.Now()
	out := make([]models.ElectionSummary, 0, len(all))
	for _, e := range all {
		out = append(out, summarize(e, now))
	}
	return out, nil
}

// SearchElections filters the cached list by a case-insensitive match on
// title or description. An empty query matches everything.
func (s *Session) SearchElections(ctx context.Context, query string) ([]models.ElectionSummary, error) {
	all, err := s.allElections(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	now := s.o.deps.Clock.Now()
	out := []models.ElectionSummary{}
	for _, e := range all {
		if q == "" || strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, summarize(e, now))
		}
	}
	return out, nil
}

// Dashboard counts the cached elections by phase and role and lists the
// active ones still waiting for the user's vote. FetchedAt tells the client
// how stale the counts may be.
func (s *Session) Dashboard(ctx context.Context) (models.DashboardResponse, error) {
	all, err := s.allElections(ctx)
	if err != nil {
		return models.DashboardResponse{}, err
	}

	now := s.o.deps.Clock.Now()
	resp := models.DashboardResponse{Total: len(all), Pending: []models.ElectionSummary{}}
	if at, ok := s.elections.FetchedAt(); ok {
		resp.FetchedAt = at
	}
	for _, e := range all {
		phase := election.Classify(now, e.StartingTime, e.EndingTime)
		switch phase {
		case election.PhaseUpcoming:
			resp.Upcoming++
		case election.PhaseActive:
			resp.Active++
		case election.PhaseEnded:
			resp.Ended++
		}
		if e.HasRole(models.RoleVoter) {
			resp.AsVoter++
		}
		if e.HasRole(models.RoleGuardian) {
			resp.AsGuardian++
		}
		if e.HasRole(models.RoleAdmin) {
			resp.AsAdmin++
		}
		if election.Decide(e, e.UserRoles, e.HasVoted, models.BotVerdict{}, now).Eligible {
			resp.Pending = append(resp.Pending, summarize(e, now))
		}
	}
	return resp, nil
}

// allElections returns a private copy of the cached list with the session's
// hasVoted observations applied.
func (s *Session) allElections(ctx context.Context) ([]models.Election, error) {
	cached, err := s.elections.All(s.withUser(ctx))
	if err != nil {
		return nil, err
	}
	all := make([]models.Election, len(cached))
	copy(all, cached)
	for i := range all {
		s.applyVoted(&all[i])
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].StartingTime.Equal(all[j].StartingTime) {
			return all[i].StartingTime.After(all[j].StartingTime)
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

func summarize(e models.Election, now time.Time) models.ElectionSummary {
	phase := election.Classify(now, e.StartingTime, e.EndingTime)
	return models.ElectionSummary{
		ID:       e.ID,
		Title:    e.Title,
		Phase:    string(phase),
		Roles:    e.UserRoles,
		HasVoted: e.HasVoted,
		Timing:   timingText(phase, e, now),
	}
}

// timingText describes the next boundary relative to now, e.g.
// "ends 3 minutes from now" or "ended 2 days ago".
func timingText(phase election.Phase, e models.Election, now time.Time) string {
	switch phase {
	case election.PhaseUpcoming:
		return "starts " + humanize.RelTime(e.StartingTime, now, "ago", "from now")
	case election.PhaseActive:
		return "ends " + humanize.RelTime(e.EndingTime, now, "ago", "from now")
	}
	return "ended " + humanize.RelTime(e.EndingTime, now, "ago", "from now")
}

// formatCountdown renders d as [Nd ]HH:MM:SS.
func formatCountdown(d time.Duration) string {
	if d <= 0 {
		return "00:00:00"
	}
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
