package project

import (
	"fmt"
	"time"
)

// defaultSummaryInterval is used by Summarize for projects stored without an interval.
const defaultSummaryInterval = 24 * time.Hour

// CanVoteNow reports whether the project's cooldown has elapsed at now. The boundary is inclusive
// and the interval is taken as stored, so a non-positive interval never blocks a vote.
// Enabled is not consulted here.
func CanVoteNow(p Project, now time.Time) bool {
	next, ok := p.NextVoteTime()
	if !ok {
		return true
	}
	return !now.Before(next)
}

// SelectEligible returns the enabled projects whose cooldown has elapsed, in input order.
func SelectEligible(projects []Project, now time.Time) []Project {
	eligible := make([]Project, 0, len(projects))
	for _, p := range projects {
		if !p.Enabled {
			continue
		}
		if CanVoteNow(p, now) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// Summarize computes the status counters and the earliest upcoming vote among enabled projects.
func Summarize(projects []Project, now time.Time) Summary {
	summary := Summary{TotalProjects: len(projects)}
	for _, p := range projects {
		if !p.Enabled {
			continue
		}
		summary.ActiveProjects++
		if CanVoteNow(p, now) {
			summary.EligibleNow++
		}
		if p.LastVote == nil {
			continue
		}
		interval := p.Interval
		if interval == 0 {
			interval = defaultSummaryInterval
		}
		next := p.LastVote.Add(interval)
		if !next.After(now) {
			continue
		}
		if summary.NextVote.IsZero() || next.Before(summary.NextVote) {
			summary.NextVote = next
		}
	}
	return summary
}

// NextVoteLabel renders the time until NextVote the way the status view shows it: "-" with no
// projects, "Ready" with nothing cooling down, otherwise "3h 12m" or "12m".
func (s Summary) NextVoteLabel(now time.Time) string {
	if s.TotalProjects == 0 {
		return "-"
	}
	if s.NextVote.IsZero() {
		return "Ready"
	}
	diff := s.NextVote.Sub(now)
	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
