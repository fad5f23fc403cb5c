package mcp

import (
	"time"

	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/domain/stats"
	"github.com/rpggio/autovote/internal/runner"
)

type EmptyParams struct{}

type ProjectIDParams struct {
	ID string `json:"id" jsonschema:"project id"`
}

type AddProjectParams struct {
	Name          string  `json:"name" jsonschema:"server display name"`
	Username      string  `json:"username" jsonschema:"in-game username to vote for"`
	URL           string  `json:"url" jsonschema:"vote page URL"`
	IntervalHours float64 `json:"interval_hours" jsonschema:"cooldown between votes in hours"`
	Enabled       *bool   `json:"enabled,omitempty" jsonschema:"defaults to true"`
}

type UpdateSettingsParams struct {
	NotificationsEnabled *bool `json:"notifications_enabled,omitempty"`
	AutoVoteOnVisit      *bool `json:"auto_vote_on_visit,omitempty"`
	CaptchaWarnings      *bool `json:"captcha_warnings,omitempty"`
}

// ProjectView is a project as returned by tools. Times are Unix milliseconds, zero meaning never.
type ProjectView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Username      string  `json:"username"`
	URL           string  `json:"url"`
	IntervalHours float64 `json:"interval_hours"`
	Enabled       bool    `json:"enabled"`
	LastVote      int64   `json:"last_vote"`
	VoteCount     int64   `json:"vote_count"`
	NextVote      int64   `json:"next_vote"`
	CanVoteNow    bool    `json:"can_vote_now"`
}

type ProjectResult struct {
	Project ProjectView `json:"project"`
}

type ProjectListResult struct {
	Projects []ProjectView `json:"projects"`
}

type DeleteResult struct {
	Deleted string `json:"deleted"`
}

type SettingsResult struct {
	NotificationsEnabled bool `json:"notifications_enabled"`
	AutoVoteOnVisit      bool `json:"auto_vote_on_visit"`
	CaptchaWarnings      bool `json:"captcha_warnings"`
}

type StatsResult struct {
	TotalVotes    int64  `json:"total_votes"`
	TodayVotes    int64  `json:"today_votes"`
	WeekVotes     int64  `json:"week_votes"`
	LastResetDate string `json:"last_reset_date"`
}

type StatusResult struct {
	TotalProjects  int    `json:"total_projects"`
	ActiveProjects int    `json:"active_projects"`
	EligibleNow    int    `json:"eligible_now"`
	NextVote       int64  `json:"next_vote"`
	NextVoteLabel  string `json:"next_vote_label"`
}

type BatchResultView struct {
	RunID      string   `json:"run_id"`
	Eligible   int      `json:"eligible"`
	Opened     int      `json:"opened"`
	Failed     []string `json:"failed"`
	DurationMS int64    `json:"duration_ms"`
}

type ClearResult struct {
	Cleared bool `json:"cleared"`
}

func toProjectView(p project.Project, now time.Time) ProjectView {
	view := ProjectView{
		ID:            p.ID,
		Name:          p.Name,
		Username:      p.Username,
		URL:           p.URL,
		IntervalHours: p.Interval.Hours(),
		Enabled:       p.Enabled,
		VoteCount:     p.VoteCount,
		CanVoteNow:    project.CanVoteNow(p, now),
	}
	if p.LastVote != nil {
		view.LastVote = p.LastVote.UnixMilli()
	}
	if next, ok := p.NextVoteTime(); ok {
		view.NextVote = next.UnixMilli()
	}
	return view
}

func toSettingsResult(s settings.Settings) SettingsResult {
	return SettingsResult{
		NotificationsEnabled: s.NotificationsEnabled,
		AutoVoteOnVisit:      s.AutoVoteOnVisit,
		CaptchaWarnings:      s.CaptchaWarnings,
	}
}

func toStatsResult(s stats.Stats) StatsResult {
	return StatsResult{
		TotalVotes:    s.TotalVotes,
		TodayVotes:    s.TodayVotes,
		WeekVotes:     s.WeekVotes,
		LastResetDate: s.LastResetDate,
	}
}

func toStatusResult(s project.Summary, now time.Time) StatusResult {
	res := StatusResult{
		TotalProjects:  s.TotalProjects,
		ActiveProjects: s.ActiveProjects,
		EligibleNow:    s.EligibleNow,
		NextVoteLabel:  s.NextVoteLabel(now),
	}
	if !s.NextVote.IsZero() {
		res.NextVote = s.NextVote.UnixMilli()
	}
	return res
}

func toBatchResultView(r runner.BatchResult) BatchResultView {
	failed := r.Failed
	if failed == nil {
		failed = []string{}
	}
	return BatchResultView{
		RunID:      r.RunID,
		Eligible:   r.Eligible,
		Opened:     r.Opened,
		Failed:     failed,
		DurationMS: r.Duration.Milliseconds(),
	}
}
