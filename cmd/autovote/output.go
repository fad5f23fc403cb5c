package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/domain/stats"
	"github.com/rpggio/autovote/internal/runner"
)

const timeFormat = "2006-01-02 15:04"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func renderProjects(projects []project.Project, now time.Time) string {
	if len(projects) == 0 {
		return labelStyle.Render("No projects yet. Add one with: autovote projects add")
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.Username,
			p.URL,
			formatHours(p.Interval),
			enabledLabel(p.Enabled),
			lastVoteLabel(p),
			strconv.FormatInt(p.VoteCount, 10),
			readyLabel(p, now),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "NAME", "USER", "URL", "INTERVAL", "ENABLED", "LAST VOTE", "VOTES", "NEXT").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func renderSettings(s settings.Settings) string {
	return strings.Join([]string{
		titleStyle.Render("Settings"),
		field("notifications", onOff(s.NotificationsEnabled)),
		field("auto-vote on visit", onOff(s.AutoVoteOnVisit)),
		field("captcha warnings", onOff(s.CaptchaWarnings)),
	}, "\n")
}

func renderStats(s stats.Stats) string {
	return strings.Join([]string{
		titleStyle.Render("Stats"),
		field("total", strconv.FormatInt(s.TotalVotes, 10)),
		field("today", strconv.FormatInt(s.TodayVotes, 10)),
		field("week", strconv.FormatInt(s.WeekVotes, 10)),
		field("last reset", s.LastResetDate),
	}, "\n")
}

func renderStatus(s project.Summary, now time.Time) string {
	return strings.Join([]string{
		titleStyle.Render("Status"),
		field("projects", fmt.Sprintf("%d (%d active)", s.TotalProjects, s.ActiveProjects)),
		field("eligible now", strconv.Itoa(s.EligibleNow)),
		field("next vote", s.NextVoteLabel(now)),
	}, "\n")
}

func renderBatch(r runner.BatchResult) string {
	lines := []string{
		titleStyle.Render("Vote run " + r.RunID),
		field("eligible", strconv.Itoa(r.Eligible)),
		field("opened", strconv.Itoa(r.Opened)),
		field("took", r.Duration.Round(time.Millisecond).String()),
	}
	if len(r.Failed) > 0 {
		lines = append(lines, field("failed", warnStyle.Render(strings.Join(r.Failed, ", "))))
	}
	return strings.Join(lines, "\n")
}

func renderAttempt(a runner.Attempt) string {
	switch {
	case a.Skipped != "":
		return warnStyle.Render("Skipped: " + string(a.Skipped))
	case a.Outcome == "":
		return labelStyle.Render("No vote attempted")
	default:
		name := a.Project
		if name == "" {
			name = a.URL
		}
		return okStyle.Render(fmt.Sprintf("%s: %s", name, a.Outcome))
	}
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-20s", label)) + value
}

func onOff(v bool) string {
	if v {
		return okStyle.Render("on")
	}
	return warnStyle.Render("off")
}

func enabledLabel(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func lastVoteLabel(p project.Project) string {
	if p.LastVote == nil {
		return "never"
	}
	return p.LastVote.Local().Format(timeFormat)
}

func readyLabel(p project.Project, now time.Time) string {
	if project.CanVoteNow(p, now) {
		return "ready"
	}
	next, _ := p.NextVoteTime()
	return next.Local().Format(timeFormat)
}

func formatHours(d time.Duration) string {
	return strconv.FormatFloat(d.Hours(), 'f', -1, 64) + "h"
}
