package mcp

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/autovote/internal/bus"
	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/runner"
)

type tools struct {
	services Services
	clock    clockwork.Clock
}

func registerTools(server *sdkmcp.Server, t *tools) {
	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all vote projects with cooldown state",
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_project",
		Description: "Add a vote project (name, username, vote page url, interval in hours)",
	}, t.addProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "toggle_project",
		Description: "Enable or disable a project",
	}, t.toggleProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project",
	}, t.deleteProject)

	// Settings and stats
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_settings",
		Description: "Get vote settings",
	}, t.getSettings)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_settings",
		Description: "Change vote settings; omitted fields are kept",
	}, t.updateSettings)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_stats",
		Description: "Get vote counters",
	}, t.getStats)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "reset_stats",
		Description: "Zero all vote counters",
	}, t.resetStats)

	// Orchestration
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_status",
		Description: "Summarize projects: totals, eligible now and time until the next vote",
	}, t.getStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "vote_all",
		Description: "Open a background tab for every eligible project and vote",
	}, t.voteAll)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_all",
		Description: "Delete all projects, settings and stats",
	}, t.clearAll)
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, ProjectListResult, error) {
	projects, err := t.services.Projects.List(ctx)
	if err != nil {
		return nil, ProjectListResult{}, toolError(err)
	}
	now := t.clock.Now()
	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, toProjectView(p, now))
	}
	return nil, ProjectListResult{Projects: views}, nil
}

func (t *tools) addProject(ctx context.Context, _ *sdkmcp.CallToolRequest, params AddProjectParams) (*sdkmcp.CallToolResult, ProjectResult, error) {
	interval, err := project.IntervalFromHours(params.IntervalHours)
	if err != nil {
		return nil, ProjectResult{}, toolError(err)
	}
	enabled := true
	if params.Enabled != nil {
		enabled = *params.Enabled
	}
	created, err := t.services.Projects.Create(ctx, project.CreateRequest{
		Name:     params.Name,
		Username: params.Username,
		URL:      params.URL,
		Interval: interval,
		Enabled:  enabled,
	})
	if err != nil {
		return nil, ProjectResult{}, toolError(err)
	}
	return nil, ProjectResult{Project: toProjectView(*created, t.clock.Now())}, nil
}

func (t *tools) toggleProject(ctx context.Context, _ *sdkmcp.CallToolRequest, params ProjectIDParams) (*sdkmcp.CallToolResult, ProjectResult, error) {
	updated, err := t.services.Projects.Toggle(ctx, params.ID)
	if err != nil {
		return nil, ProjectResult{}, toolError(err)
	}
	return nil, ProjectResult{Project: toProjectView(*updated, t.clock.Now())}, nil
}

func (t *tools) deleteProject(ctx context.Context, _ *sdkmcp.CallToolRequest, params ProjectIDParams) (*sdkmcp.CallToolResult, DeleteResult, error) {
	if err := t.services.Projects.Delete(ctx, params.ID); err != nil {
		return nil, DeleteResult{}, toolError(err)
	}
	return nil, DeleteResult{Deleted: params.ID}, nil
}

func (t *tools) getSettings(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, SettingsResult, error) {
	s, err := t.services.Settings.Get(ctx)
	if err != nil {
		return nil, SettingsResult{}, toolError(err)
	}
	return nil, toSettingsResult(s), nil
}

func (t *tools) updateSettings(ctx context.Context, _ *sdkmcp.CallToolRequest, params UpdateSettingsParams) (*sdkmcp.CallToolResult, SettingsResult, error) {
	s, err := t.services.Settings.Update(ctx, settings.UpdateRequest{
		NotificationsEnabled: params.NotificationsEnabled,
		AutoVoteOnVisit:      params.AutoVoteOnVisit,
		CaptchaWarnings:      params.CaptchaWarnings,
	})
	if err != nil {
		return nil, SettingsResult{}, toolError(err)
	}
	return nil, toSettingsResult(s), nil
}

func (t *tools) getStats(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StatsResult, error) {
	s, err := t.services.Stats.Get(ctx)
	if err != nil {
		return nil, StatsResult{}, toolError(err)
	}
	return nil, toStatsResult(s), nil
}

func (t *tools) resetStats(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StatsResult, error) {
	s, err := t.services.Stats.ResetAll(ctx)
	if err != nil {
		return nil, StatsResult{}, toolError(err)
	}
	return nil, toStatsResult(s), nil
}

func (t *tools) getStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StatusResult, error) {
	summary, err := t.services.Projects.Summary(ctx)
	if err != nil {
		return nil, StatusResult{}, toolError(err)
	}
	return nil, toStatusResult(summary, t.clock.Now()), nil
}

func (t *tools) voteAll(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, BatchResultView, error) {
	if t.services.Bus == nil {
		return nil, BatchResultView{}, &APIError{Code: "UNAVAILABLE", Message: "voting is not available on this server"}
	}
	resp := t.services.Bus.Send(ctx, bus.Message{Action: bus.ActionVoteAll})
	if !resp.Success {
		return nil, BatchResultView{}, &APIError{Code: "BATCH_FAILED", Message: resp.Error}
	}
	result, ok := resp.Result.(runner.BatchResult)
	if !ok {
		return nil, BatchResultView{}, &APIError{Code: "INTERNAL", Message: fmt.Sprintf("unexpected batch result %T", resp.Result)}
	}
	return nil, toBatchResultView(result), nil
}

func (t *tools) clearAll(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, ClearResult, error) {
	if err := t.services.Store.Clear(ctx); err != nil {
		return nil, ClearResult{}, toolError(err)
	}
	return nil, ClearResult{Cleared: true}, nil
}
