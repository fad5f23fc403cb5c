package vote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/autovote/internal/bus"
	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/stats"
)

// ProjectService defines the project operations needed to record a vote.
type ProjectService interface {
	RecordVote(ctx context.Context, id string) (*project.Project, error)
}

// StatsService defines the stats operations needed to record a vote.
type StatsService interface {
	RecordVote(ctx context.Context) (stats.Stats, error)
}

// Publisher sends fire-and-forget messages.
type Publisher interface {
	Publish(ctx context.Context, msg bus.Message)
}

// Recorder stores the effects of a successful vote.
type Recorder struct {
	projects  ProjectService
	stats     StatsService
	publisher Publisher
	logger    *slog.Logger
}

// NewRecorder creates a Recorder. A nil publisher disables the completion message.
func NewRecorder(projects ProjectService, statsSvc StatsService, publisher Publisher, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{projects: projects, stats: statsSvc, publisher: publisher, logger: logger}
}

// RecordVote updates the project's last vote and count, increments the stats counters and
// announces the completed vote. A project deleted since the page was opened still counts in stats.
func (r *Recorder) RecordVote(ctx context.Context, proj project.Project) error {
	if _, err := r.projects.RecordVote(ctx, proj.ID); err != nil {
		if !errors.Is(err, project.ErrProjectNotFound) {
			return fmt.Errorf("recording project vote: %w", err)
		}
		r.logger.Warn("voted project no longer stored", "project", proj.Name, "project_id", proj.ID)
	}
	if _, err := r.stats.RecordVote(ctx); err != nil {
		return err
	}

	r.logger.Info("vote recorded", "project", proj.Name, "project_id", proj.ID)
	if r.publisher != nil {
		r.publisher.Publish(ctx, bus.Message{Action: bus.ActionVoteCompleted, Project: proj.Name})
	}
	return nil
}
