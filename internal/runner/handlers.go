package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/autovote/internal/browser"
	"github.com/rpggio/autovote/internal/bus"
	"github.com/rpggio/autovote/internal/notify"
)

// Batcher runs Batch mode.
type Batcher interface {
	Batch(ctx context.Context) (BatchResult, error)
}

// Handlers answers the messages sent to the orchestration side.
type Handlers struct {
	batcher  Batcher
	settings SettingsSource
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewHandlers creates the orchestration handlers. A nil batcher makes voteAll fail.
func NewHandlers(batcher Batcher, settingsSrc SettingsSource, notifier notify.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handlers{batcher: batcher, settings: settingsSrc, notifier: notifier, logger: logger}
}

// Register installs the handlers on b.
func (h *Handlers) Register(b *bus.Bus) {
	b.Handle(bus.ActionVoteCompleted, h.voteCompleted)
	b.Handle(bus.ActionVoteAll, h.voteAll)
}

func (h *Handlers) voteCompleted(ctx context.Context, msg bus.Message) bus.Response {
	current, err := h.settings.Get(ctx)
	if err != nil {
		h.logger.Error("loading settings for notification", "error", err)
		return bus.Response{Success: false, Error: err.Error()}
	}
	if current.NotificationsEnabled && h.notifier != nil {
		h.notifier.Notify(ctx, notify.Notification{
			Title:   "Vote Submitted!",
			Message: fmt.Sprintf("Successfully voted for %s", msg.Project),
			Level:   browser.LevelSuccess,
		})
	}
	h.logger.Info("vote completed", "project", msg.Project)
	return bus.Response{Success: true}
}

func (h *Handlers) voteAll(ctx context.Context, _ bus.Message) bus.Response {
	if h.batcher == nil {
		return bus.Response{Success: false, Error: "no browser configured"}
	}
	// Tabs outlive the request that started the batch.
	result, err := h.batcher.Batch(context.WithoutCancel(ctx))
	if err != nil {
		h.logger.Error("batch run failed", "run_id", result.RunID, "error", err)
		return bus.Response{Success: false, Error: err.Error(), Result: result}
	}
	return bus.Response{Success: true, Result: result}
}
