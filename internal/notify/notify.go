// Package notify delivers user-facing notifications.
package notify

import (
	"context"
	"io"
	"log/slog"

	"github.com/rpggio/autovote/internal/browser"
)

// Notification is a fire-and-forget message for the user.
type Notification struct {
	Title   string
	Message string
	Level   browser.Level
}

// Notifier delivers notifications. Delivery failures are not reported.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs at info, or warn for warnings.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) {
	level := slog.LevelInfo
	if note.Level == browser.LevelWarning {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, note.Message, "title", note.Title, "notification", true)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, note Notification) {
	for _, n := range m {
		n.Notify(ctx, note)
	}
}
