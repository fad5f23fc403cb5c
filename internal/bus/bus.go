// Package bus carries messages between the page-automation side and the orchestration side.
package bus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Action names a message kind.
type Action string

const (
	// ActionVoteCompleted announces that a vote was recorded for Message.Project.
	ActionVoteCompleted Action = "voteCompleted"
	// ActionVoteAll asks the orchestrator to run Batch mode.
	ActionVoteAll Action = "voteAll"
)

// Message is a request sent over the bus.
type Message struct {
	Action  Action `json:"action"`
	Project string `json:"project,omitempty"`
}

// Response is returned to the sender of a message.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Result carries an action-specific payload, such as a batch summary.
	Result any `json:"result,omitempty"`
}

// Handler processes one message kind.
type Handler func(ctx context.Context, msg Message) Response

// Bus routes messages to the single handler registered per action.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Action]Handler
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// New creates an empty bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{handlers: make(map[Action]Handler), logger: logger}
}

// Handle registers h for action, replacing any previous handler.
func (b *Bus) Handle(action Action, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = h
}

// Send delivers msg and waits for the handler's response.
func (b *Bus) Send(ctx context.Context, msg Message) Response {
	b.mu.RLock()
	h, ok := b.handlers[msg.Action]
	b.mu.RUnlock()
	if !ok {
		b.logger.Warn("no handler for message", "action", msg.Action)
		return Response{Success: false, Error: fmt.Sprintf("unknown action %q", msg.Action)}
	}
	return h(ctx, msg)
}

// Publish delivers msg without waiting. The handler runs detached from ctx cancellation.
func (b *Bus) Publish(ctx context.Context, msg Message) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		resp := b.Send(context.WithoutCancel(ctx), msg)
		if !resp.Success {
			b.logger.Debug("published message not handled", "action", msg.Action, "error", resp.Error)
		}
	}()
}

// Wait blocks until all published messages have been handled.
func (b *Bus) Wait() {
	b.wg.Wait()
}
