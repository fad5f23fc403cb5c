// Package scheduler runs the recurring daily rollover and the optional periodic batch alarm.
package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rpggio/autovote/internal/bus"
)

// Roller rolls daily counters over.
type Roller interface {
	RolloverIfNewDay(ctx context.Context, now time.Time) (bool, error)
}

// Sender delivers a request over the bus.
type Sender interface {
	Send(ctx context.Context, msg bus.Message) bus.Response
}

// Scheduler owns the recurring timers.
type Scheduler struct {
	roller           Roller
	sender           Sender
	clock            clockwork.Clock
	rolloverInterval time.Duration
	batchInterval    time.Duration
	logger           *slog.Logger
}

// New creates a Scheduler. A batchInterval of zero disables the batch alarm.
func New(roller Roller, sender Sender, clock clockwork.Clock, rolloverInterval, batchInterval time.Duration, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		roller:           roller,
		sender:           sender,
		clock:            clock,
		rolloverInterval: rolloverInterval,
		batchInterval:    batchInterval,
		logger:           logger,
	}
}

// Run starts the loops and blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.rolloverLoop(ctx)
	}()

	if s.batchInterval > 0 && s.sender != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.batchLoop(ctx)
		}()
	}

	wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) rolloverLoop(ctx context.Context) {
	s.rollover(ctx)

	ticker := s.clock.NewTicker(s.rolloverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.rollover(ctx)
		}
	}
}

func (s *Scheduler) rollover(ctx context.Context) {
	if _, err := s.roller.RolloverIfNewDay(ctx, s.clock.Now()); err != nil {
		s.logger.Error("daily rollover failed", "error", err)
	}
}

func (s *Scheduler) batchLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(s.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			resp := s.sender.Send(ctx, bus.Message{Action: bus.ActionVoteAll})
			if !resp.Success {
				s.logger.Error("scheduled batch failed", "error", resp.Error)
			}
		}
	}
}
