package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/autovote/internal/bus"
	"github.com/rpggio/autovote/internal/scheduler"
)

type rollerFake struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (r *rollerFake) RolloverIfNewDay(_ context.Context, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, now)
	return true, r.err
}

func (r *rollerFake) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type senderFake struct {
	mu   sync.Mutex
	msgs []bus.Message
}

func (s *senderFake) Send(_ context.Context, msg bus.Message) bus.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return bus.Response{Success: true}
}

func (s *senderFake) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestScheduler_RolloverAtStartAndDaily(t *testing.T) {
	clock := clockwork.NewFakeClock()
	roller := &rollerFake{err: errors.New("transient")}
	s := scheduler.New(roller, nil, clock, 24*time.Hour, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	require.Equal(t, 1, roller.count())

	clock.Advance(24 * time.Hour)
	require.Eventually(t, func() bool { return roller.count() == 2 }, time.Second, time.Millisecond)

	clock.Advance(24 * time.Hour)
	require.Eventually(t, func() bool { return roller.count() == 3 }, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestScheduler_BatchAlarm(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sender := &senderFake{}
	s := scheduler.New(&rollerFake{}, sender, clock, 24*time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	// Rollover and batch tickers.
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	require.Zero(t, sender.count())

	clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, bus.ActionVoteAll, sender.msgs[0].Action)

	cancel()
	<-done
}

func TestScheduler_NoBatchAlarmWhenDisabled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sender := &senderFake{}
	s := scheduler.New(&rollerFake{}, sender, clock, 24*time.Hour, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(48 * time.Hour)
	cancel()
	<-done
	require.Zero(t, sender.count())
}
