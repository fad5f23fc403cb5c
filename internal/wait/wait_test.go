package wait_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/autovote/internal/wait"
)

func TestFor_ImmediateSuccess(t *testing.T) {
	clock := clockwork.NewFakeClock()

	v, found, err := wait.For(context.Background(), clock, wait.Policy{Timeout: time.Second},
		func(context.Context) (string, bool, error) { return "ok", true, nil })
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "ok", v)
}

func TestFor_SucceedsAfterPolls(t *testing.T) {
	clock := clockwork.NewRealClock()
	var calls atomic.Int32

	v, found, err := wait.For(context.Background(), clock, wait.Policy{Timeout: 2 * time.Second, Interval: 5 * time.Millisecond},
		func(context.Context) (int32, bool, error) {
			n := calls.Add(1)
			return n, n == 3, nil
		})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int32(3), v)
}

func TestFor_Timeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx := context.Background()
	done := make(chan struct{})

	var found bool
	var err error
	go func() {
		defer close(done)
		_, found, err = wait.For(ctx, clock, wait.Policy{Timeout: 10 * time.Second, Interval: time.Second},
			func(context.Context) (int, bool, error) { return 0, false, nil })
	}()

	// Timer and ticker.
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	clock.Advance(10 * time.Second)
	<-done

	require.NoError(t, err)
	require.False(t, found)
}

func TestFor_ProbeError(t *testing.T) {
	boom := errors.New("page gone")

	_, found, err := wait.For(context.Background(), clockwork.NewFakeClock(), wait.Policy{Timeout: time.Second},
		func(context.Context) (int, bool, error) { return 0, false, boom })
	require.ErrorIs(t, err, boom)
	require.False(t, found)
}

func TestFor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found, err := wait.For(ctx, clockwork.NewFakeClock(), wait.Policy{Timeout: time.Hour},
		func(context.Context) (int, bool, error) { return 0, false, nil })
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, found)
}

func TestSleep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx := context.Background()
	done := make(chan error, 1)

	go func() { done <- wait.Sleep(ctx, clock, 3*time.Second) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(3 * time.Second)
	require.NoError(t, <-done)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, wait.Sleep(ctx, clockwork.NewFakeClock(), time.Hour), context.Canceled)
}
