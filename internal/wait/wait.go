// Package wait polls a condition until it holds or a deadline passes.
package wait

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Probe checks a condition once. done reports whether the value is ready.
type Probe[T any] func(ctx context.Context) (value T, done bool, err error)

// Policy bounds a poll.
type Policy struct {
	Timeout  time.Duration
	Interval time.Duration
}

// For runs probe immediately and then every Interval until it reports done. It returns
// found=false without an error when Timeout passes first. A probe error or the end of ctx
// stops the poll with that error.
func For[T any](ctx context.Context, clock clockwork.Clock, p Policy, probe Probe[T]) (value T, found bool, err error) {
	var zero T
	if p.Interval <= 0 {
		p.Interval = 100 * time.Millisecond
	}

	v, done, err := probe(ctx)
	if err != nil {
		return zero, false, err
	}
	if done {
		return v, true, nil
	}

	deadline := clock.NewTimer(p.Timeout)
	defer deadline.Stop()
	ticker := clock.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
		case <-deadline.Chan():
			return zero, false, nil
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}

		v, done, err := probe(ctx)
		if err != nil {
			return zero, false, err
		}
		if done {
			return v, true, nil
		}
	}
}

// Sleep pauses for d on clock, returning early with ctx's error when ctx ends.
func Sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
