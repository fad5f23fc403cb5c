package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Service maintains the vote counters and their daily rollover.
type Service struct {
	repo   Repository
	clock  clockwork.Clock
	dateOf func(time.Time) string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDateFunc replaces the calendar-date function used for rollovers.
func WithDateFunc(fn func(time.Time) string) Option {
	return func(s *Service) {
		s.dateOf = fn
	}
}

// NewService creates a new stats service. A nil clock uses the real clock.
func NewService(repo Repository, clock clockwork.Clock, logger *slog.Logger, opts ...Option) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{repo: repo, clock: clock, dateOf: CalendarDate, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) defaults() Stats {
	return Stats{LastResetDate: s.dateOf(s.clock.Now())}
}

// Get returns the current counters, initializing them on first access.
func (s *Service) Get(ctx context.Context) (Stats, error) {
	current, err := s.repo.GetOrInit(ctx, s.defaults())
	if err != nil {
		return Stats{}, fmt.Errorf("loading stats: %w", err)
	}
	return current, nil
}

// RecordVote increments the total, today and week counters by one.
func (s *Service) RecordVote(ctx context.Context) (Stats, error) {
	updated, err := s.repo.Update(ctx, s.defaults(), func(st *Stats) bool {
		st.TotalVotes++
		st.TodayVotes++
		st.WeekVotes++
		return true
	})
	if err != nil {
		return Stats{}, fmt.Errorf("recording vote in stats: %w", err)
	}
	return updated, nil
}

// RolloverIfNewDay zeroes today's counter when the stored reset date is not the calendar date of
// now. It reports whether a rollover happened; repeated calls on the same day are no-ops.
func (s *Service) RolloverIfNewDay(ctx context.Context, now time.Time) (bool, error) {
	today := s.dateOf(now)
	rolled := false
	_, err := s.repo.Update(ctx, s.defaults(), func(st *Stats) bool {
		if st.LastResetDate == today {
			return false
		}
		st.TodayVotes = 0
		st.LastResetDate = today
		rolled = true
		return true
	})
	if err != nil {
		return false, fmt.Errorf("rolling over stats: %w", err)
	}
	if rolled {
		s.logger.Info("daily stats reset", "date", today)
	}
	return rolled, nil
}

// ResetAll zeroes all counters and keeps the last reset date.
func (s *Service) ResetAll(ctx context.Context) (Stats, error) {
	updated, err := s.repo.Update(ctx, s.defaults(), func(st *Stats) bool {
		st.TotalVotes = 0
		st.TodayVotes = 0
		st.WeekVotes = 0
		return true
	})
	if err != nil {
		return Stats{}, fmt.Errorf("resetting stats: %w", err)
	}
	s.logger.Info("statistics reset")
	return updated, nil
}
