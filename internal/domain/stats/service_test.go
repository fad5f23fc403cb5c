package stats_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/autovote/internal/domain/stats"
	"github.com/rpggio/autovote/internal/sqlite"
)

func utcDate(t time.Time) string {
	return t.UTC().Format("Mon Jan 02 2006")
}

func newService(t *testing.T, clock clockwork.Clock) *stats.Service {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return stats.NewService(sqlite.NewStatsRepository(db), clock, nil, stats.WithDateFunc(utcDate))
}

func TestStatsService_InitializesWithToday(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	svc := newService(t, clock)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Tue Mar 05 2024", got.LastResetDate)
	require.Zero(t, got.TotalVotes)
}

func TestStatsService_RecordVoteN(t *testing.T) {
	svc := newService(t, clockwork.NewFakeClock())
	ctx := context.Background()

	const n = 7
	for range n {
		_, err := svc.RecordVote(ctx)
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(n), got.TotalVotes)
	require.Equal(t, int64(n), got.TodayVotes)
	require.Equal(t, int64(n), got.WeekVotes)
}

func TestStatsService_RolloverOncePerDay(t *testing.T) {
	day1 := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(day1)
	svc := newService(t, clock)
	ctx := context.Background()

	for range 3 {
		_, err := svc.RecordVote(ctx)
		require.NoError(t, err)
	}

	rolled, err := svc.RolloverIfNewDay(ctx, day1.Add(30*time.Minute))
	require.NoError(t, err)
	require.False(t, rolled, "same calendar day")

	day2 := day1.Add(2 * time.Hour)
	rolled, err = svc.RolloverIfNewDay(ctx, day2)
	require.NoError(t, err)
	require.True(t, rolled)

	rolled, err = svc.RolloverIfNewDay(ctx, day2.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, rolled)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Zero(t, got.TodayVotes)
	require.Equal(t, int64(3), got.TotalVotes)
	require.Equal(t, int64(3), got.WeekVotes, "week counter has no automatic rollover")
	require.Equal(t, "Wed Mar 06 2024", got.LastResetDate)
}

func TestStatsService_ResetAllKeepsDate(t *testing.T) {
	start := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	svc := newService(t, clock)
	ctx := context.Background()

	_, err := svc.RecordVote(ctx)
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	got, err := svc.ResetAll(ctx)
	require.NoError(t, err)
	require.Zero(t, got.TotalVotes)
	require.Zero(t, got.TodayVotes)
	require.Zero(t, got.WeekVotes)
	require.Equal(t, "Tue Mar 05 2024", got.LastResetDate)
}

func TestStatsService_RolloverWhenStoredDateMissing(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	require.NoError(t, sqlite.NewKVStore(db).Set(ctx, map[string]any{
		sqlite.KeyStats: json.RawMessage(`{"totalVotes":7,"todayVotes":5,"weekVotes":6}`),
	}))

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	svc := stats.NewService(sqlite.NewStatsRepository(db), clockwork.NewFakeClockAt(now), nil, stats.WithDateFunc(utcDate))

	rolled, err := svc.RolloverIfNewDay(ctx, now)
	require.NoError(t, err)
	require.True(t, rolled)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Zero(t, got.TodayVotes)
	require.Equal(t, int64(7), got.TotalVotes)
	require.Equal(t, int64(6), got.WeekVotes)
	require.Equal(t, "Tue Mar 05 2024", got.LastResetDate)
}
