package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_GetOrInit(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	s, err := repo.GetOrInit(ctx, settings.Default())
	require.NoError(t, err)
	require.Equal(t, settings.Default(), s)

	values, err := NewKVStore(db).Get(ctx, KeySettings)
	require.NoError(t, err)
	require.JSONEq(t, `{"notificationsEnabled":true,"autoVoteOnVisit":true,"captchaWarnings":true}`, string(values[KeySettings]))
}

func TestSettingsRepository_SaveThenGet(t *testing.T) {
	repo := NewSettingsRepository(NewTestDB(t))
	ctx := context.Background()

	want := settings.Settings{NotificationsEnabled: false, AutoVoteOnVisit: true, CaptchaWarnings: false}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.GetOrInit(ctx, settings.Default())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSettingsRepository_MissingFieldKeepsDefault(t *testing.T) {
	db := NewTestDB(t)
	_, err := db.Exec(`INSERT INTO kv (key, value) VALUES ('settings', '{"notificationsEnabled":false}')`)
	require.NoError(t, err)

	got, err := NewSettingsRepository(db).GetOrInit(context.Background(), settings.Default())
	require.NoError(t, err)
	require.False(t, got.NotificationsEnabled)
	require.True(t, got.AutoVoteOnVisit)
	require.True(t, got.CaptchaWarnings)
}
