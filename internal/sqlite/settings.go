package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/repository"
)

// SettingsRepository implements settings.Repository on the "settings" document.
type SettingsRepository struct {
	kv *KVStore
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{kv: NewKVStore(db)}
}

// GetOrInit returns the stored settings, storing defaults when absent
func (r *SettingsRepository) GetOrInit(ctx context.Context, defaults settings.Settings) (settings.Settings, error) {
	raw, err := r.kv.SetIfAbsent(ctx, KeySettings, defaults)
	if err != nil {
		return settings.Settings{}, err
	}
	// Fields missing from an older document keep their default.
	s := defaults
	if err := json.Unmarshal(raw, &s); err != nil {
		return settings.Settings{}, fmt.Errorf("%w: settings: %v", repository.ErrCorrupt, err)
	}
	return s, nil
}

// Save replaces the settings document
func (r *SettingsRepository) Save(ctx context.Context, s settings.Settings) error {
	return r.kv.Set(ctx, map[string]any{KeySettings: s})
}
