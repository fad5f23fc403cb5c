package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/autovote/internal/domain/stats"
	"github.com/rpggio/autovote/internal/repository"
)

// StatsRepository implements stats.Repository on the "stats" document.
type StatsRepository struct {
	kv *KVStore
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{kv: NewKVStore(db)}
}

// decodeStats uses defaults only for an absent document. Fields missing from a stored document
// stay zero, so a missing lastResetDate rolls over on the next check.
func decodeStats(raw json.RawMessage, defaults stats.Stats) (stats.Stats, error) {
	if raw == nil {
		return defaults, nil
	}
	var s stats.Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return stats.Stats{}, fmt.Errorf("%w: stats: %v", repository.ErrCorrupt, err)
	}
	return s, nil
}

// GetOrInit returns the stored stats, storing defaults when absent
func (r *StatsRepository) GetOrInit(ctx context.Context, defaults stats.Stats) (stats.Stats, error) {
	raw, err := r.kv.SetIfAbsent(ctx, KeyStats, defaults)
	if err != nil {
		return stats.Stats{}, err
	}
	return decodeStats(raw, defaults)
}

// Update applies fn to the stats document in one transaction
func (r *StatsRepository) Update(ctx context.Context, defaults stats.Stats, fn func(*stats.Stats) bool) (stats.Stats, error) {
	var result stats.Stats
	err := r.kv.Update(ctx, KeyStats, func(current json.RawMessage) (any, bool, error) {
		s, err := decodeStats(current, defaults)
		if err != nil {
			return nil, false, err
		}
		write := fn(&s)
		// An absent document is written even when fn made no change, so it gets initialized.
		if current == nil {
			write = true
		}
		result = s
		return s, write, nil
	})
	if err != nil {
		return stats.Stats{}, err
	}
	return result, nil
}
