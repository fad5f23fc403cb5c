package stats

import "context"

// Repository persists the stats document.
type Repository interface {
	// GetOrInit returns the stored stats, storing defaults first when none exist.
	GetOrInit(ctx context.Context, defaults Stats) (Stats, error)
	// Update applies fn to the stored stats (or defaults) atomically. When fn returns false
	// nothing is written.
	Update(ctx context.Context, defaults Stats, fn func(*Stats) bool) (Stats, error)
}
