package settings

import "context"

// Repository persists the settings document.
type Repository interface {
	// GetOrInit returns the stored settings, storing defaults first when none exist.
	GetOrInit(ctx context.Context, defaults Settings) (Settings, error)
	Save(ctx context.Context, s Settings) error
}
