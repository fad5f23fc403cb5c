package project

import (
	"context"
	"time"
)

// Repository provides persistence for projects. List preserves insertion order.
type Repository interface {
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	Create(ctx context.Context, proj *Project) error
	Update(ctx context.Context, proj *Project) error
	Delete(ctx context.Context, id string) error
	RecordVote(ctx context.Context, id string, at time.Time) (*Project, error)
}
