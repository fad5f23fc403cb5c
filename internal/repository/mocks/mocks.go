package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) RecordVote(ctx context.Context, id string, at time.Time) (*project.Project, error) {
	args := m.Called(ctx, id, at)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

// SettingsRepository is a mock for settings.Repository.
type SettingsRepository struct {
	mock.Mock
}

func (m *SettingsRepository) GetOrInit(ctx context.Context, defaults settings.Settings) (settings.Settings, error) {
	args := m.Called(ctx, defaults)
	return args.Get(0).(settings.Settings), args.Error(1)
}

func (m *SettingsRepository) Save(ctx context.Context, s settings.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
