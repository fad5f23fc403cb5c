package settings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Service reads and updates the process-wide settings.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new settings service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// Get returns the current settings, initializing defaults on first access.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	current, err := s.repo.GetOrInit(ctx, Default())
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return current, nil
}

// UpdateRequest changes the fields that are set.
type UpdateRequest struct {
	NotificationsEnabled *bool
	AutoVoteOnVisit      *bool
	CaptchaWarnings      *bool
}

// Update applies req to the current settings and stores the result.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if req.NotificationsEnabled != nil {
		current.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.AutoVoteOnVisit != nil {
		current.AutoVoteOnVisit = *req.AutoVoteOnVisit
	}
	if req.CaptchaWarnings != nil {
		current.CaptchaWarnings = *req.CaptchaWarnings
	}
	if err := s.repo.Save(ctx, current); err != nil {
		return Settings{}, fmt.Errorf("saving settings: %w", err)
	}
	s.logger.Info("settings saved",
		"notifications", current.NotificationsEnabled,
		"auto_vote_on_visit", current.AutoVoteOnVisit,
		"captcha_warnings", current.CaptchaWarnings,
	)
	return current, nil
}
