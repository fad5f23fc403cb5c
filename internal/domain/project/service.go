package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rpggio/autovote/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewService creates a new project service. A nil clock uses the real clock.
func NewService(repo Repository, clock clockwork.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, clock: clock, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name     string
	Username string
	URL      string
	Interval time.Duration
	Enabled  bool
}

func (r CreateRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: name, username and url are required", ErrInvalidInput)
	}
	if r.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidInput)
	}
	u, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) URL", ErrInvalidInput)
	}
	return nil
}

// Create adds a new project. Its ID is the creation time in milliseconds.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	proj := &Project{
		ID:        s.nextID(existing),
		Name:      strings.TrimSpace(req.Name),
		Username:  strings.TrimSpace(req.Username),
		URL:       strings.TrimSpace(req.URL),
		Interval:  req.Interval,
		Enabled:   req.Enabled,
		LastVote:  nil,
		VoteCount: 0,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.logger.Info("project added", "project", proj.Name, "project_id", proj.ID)
	return proj, nil
}

// nextID returns the current millisecond timestamp, moved forward past any ID already taken.
func (s *Service) nextID(existing []Project) string {
	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		taken[p.ID] = struct{}{}
	}
	ms := s.clock.Now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		ms++
	}
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError("getting project", err)
	}
	return proj, nil
}

// List returns all projects in insertion order.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Toggle flips the enabled flag of a project.
func (s *Service) Toggle(ctx context.Context, id string) (*Project, error) {
	proj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	proj.Enabled = !proj.Enabled
	if err := s.repo.Update(ctx, proj); err != nil {
		return nil, mapRepoError("updating project", err)
	}
	s.logger.Info("project toggled", "project", proj.Name, "enabled", proj.Enabled)
	return proj, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError("deleting project", err)
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// Eligible returns the projects that can be voted for now.
func (s *Service) Eligible(ctx context.Context) ([]Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return SelectEligible(projects, s.clock.Now()), nil
}

// FindByURL returns the project a loaded page belongs to.
func (s *Service) FindByURL(ctx context.Context, pageURL string) (*Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	proj, ok := FindByURL(projects, pageURL)
	if !ok {
		return nil, ErrProjectNotFound
	}
	return proj, nil
}

// RecordVote stamps the project's last vote with the current time and increments its count.
func (s *Service) RecordVote(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.RecordVote(ctx, id, s.clock.Now())
	if err != nil {
		return nil, mapRepoError("recording vote", err)
	}
	return proj, nil
}

// Summary returns status counters and the next upcoming vote.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(projects, s.clock.Now()), nil
}

func mapRepoError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProjectNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
