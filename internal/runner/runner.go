// Package runner drives vote attempts: on a single loaded page (Active-tab mode) and across all
// eligible projects through background tabs (Batch mode).
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rpggio/autovote/internal/browser"
	"github.com/rpggio/autovote/internal/dispatch"
	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/metrics"
	"github.com/rpggio/autovote/internal/wait"
)

// ProjectSource is the project lookup the runner needs.
type ProjectSource interface {
	FindByURL(ctx context.Context, pageURL string) (*project.Project, error)
	Eligible(ctx context.Context) ([]project.Project, error)
}

// SettingsSource reads the current settings.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Dispatcher attempts a vote on a page.
type Dispatcher interface {
	Dispatch(ctx context.Context, hostname string, page browser.Page, proj project.Project) (dispatch.Outcome, error)
}

// Config holds the runner timings.
type Config struct {
	TabLifetime       time.Duration
	InterProjectDelay time.Duration
	MinHumanDelay     time.Duration
	MaxHumanDelay     time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		TabLifetime:       10 * time.Second,
		InterProjectDelay: 2 * time.Second,
		MinHumanDelay:     2 * time.Second,
		MaxHumanDelay:     5 * time.Second,
	}
}

// SkipReason tells why Active-tab mode did not dispatch.
type SkipReason string

const (
	SkipAutoVoteOff SkipReason = "auto_vote_off"
	SkipNoProject   SkipReason = "no_project"
	SkipDisabled    SkipReason = "disabled"
	SkipCooldown    SkipReason = "cooldown"
)

// Attempt is the result of Active-tab mode on one page.
type Attempt struct {
	URL       string
	ProjectID string
	Project   string
	// Outcome is empty when the attempt was skipped.
	Outcome dispatch.Outcome
	Skipped SkipReason
}

// BatchResult summarizes one Batch run.
type BatchResult struct {
	RunID    string
	Eligible int
	Opened   int
	// Failed lists the names of projects whose tab could not be opened.
	Failed   []string
	Duration time.Duration
}

// Runner runs vote attempts.
type Runner struct {
	projects   ProjectSource
	settings   SettingsSource
	dispatcher Dispatcher
	browser    browser.Browser
	clock      clockwork.Clock
	cfg        Config
	metrics    *metrics.Metrics
	random     func() float64
	logger     *slog.Logger

	tabs sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics counts tab opens and batch runs on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithRandom replaces the source of the human delay; fn returns a value in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(r *Runner) {
		r.random = fn
	}
}

// New creates a Runner. A nil clock uses the real clock.
func New(projects ProjectSource, settingsSrc SettingsSource, dispatcher Dispatcher, b browser.Browser, clock clockwork.Clock, cfg Config, logger *slog.Logger, opts ...Option) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Runner{
		projects:   projects,
		settings:   settingsSrc,
		dispatcher: dispatcher,
		browser:    b,
		clock:      clock,
		cfg:        cfg,
		random:     rand.Float64,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) humanDelay() time.Duration {
	spread := r.cfg.MaxHumanDelay - r.cfg.MinHumanDelay
	return r.cfg.MinHumanDelay + time.Duration(r.random()*float64(spread))
}

// ActiveTab votes on an already loaded page when it belongs to an enabled project whose cooldown
// has elapsed and auto-vote is on.
func (r *Runner) ActiveTab(ctx context.Context, page browser.Page) (Attempt, error) {
	current, err := r.settings.Get(ctx)
	if err != nil {
		return Attempt{}, err
	}

	pageURL, err := page.URL(ctx)
	if err != nil {
		return Attempt{}, fmt.Errorf("reading page url: %w", err)
	}
	attempt := Attempt{URL: pageURL}

	if !current.AutoVoteOnVisit {
		r.logger.Debug("auto-vote on visit is disabled", "url", pageURL)
		attempt.Skipped = SkipAutoVoteOff
		return attempt, nil
	}

	proj, err := r.projects.FindByURL(ctx, pageURL)
	if errors.Is(err, project.ErrProjectNotFound) {
		r.logger.Debug("no matching project for page", "url", pageURL)
		attempt.Skipped = SkipNoProject
		return attempt, nil
	}
	if err != nil {
		return attempt, err
	}
	attempt.ProjectID = proj.ID
	attempt.Project = proj.Name

	if !proj.Enabled {
		attempt.Skipped = SkipDisabled
		return attempt, nil
	}
	if !project.CanVoteNow(*proj, r.clock.Now()) {
		r.logger.Debug("project still cooling down", "project", proj.Name)
		attempt.Skipped = SkipCooldown
		return attempt, nil
	}

	delay := r.humanDelay()
	r.logger.Debug("waiting before voting", "project", proj.Name, "delay", delay)
	if err := wait.Sleep(ctx, r.clock, delay); err != nil {
		return attempt, err
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return attempt, fmt.Errorf("parsing page url: %w", err)
	}
	outcome, err := r.dispatcher.Dispatch(ctx, u.Hostname(), page, *proj)
	attempt.Outcome = outcome
	if err != nil {
		return attempt, err
	}
	r.logger.Info("vote attempt finished", "project", proj.Name, "outcome", outcome)
	return attempt, nil
}

// Batch opens a background tab for every eligible project in order, one at a time, with the
// inter-project delay between opens. Each tab runs Active-tab mode and is closed once its lifetime
// ends, whatever the outcome. A tab that fails to open is logged and skipped.
func (r *Runner) Batch(ctx context.Context) (BatchResult, error) {
	result := BatchResult{RunID: uuid.NewString()}
	start := r.clock.Now()
	logger := r.logger.With("run_id", result.RunID)

	eligible, err := r.projects.Eligible(ctx)
	if err != nil {
		return result, fmt.Errorf("selecting eligible projects: %w", err)
	}
	result.Eligible = len(eligible)
	logger.Info("batch started", "eligible", len(eligible))

	for i, proj := range eligible {
		if i > 0 {
			if err := wait.Sleep(ctx, r.clock, r.cfg.InterProjectDelay); err != nil {
				return result, err
			}
		}

		if err := r.openTab(ctx, logger, proj); err != nil {
			logger.Warn("opening tab failed", "project", proj.Name, "url", proj.URL, "error", err)
			r.metrics.TabOpen(false)
			result.Failed = append(result.Failed, proj.Name)
			continue
		}
		r.metrics.TabOpen(true)
		result.Opened++
	}

	result.Duration = r.clock.Since(start)
	r.metrics.Batch(result.Duration.Seconds())
	logger.Info("batch finished", "opened", result.Opened, "failed", len(result.Failed), "duration", result.Duration)
	return result, nil
}

// openTab opens proj in a background tab and hands it to Active-tab mode. The tab lifetime bounds
// both the page load and the vote attempt.
func (r *Runner) openTab(ctx context.Context, logger *slog.Logger, proj project.Project) error {
	tabCtx, cancel := context.WithCancel(ctx)
	lifetime := r.clock.AfterFunc(r.cfg.TabLifetime, cancel)

	tab, err := r.browser.Open(tabCtx, proj.URL, true)
	if err != nil {
		lifetime.Stop()
		cancel()
		return err
	}

	r.tabs.Add(1)
	go func() {
		defer r.tabs.Done()
		defer tab.Close()
		defer cancel()

		attempt, err := r.ActiveTab(tabCtx, tab)
		switch {
		case err != nil && tabCtx.Err() != nil:
			logger.Info("tab closed before the vote finished", "project", proj.Name)
		case err != nil:
			logger.Warn("vote attempt failed", "project", proj.Name, "error", err)
		case attempt.Skipped != "":
			logger.Debug("vote attempt skipped", "project", proj.Name, "reason", attempt.Skipped)
		}
		<-tabCtx.Done()
	}()
	return nil
}

// Wait blocks until every tab opened by Batch has closed.
func (r *Runner) Wait() {
	r.tabs.Wait()
}

// Visit opens pageURL in a foreground tab, runs Active-tab mode on it and closes the tab.
func (r *Runner) Visit(ctx context.Context, pageURL string) (Attempt, error) {
	tab, err := r.browser.Open(ctx, pageURL, false)
	if err != nil {
		return Attempt{URL: pageURL}, err
	}
	defer tab.Close()
	return r.ActiveTab(ctx, tab)
}
