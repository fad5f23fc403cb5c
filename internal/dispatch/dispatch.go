// Package dispatch finds and presses the vote control on a loaded page.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rpggio/autovote/internal/browser"
	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/metrics"
	"github.com/rpggio/autovote/internal/wait"
)

// Outcome is the result of one dispatch.
type Outcome string

const (
	Voted          Outcome = "voted"
	NoButtonFound  Outcome = "no_button"
	CaptchaBlocked Outcome = "captcha"
)

const (
	captchaMessage  = "⚠️ Captcha detected! Please solve it manually."
	noButtonMessage = "⚠️ Could not find vote button"
)

// SettingsSource reads the current settings.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Recorder stores a successful vote.
type Recorder interface {
	RecordVote(ctx context.Context, proj project.Project) error
}

// Dispatcher runs site strategies against pages.
type Dispatcher struct {
	registry     *Registry
	settings     SettingsSource
	recorder     Recorder
	clock        clockwork.Clock
	metrics      *metrics.Metrics
	logger       *slog.Logger
	pollInterval time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPollInterval sets how often the page is re-queried while waiting for a control.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		d.pollInterval = interval
	}
}

// WithMetrics counts outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a Dispatcher. A nil registry uses DefaultRegistry and a nil clock the real clock.
func New(registry *Registry, settingsSrc SettingsSource, recorder Recorder, clock clockwork.Clock, logger *slog.Logger, opts ...Option) *Dispatcher {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := &Dispatcher{
		registry:     registry,
		settings:     settingsSrc,
		recorder:     recorder,
		clock:        clock,
		logger:       logger,
		pollInterval: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch attempts one vote for proj on page. At most one element is clicked. A non-nil error
// with Outcome Voted means the click happened but recording it failed.
func (d *Dispatcher) Dispatch(ctx context.Context, hostname string, page browser.Page, proj project.Project) (Outcome, error) {
	current, err := d.settings.Get(ctx)
	if err != nil {
		return "", err
	}

	strategy := d.registry.Lookup(hostname)
	logger := d.logger.With("project", proj.Name, "site", strategy.Name)

	blocked, err := page.AnyMatch(ctx, CaptchaSelectors)
	if err != nil {
		return "", fmt.Errorf("scanning for captcha: %w", err)
	}
	if blocked {
		logger.Info("captcha detected, not voting")
		if current.CaptchaWarnings {
			d.toast(ctx, page, captchaMessage, browser.LevelWarning)
		}
		d.metrics.Dispatch(strategy.Name, string(CaptchaBlocked))
		return CaptchaBlocked, nil
	}

	button, found, err := wait.For(ctx, d.clock, wait.Policy{Timeout: strategy.Timeout, Interval: d.pollInterval},
		func(ctx context.Context) (browser.Element, bool, error) {
			return firstVisible(ctx, page, strategy.Selectors)
		})
	if err != nil {
		return "", fmt.Errorf("waiting for vote button: %w", err)
	}
	if !found {
		logger.Info("vote button not found", "timeout", strategy.Timeout)
		d.toast(ctx, page, noButtonMessage, browser.LevelWarning)
		d.metrics.Dispatch(strategy.Name, string(NoButtonFound))
		return NoButtonFound, nil
	}

	if err := wait.Sleep(ctx, d.clock, strategy.PreDelay); err != nil {
		return "", err
	}
	if err := button.ScrollIntoView(ctx); err != nil {
		return "", fmt.Errorf("scrolling to vote button: %w", err)
	}
	if err := wait.Sleep(ctx, d.clock, strategy.Settle); err != nil {
		return "", err
	}
	if err := button.Click(ctx); err != nil {
		return "", fmt.Errorf("clicking vote button: %w", err)
	}
	logger.Info("clicked vote button")
	d.metrics.Dispatch(strategy.Name, string(Voted))

	if err := d.recorder.RecordVote(ctx, proj); err != nil {
		return Voted, err
	}
	d.metrics.Vote()
	d.toast(ctx, page, strategy.SuccessMessage, browser.LevelSuccess)
	return Voted, nil
}

// firstVisible returns the first visible element by selector priority, then document order.
func firstVisible(ctx context.Context, page browser.Page, selectors []string) (browser.Element, bool, error) {
	for _, sel := range selectors {
		elements, err := page.QueryAll(ctx, sel)
		if err != nil {
			return nil, false, err
		}
		for _, el := range elements {
			visible, err := el.Visible(ctx)
			if err != nil {
				return nil, false, err
			}
			if visible {
				return el, true, nil
			}
		}
	}
	return nil, false, nil
}

func (d *Dispatcher) toast(ctx context.Context, page browser.Page, message string, level browser.Level) {
	if err := page.Toast(ctx, message, level); err != nil {
		d.logger.Debug("toast failed", "error", err)
	}
}
