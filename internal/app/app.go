// Package app wires the stores, services and vote engine into one runnable unit.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpggio/autovote/internal/browser"
	"github.com/rpggio/autovote/internal/bus"
	"github.com/rpggio/autovote/internal/config"
	"github.com/rpggio/autovote/internal/dispatch"
	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/domain/stats"
	"github.com/rpggio/autovote/internal/domain/vote"
	"github.com/rpggio/autovote/internal/mcp"
	"github.com/rpggio/autovote/internal/metrics"
	"github.com/rpggio/autovote/internal/notify"
	"github.com/rpggio/autovote/internal/runner"
	"github.com/rpggio/autovote/internal/scheduler"
	"github.com/rpggio/autovote/internal/sqlite"
)

// Deps are the outside collaborators. Every field is optional. Without a Browser the app has
// no Runner and voteAll fails.
type Deps struct {
	Clock      clockwork.Clock
	Browser    browser.Browser
	Registerer prometheus.Registerer
	Notifier   notify.Notifier
	Logger     *slog.Logger
	Version    string
	// StatsOptions are passed to the stats service, mostly to pin the calendar in tests.
	StatsOptions []stats.Option
}

// App holds every wired component.
type App struct {
	DB         *sqlite.DB
	Store      *sqlite.KVStore
	Projects   *project.Service
	Settings   *settings.Service
	Stats      *stats.Service
	Bus        *bus.Bus
	Metrics    *metrics.Metrics
	Dispatcher *dispatch.Dispatcher
	Runner     *runner.Runner
	Scheduler  *scheduler.Scheduler
	MCP        *sdkmcp.Server

	logger *slog.Logger
}

// New builds the app on an already migrated database.
func New(cfg config.Config, db *sqlite.DB, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	a := &App{DB: db, Store: sqlite.NewKVStore(db), logger: logger}
	a.Projects = project.NewService(sqlite.NewProjectRepository(db), clock, logger.With("component", "projects"))
	a.Settings = settings.NewService(sqlite.NewSettingsRepository(db), logger.With("component", "settings"))
	a.Stats = stats.NewService(sqlite.NewStatsRepository(db), clock, logger.With("component", "stats"), deps.StatsOptions...)
	a.Bus = bus.New(logger.With("component", "bus"))
	if deps.Registerer != nil {
		a.Metrics = metrics.New(deps.Registerer)
	}

	recorder := vote.NewRecorder(a.Projects, a.Stats, a.Bus, logger.With("component", "vote"))
	a.Dispatcher = dispatch.New(dispatch.DefaultRegistry(), a.Settings, recorder, clock,
		logger.With("component", "dispatch"), dispatch.WithMetrics(a.Metrics))

	var batcher runner.Batcher
	if deps.Browser != nil {
		a.Runner = runner.New(a.Projects, a.Settings, a.Dispatcher, deps.Browser, clock, runnerConfig(cfg.Vote),
			logger.With("component", "runner"), runner.WithMetrics(a.Metrics))
		batcher = a.Runner
	}
	runner.NewHandlers(batcher, a.Settings, notifier, logger.With("component", "handlers")).Register(a.Bus)

	a.Scheduler = scheduler.New(a.Stats, a.Bus, clock, cfg.Schedule.RolloverInterval.Std(), cfg.Schedule.BatchInterval.Std(),
		logger.With("component", "scheduler"))

	a.MCP = mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: a.Projects,
			Settings: a.Settings,
			Stats:    a.Stats,
			Store:    a.Store,
			Bus:      a.Bus,
		},
		Clock:   clock,
		Version: deps.Version,
		Logger:  logger.With("component", "mcp"),
	})

	return a
}

// RunScheduler blocks running the rollover and batch alarms until ctx is canceled.
func (a *App) RunScheduler(ctx context.Context) {
	a.logger.Info("scheduler starting")
	a.Scheduler.Run(ctx)
	a.logger.Info("scheduler stopped")
}

// Wait blocks until open tabs are closed and published messages are handled.
func (a *App) Wait() {
	if a.Runner != nil {
		a.Runner.Wait()
	}
	a.Bus.Wait()
}

func runnerConfig(v config.VoteConfig) runner.Config {
	return runner.Config{
		TabLifetime:       v.TabLifetime.Std(),
		InterProjectDelay: v.InterProjectDelay.Std(),
		MinHumanDelay:     v.MinHumanDelay.Std(),
		MaxHumanDelay:     v.MaxHumanDelay.Std(),
	}
}
