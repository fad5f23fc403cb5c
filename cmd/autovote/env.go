package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpggio/autovote/internal/app"
	"github.com/rpggio/autovote/internal/browser"
	"github.com/rpggio/autovote/internal/config"
	"github.com/rpggio/autovote/internal/sqlite"
)

// env is everything a command needs, opened from configuration.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlite.DB
	app      *app.App
	registry *prometheus.Registry
	chrome   *browser.Chrome
	closers  []func()
}

type envOptions struct {
	// withBrowser starts Chrome so the app gets a Runner.
	withBrowser bool
	// headful forces a visible browser window regardless of configuration.
	headful bool
	// registry, when set, receives the vote metrics.
	registry *prometheus.Registry
	logTo    io.Writer
}

func openEnv(ctx context.Context, opts envOptions) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logTo := opts.logTo
	if logTo == nil {
		logTo = os.Stderr
	}
	logger, closeLog, err := newLogger(cfg.Log, logTo)
	if err != nil {
		return nil, fmt.Errorf("log file error: %w", err)
	}
	e := &env{cfg: cfg, logger: logger, registry: opts.registry, closers: []func(){closeLog}}

	if err := ensureDir(cfg.DB.Path); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.db = db
	e.closers = append(e.closers, func() { _ = db.Close() })
	if err := db.RunMigrations(); err != nil {
		e.Close()
		return nil, err
	}

	deps := app.Deps{Logger: logger, Version: version}
	if opts.registry != nil {
		deps.Registerer = opts.registry
	}
	if opts.withBrowser {
		browserOpts := browser.Options{
			Headless:    cfg.Browser.Headless && !opts.headful,
			ExecPath:    cfg.Browser.ExecPath,
			UserDataDir: cfg.Browser.UserDataDir,
		}
		chrome, err := browser.NewChrome(ctx, browserOpts, logger.With("component", "chrome"))
		if err != nil {
			e.Close()
			return nil, err
		}
		e.chrome = chrome
		e.closers = append(e.closers, func() { _ = chrome.Close() })
		deps.Browser = chrome
	}

	e.app = app.New(cfg, db, deps)
	return e, nil
}

// Close waits for open tabs and pending messages, then releases resources in reverse order.
func (e *env) Close() {
	if e.app != nil {
		e.app.Wait()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}
