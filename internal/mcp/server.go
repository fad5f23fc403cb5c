package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/autovote/internal/bus"
	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/domain/stats"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context) ([]project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Toggle(ctx context.Context, id string) (*project.Project, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context) (project.Summary, error)
}

// SettingsService defines settings operations needed by MCP.
type SettingsService interface {
	Get(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, req settings.UpdateRequest) (settings.Settings, error)
}

// StatsService defines stats operations needed by MCP.
type StatsService interface {
	Get(ctx context.Context) (stats.Stats, error)
	ResetAll(ctx context.Context) (stats.Stats, error)
}

// Store is the raw document store, used to clear everything.
type Store interface {
	Clear(ctx context.Context) error
}

// Sender delivers requests to the orchestrator.
type Sender interface {
	Send(ctx context.Context, msg bus.Message) bus.Response
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Settings SettingsService
	Stats    StatsService
	Store    Store
	Bus      Sender
}

// Config contains server configuration.
type Config struct {
	Services Services
	Clock    clockwork.Clock
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "autovote",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(toolLoggingMiddleware(cfg.Logger))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{services: cfg.Services, clock: cfg.Clock})

	return server
}
