// Package testserver runs the whole app on an in-memory database with a fake browser and clock.
package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/autovote/internal/app"
	"github.com/rpggio/autovote/internal/browser/browsertest"
	"github.com/rpggio/autovote/internal/config"
	"github.com/rpggio/autovote/internal/domain/stats"
	"github.com/rpggio/autovote/internal/sqlite"
)

// Start is the fake clock's initial time.
var Start = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

type TestServer struct {
	App      *app.App
	DB       *sqlite.DB
	Clock    *clockwork.FakeClock
	Browser  *browsertest.Browser
	Registry *prometheus.Registry
	Session  *sdkmcp.ClientSession
}

// New starts the app and connects an MCP client to it over in-memory transports.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	ts := &TestServer{
		DB:       db,
		Clock:    clockwork.NewFakeClockAt(Start),
		Browser:  &browsertest.Browser{},
		Registry: prometheus.NewRegistry(),
	}

	cfg := config.Default()
	ts.App = app.New(cfg, db, app.Deps{
		Clock:        ts.Clock,
		Browser:      ts.Browser,
		Registerer:   ts.Registry,
		Version:      "test",
		StatsOptions: []stats.Option{stats.WithDateFunc(UTCDate)},
	})

	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := ts.App.MCP.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	ts.Session, err = client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = ts.Session.Close()
		_ = serverSession.Wait()
		ts.DriveUntil(t, waitDone(ts.App.Wait))
		_ = db.Close()
	})

	return ts
}

// UTCDate renders calendar dates in UTC so tests do not depend on the host time zone.
func UTCDate(t time.Time) string {
	return t.UTC().Format("Mon Jan 02 2006")
}

// CallTool calls a tool, fails the test on protocol errors and returns the raw result.
func (ts *TestServer) CallTool(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	result, err := ts.Session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return result
}

// CallToolInto calls a tool that must succeed and decodes its structured output into out.
func (ts *TestServer) CallToolInto(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	result := ts.CallTool(t, name, args)
	require.False(t, result.IsError, "tool %s failed: %s", name, ToolErrorText(result))

	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

// ToolErrorText returns the text content of a failed tool result.
func ToolErrorText(result *sdkmcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// DriveUntil advances the fake clock in small steps until done is closed.
func (ts *TestServer) DriveUntil(t *testing.T, done <-chan struct{}) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("timed out driving the fake clock")
		default:
			ts.Clock.Advance(100 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
}

func waitDone(fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	return done
}
