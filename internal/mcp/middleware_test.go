package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type settingsStub struct{ err error }

func (s settingsStub) Get(context.Context) (settings.Settings, error) {
	return settings.Default(), s.err
}

func (s settingsStub) Update(context.Context, settings.UpdateRequest) (settings.Settings, error) {
	return settings.Default(), s.err
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := NewServer(cfg).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
	})
	return session
}

func TestMiddleware_LogsToolCallsAndTraffic(t *testing.T) {
	out := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	session := connect(t, Config{Services: Services{Settings: settingsStub{}}, Logger: logger})

	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "get_settings", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)

	logs := out.String()
	require.Contains(t, logs, `msg="tool call" tool=get_settings`)
	require.Contains(t, logs, `msg="mcp traffic" stage=request direction=inbound method=tools/call`)
	require.Contains(t, logs, `tool=get_settings params=`)
	require.Contains(t, logs, `stage=response direction=inbound method=tools/call`)
	require.Contains(t, logs, `tool=get_settings result=`)
}

func TestMiddleware_LogsToolErrors(t *testing.T) {
	out := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	session := connect(t, Config{Services: Services{Settings: settingsStub{err: errors.New("disk gone")}}, Logger: logger})

	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "get_settings", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.True(t, res.IsError)

	require.Contains(t, out.String(), `msg="tool returned error" tool=get_settings`)
	require.NotContains(t, out.String(), "mcp traffic")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("other")))

	notFound := MapError(fmt.Errorf("toggle: %w", project.ErrProjectNotFound))
	require.Equal(t, "PROJECT_NOT_FOUND", notFound.Code)
	require.Contains(t, notFound.Error(), "list_projects")

	invalid := MapError(fmt.Errorf("%w: interval must be positive", project.ErrInvalidInput))
	require.Equal(t, "INVALID_INPUT", invalid.Code)
	require.Contains(t, invalid.Message, "interval must be positive")

	require.Equal(t, "INTERNAL", toolError(errors.New("boom")).(*APIError).Code)
}

func TestFormatPayload(t *testing.T) {
	require.Equal(t, "<nil>", formatPayload(nil))
	require.Equal(t, `{"a":1}`, formatPayload(map[string]int{"a": 1}))
	require.Equal(t, "chan int", formatPayload(make(chan int)))
}
