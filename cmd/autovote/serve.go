package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/autovote/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the MCP server",
	Long: `Runs the daily stats rollover, the optional periodic batch, and an MCP server
over stdio or HTTP (transport.mode). HTTP mode also serves /health and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		mode, _ := cmd.Flags().GetString("transport")
		if mode != "" {
			if err := os.Setenv("AUTOVOTE_TRANSPORT", mode); err != nil {
				return err
			}
		}
		noBrowser, _ := cmd.Flags().GetBool("no-browser")

		// Peek at the mode so stdio never logs to stdout.
		var logTo io.Writer = os.Stderr
		if os.Getenv("AUTOVOTE_TRANSPORT") == "http" {
			logTo = os.Stdout
		}

		reg := metrics.NewRegistry()
		e, err := openEnv(ctx, envOptions{withBrowser: !noBrowser, registry: reg, logTo: logTo})
		if err != nil {
			return err
		}
		defer e.Close()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.app.RunScheduler(ctx)
		}()
		defer wg.Wait()
		// The MCP server can end on its own (stdin closed), which must stop the scheduler too.
		defer stop()

		if e.cfg.Transport.Mode == "stdio" {
			return runStdioMode(ctx, e.logger, e.app.MCP)
		}
		addr := fmt.Sprintf("%s:%d", e.cfg.Server.Host, e.cfg.Server.Port)
		return runHTTPMode(ctx, e.logger, e.app.MCP, addr, metrics.Handler(reg))
	},
}

func init() {
	serveCmd.Flags().String("transport", "", "stdio or http (overrides transport.mode)")
	serveCmd.Flags().Bool("no-browser", false, "Do not start Chrome; vote_all will fail")
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, addr string, metricsHandler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newRouter(mcpServer, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return shutdown(logger, httpServer)
}

func newRouter(mcpServer *sdkmcp.Server, metricsHandler http.Handler) http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.Handle("/metrics", metricsHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return router
}

func shutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
