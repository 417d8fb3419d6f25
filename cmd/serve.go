package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxreply/internal/api"
	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/server"
	"github.com/teemow/inboxreply/internal/tools/reply_tools"
)

const (
	transportHTTP  = "http"
	transportStdio = "stdio"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reply API server",
		Long: `Start the reply API.

Supports two transports:
  - http: the JSON API for the web app, health probes, and MCP streamable
    HTTP at /mcp (default)
  - stdio: MCP over standard input/output only

Configuration comes from the environment (and an optional .env or
config.yaml). Flags override it:
  --port, --metrics-addr, --job-store, --log-level`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			instrConfig := instrumentation.DefaultConfig()
			instrConfig.ServiceVersion = version
			provider, err := instrumentation.NewProvider(ctx, instrConfig)
			if err != nil {
				return fmt.Errorf("failed to create instrumentation provider: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
				defer cancel()
				if err := provider.Shutdown(shutdownCtx); err != nil {
					logger.Warn("instrumentation shutdown failed", "error", err)
				}
			}()

			a, err := newApp(ctx, cfg, logger, provider.Metrics())
			if err != nil {
				return err
			}
			defer a.close()

			mcpSrv := mcpserver.NewMCPServer("inboxreply", version,
				mcpserver.WithToolCapabilities(true),
			)
			reply_tools.RegisterReplyTools(mcpSrv, a.orch, provider.Metrics(), logger)

			switch transport {
			case transportStdio:
				logger.Info("serving MCP over stdio")
				return runStdioServer(mcpSrv)
			case transportHTTP:
				if addr == "" {
					addr = ":" + cfg.Server.Port
				}
				return runHTTPServer(ctx, a, mcpSrv, provider, addr)
			default:
				return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportHTTP, "Transport type: http or stdio")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :$PORT)")
	cmd.Flags().String("port", "8000", "Listen port when --addr is not set")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Address of the Prometheus metrics server")
	cmd.Flags().String("job-store", "memory", "Job store: memory or redis")
	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")

	return cmd
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, a *app, mcpSrv *mcpserver.MCPServer, provider *instrumentation.Provider, addr string) error {
	logger := a.logger

	var metricsServer *server.MetricsServer
	if a.cfg.Metrics.Enabled && provider.Enabled() && provider.ServesPrometheus() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    a.cfg.Metrics.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	deps := a.apiDeps()
	// fiber's net/http adaptor buffers whole responses, so SSE streaming is off.
	deps.MCP = mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithDisableStreaming(true),
	)
	httpApp := api.New(deps)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		logger.Info("starting HTTP server",
			"addr", addr,
			"durable_store", a.db != nil,
			"cache", a.redis != nil,
			"job_store", a.cfg.JobStore,
			"oauth", a.flow != nil)
		if err := httpApp.Listen(addr); err != nil {
			serverDone <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	case err := <-serverDone:
		if err != nil {
			runErr = fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	a.health.MarkShuttingDown()
	if err := httpApp.ShutdownWithTimeout(server.DefaultShutdownTimeout); err != nil {
		logger.Warn("HTTP server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("HTTP server stopped", slog.Bool("clean", runErr == nil))
	return runErr
}
