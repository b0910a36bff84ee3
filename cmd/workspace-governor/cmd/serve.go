package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/workspace-governor/governor/internal/config"
	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/mcpio"
	"github.com/workspace-governor/governor/internal/policy"
	"github.com/workspace-governor/governor/internal/telemetry"
)

var traceEnabled bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stdio MCP server",
	Long: `Start the governor's MCP tool surface over stdio.

stdout is reserved for the MCP wire protocol; all logging goes to stderr.
An optional Prometheus /metrics listener is started alongside it when the
server.metrics_addr config key (or WORKSPACE_GOVERNOR_SERVER_METRICS_ADDR)
is set; serve has no command-line flag for it.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&traceEnabled, "trace", false, "emit an OpenTelemetry span per decision (dev profile only)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.Server.LogLevel, cfg.DevMode)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	policyCfg, err := policy.Load(cfg.Workspace.Profile, cfg.Workspace.PolicyFile, cfg.Workspace.Strict)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	gov, err := governor.New(policyCfg, cfg.Workspace.Root, cfg.Workspace.Strict, metrics)
	if err != nil {
		return fmt.Errorf("failed to construct governor: %w", err)
	}

	if cfg.Workspace.Profile == policy.ProfileDev && traceEnabled {
		tp, shutdown, err := telemetry.NewTracerProvider(os.Stderr, true)
		if err != nil {
			return fmt.Errorf("failed to start tracer: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
		gov.SetTracer(telemetry.Tracer(tp))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = metricsServer.Close()
		}()
	}

	logger.Info("workspace governor initialized",
		"root", gov.Root, "profile", gov.Config.Profile, "policy_hash", gov.Config.PolicyHash,
		"server_instance_id", gov.ServerInstanceID,
	)

	server := mcpio.New(gov, "workspace-governor", governor.KernelVersion)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}

	logger.Info("workspace governor stopped")
	return nil
}
