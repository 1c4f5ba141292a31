package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhishekK50/wardenxt/internal/config"
	"github.com/abhishekK50/wardenxt/internal/execution"
	"github.com/abhishekK50/wardenxt/internal/generator"
	"github.com/abhishekK50/wardenxt/internal/health"
	"github.com/abhishekK50/wardenxt/internal/incident"
	"github.com/abhishekK50/wardenxt/internal/log"
	"github.com/abhishekK50/wardenxt/internal/metrics"
	"github.com/abhishekK50/wardenxt/internal/provider"
	"github.com/abhishekK50/wardenxt/internal/safety"
	"github.com/abhishekK50/wardenxt/internal/server"
	"github.com/abhishekK50/wardenxt/internal/service"
	"github.com/abhishekK50/wardenxt/internal/store"
	"github.com/abhishekK50/wardenxt/internal/telemetry"
	"github.com/abhishekK50/wardenxt/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WardenXT API server",
	Long: `Start the HTTP API that generates, caches, validates and executes
runbooks, together with Kubernetes-style health endpoints:

  /health/live    - Liveness probe (process alive and responsive)
  /health/ready   - Readiness probe (ready to accept traffic)
  /health/startup - Startup probe (finished initialization)
  /healthz        - Backward-compatible readiness endpoint
  /metrics        - Prometheus metrics
  /openapi.yaml   - API description

Without a provider API key the server still starts; generation fails with
PROVIDER-001 and the readiness probe reports the provider as degraded.

Example:
  # Start with defaults (0.0.0.0:8000)
  wardenxt serve

  # Override the port and the incident directory
  WARDENXT_INCIDENTS_DIR=/var/lib/wardenxt/incidents wardenxt serve --port 9090`,
	RunE: runServe,
}

var (
	servePort    int
	serveAddress string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default server.port)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "address to bind to (default server.address)")

	rootCmd.AddCommand(serveCmd)
}

// app is a fully wired server process.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	provider provider.Client
	service  *service.Service
	probes   *health.ProbeManager
	server   *server.Server
}

// buildApp wires every component from cfg.
func buildApp(cfg *config.Config, logger *log.Logger) (*app, error) {
	classifier, err := safety.NewFromPolicyFile(cfg.Safety.PolicyFile)
	if err != nil {
		return nil, err
	}

	client, err := newProvider(cfg.Provider, logger)
	if err != nil {
		return nil, err
	}

	registry, m := metrics.NewRegistry()
	source := incident.NewFileSource(cfg.Incidents.Dir, logger)

	gen := generator.New(client,
		generator.WithLogger(logger),
		generator.WithDefaultMaxSteps(cfg.Runbooks.DefaultMaxSteps),
	)
	st := store.NewMemoryStore(store.WithEvictionHook(func(incidentID string) {
		m.RecordEviction("expired")
		logger.Debug("runbook expired", "incident_id", incidentID)
	}))
	controller := execution.NewController(
		execution.WithClassifier(classifier),
		execution.WithLogger(logger),
	)
	svc := service.New(source, gen, st,
		service.WithClassifier(classifier),
		service.WithController(controller),
		service.WithMetrics(m),
		service.WithLogger(logger),
	)

	probes := health.NewProbeManager(version.GetInfo().Version)
	probes.AddChecker(health.NewSourceChecker(source))
	probes.AddChecker(health.NewProviderChecker(client))

	srv := server.New(svc, probes, server.Config{
		Address:         cfg.Server.ListenAddress(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
	}, server.WithMetrics(m, registry), server.WithLogger(logger))

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: client,
		service:  svc,
		probes:   probes,
		server:   srv,
	}, nil
}

// newProvider builds the configured provider, or an Unconfigured one when
// no API key is set.
func newProvider(cfg provider.Config, logger *log.Logger) (provider.Client, error) {
	if cfg.APIKey == "" {
		logger.Warn("no provider API key configured; runbook generation is disabled",
			"provider", cfg.Name)
		return provider.Unconfigured{Name: cfg.Name, Model: cfg.Model}, nil
	}
	return provider.New(cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	info := version.GetInfo()

	shutdownTracing, err := telemetry.InitProvider(ctx, telemetry.Config{
		ServiceName:    "wardenxt",
		ServiceVersion: info.Version,
		Environment:    cfg.Telemetry.Environment,
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return err
	}

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.provider.Close()

	printBanner(cmd.OutOrStdout(), a, info)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	select {
	case err := <-serverErr:
		_ = shutdownTracing(context.Background())
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		logger.Info("shutdown requested", "reason", context.Cause(ctx).Error())

		// ctx is already cancelled; draining gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err.Error())
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Server stopped gracefully")
		return nil
	}
}

func printBanner(w io.Writer, a *app, info version.Info) {
	addr := a.cfg.Server.ListenAddress()
	providerInfo := a.provider.Info()
	fmt.Fprintf(w, "\nWardenXT %s\n", info.Version)
	fmt.Fprintf(w, "Listening on: http://%s\n", addr)
	fmt.Fprintf(w, "Incidents:    %s\n", a.cfg.Incidents.Dir)
	if providerInfo.Configured {
		fmt.Fprintf(w, "Provider:     %s (%s)\n", providerInfo.Name, providerInfo.Model)
	} else {
		fmt.Fprintf(w, "Provider:     %s (not configured, generation disabled)\n", providerInfo.Name)
	}
	fmt.Fprintf(w, "Runbook TTL:  %s\n\n", a.cfg.Runbooks.TTL)
	fmt.Fprintf(w, "API:          http://%s/api/v1\n", addr)
	fmt.Fprintf(w, "Health:       http://%s/health/ready\n", addr)
	fmt.Fprintf(w, "Metrics:      http://%s/metrics\n\n", addr)
	fmt.Fprintf(w, "Press Ctrl+C to stop the server\n\n")
}
