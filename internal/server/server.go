// Package server exposes the runbook service over HTTP.
//
// Routes live under /api/v1. The health probes, /metrics and /openapi.yaml
// are served at the root. Shutdown fails readiness first, then drains
// connections.
package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhishekK50/wardenxt/internal/health"
	"github.com/abhishekK50/wardenxt/internal/log"
	"github.com/abhishekK50/wardenxt/internal/metrics"
	"github.com/abhishekK50/wardenxt/internal/service"
)

// Config holds listener settings. Zero durations take defaults.
type Config struct {
	Address         string        `mapstructure:"address" yaml:"address" json:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	// WriteTimeout must outlast a provider call, which may take two minutes.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`
}

// DefaultConfig returns the defaults applied to zero fields.
func DefaultConfig() Config {
	return Config{
		Address:         ":8000",
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    150 * time.Second,
		IdleTimeout:     60 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	return c
}

// Server serves the API.
type Server struct {
	svc             *service.Service
	probes          *health.ProbeManager
	metrics         *metrics.Metrics
	gatherer        prometheus.Gatherer
	logger          *log.Logger
	router          chi.Router
	httpServer      *http.Server
	shutdownTimeout time.Duration
	inShutdown      atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records HTTP metrics into m and serves g at /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server. Without WithMetrics the default registry is served.
func New(svc *service.Service, probes *health.ProbeManager, cfg Config, opts ...Option) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		svc:             svc,
		probes:          probes,
		gatherer:        prometheus.DefaultGatherer,
		logger:          log.DefaultLogger(),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured address and blocks until shutdown. It
// returns http.ErrServerClosed after a graceful Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.probes.MarkInitialized()
	s.logger.Info("http server listening", "address", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown fails readiness, stops keep-alives and waits up to the shutdown
// timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probes.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// IsShuttingDown reports whether Shutdown has been called.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}
