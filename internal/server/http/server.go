// Package httpserver provides the HTTP API for starting and inspecting
// reconciliation runs.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/temporal"
)

// RunService starts and inspects reconciliation runs.
type RunService interface {
	StartRun(ctx context.Context, provider string) (string, error)
	QueryProgress(ctx context.Context, workflowID string) (*temporal.RunProgress, error)
	CancelRun(ctx context.Context, workflowID string) error
}

// ProviderCatalog lists the configured providers.
type ProviderCatalog interface {
	Get(name string) (providers.Provider, bool)
	Names() []string
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	runs       RunService
	providers  ProviderCatalog
	checks     map[string]HealthCheck
	metrics    bool
	metricsURL string
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string
}

// NewServer creates the server. checks are run by /readyz, keyed by
// dependency name.
func NewServer(cfg Config, runs RunService, catalog ProviderCatalog, checks map[string]HealthCheck, logger zerolog.Logger) *Server {
	s := &Server{
		runs:       runs,
		providers:  catalog,
		checks:     checks,
		metrics:    cfg.MetricsPath != "",
		metricsURL: cfg.MetricsPath,
		logger:     logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)
	if s.metrics {
		r.Handle(s.metricsURL, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Get("/providers", s.listProviders)
		r.Post("/reconciliations", s.startReconciliation)
		r.Get("/reconciliations/{workflowID}", s.getReconciliation)
		r.Delete("/reconciliations/{workflowID}", s.cancelReconciliation)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler reports liveness only.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler runs every dependency check.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}
