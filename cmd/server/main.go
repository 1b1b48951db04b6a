// Package main provides the entry point for the author reconciliation HTTP
// API. Runs are executed by the worker; this process starts, queries and
// cancels them through Temporal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/helixir/author-reconciliation-service/internal/config"
	"github.com/helixir/author-reconciliation-service/internal/events"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/providers/builtin"
	httpserver "github.com/helixir/author-reconciliation-service/internal/server/http"
	"github.com/helixir/author-reconciliation-service/internal/temporal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("author-reconciliation-service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientCfg := temporal.ClientConfig{
		HostPort:         cfg.Temporal.HostPort,
		Namespace:        cfg.Temporal.Namespace,
		TaskQueue:        cfg.Temporal.TaskQueue,
		RunTimeout:       cfg.Temporal.RunTimeout,
		HeartbeatTimeout: cfg.Temporal.HeartbeatTimeout,
	}
	temporalClient, err := temporal.NewClient(clientCfg, logger)
	if err != nil {
		return fmt.Errorf("connect to temporal: %w", err)
	}
	runs := temporal.NewReconciliationClient(temporalClient, clientCfg)
	defer runs.Close()
	logger.Info().
		Str("host_port", cfg.Temporal.HostPort).
		Str("task_queue", runs.TaskQueue()).
		Msg("temporal client connected")

	registry := builtin.NewRegistry(cfg.Providers)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv := httpserver.NewServer(httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsPath:     metricsPath,
	}, runs, registry, map[string]httpserver.HealthCheck{
		"temporal": runs.Health,
	}, logger)

	errCh := make(chan error, 2)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var listener *events.Listener
	if cfg.Kafka.Enabled && cfg.Kafka.RequestTopic != "" {
		listener = events.NewListener(cfg.Kafka, runs, logger)
		go func() {
			logger.Info().Str("topic", cfg.Kafka.RequestTopic).Msg("run request listener starting")
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run request listener error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error, shutting down")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if listener != nil {
		if err := listener.Close(); err != nil {
			logger.Error().Err(err).Msg("run request listener close error")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}
