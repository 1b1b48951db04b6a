// Package main provides the entry point for the author reconciliation Temporal worker.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
	"github.com/helixir/author-reconciliation-service/internal/config"
	"github.com/helixir/author-reconciliation-service/internal/database"
	"github.com/helixir/author-reconciliation-service/internal/events"
	"github.com/helixir/author-reconciliation-service/internal/matching"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/orchestrator"
	"github.com/helixir/author-reconciliation-service/internal/providers/builtin"
	"github.com/helixir/author-reconciliation-service/internal/queries"
	"github.com/helixir/author-reconciliation-service/internal/reconcile"
	"github.com/helixir/author-reconciliation-service/internal/similarity"
	"github.com/helixir/author-reconciliation-service/internal/store"
	"github.com/helixir/author-reconciliation-service/internal/temporal"
	"github.com/helixir/author-reconciliation-service/internal/temporal/activities"
	"github.com/helixir/author-reconciliation-service/internal/temporal/workflows"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is optional.
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
	logger = logger.With().Str("component", "worker").Logger()
	logger.Info().Msg("author-reconciliation-service worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	triples, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := builtin.NewRegistry(cfg.Providers)
	for _, p := range registry.Enabled() {
		logger.Info().Str("provider", p.Name()).Str("endpoint", p.EndpointName()).Msg("provider enabled")
	}

	metrics := observability.NewMetrics("author_reconciliation")

	publisher := events.NewPublisher(cfg.Kafka, logger)
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	builder := queries.NewBuilder()
	comparator := similarity.NewComparator(similarity.Thresholds{
		SemanticListList: cfg.Matching.SemanticDistanceListAListB,
		SemanticWordList: cfg.Matching.SemanticDistanceWordListB,
		SyntacticNames:   cfg.Matching.SyntacticDistanceNames,
	})

	orch := orchestrator.New(orchestrator.Deps{
		Authors:   store.NewAuthorRegistry(triples, builder, cfg.Store.AuthorsGraph, logger),
		Generator: candidates.NewGenerator(cfg.Candidates.DefaultRegion, cfg.Candidates.AnyAffiliation),
		Matcher:   matching.NewVerifier(builder, comparator, logger, metrics),
		Merger:    reconcile.NewEngine(builder, triples, cfg.Store.ProviderGraphPrefix, logger, metrics),
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})

	temporalClient, err := temporal.NewClient(temporal.ClientConfig{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to temporal: %w", err)
	}
	defer temporalClient.Close()
	logger.Info().
		Str("host_port", cfg.Temporal.HostPort).
		Str("namespace", cfg.Temporal.Namespace).
		Msg("temporal client connected")

	mgr, err := temporal.NewWorkerManager(temporalClient, temporal.DefaultWorkerConfig(cfg.Temporal.TaskQueue))
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	mgr.RegisterReconciliation(workflows.ReconciliationWorkflow, activities.NewReconciliationActivities(registry, orch))

	if cfg.Metrics.Enabled {
		metricsServer := serveMetrics(cfg, logger)
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("metrics server shutdown error")
			}
		}()
	}

	logger.Info().Str("task_queue", mgr.TaskQueue()).Msg("worker ready")
	if err := mgr.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker: %w", err)
	}

	logger.Info().Msg("worker stopped")
	return nil
}

// openStore connects the configured triple store backend.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.TripleStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		logger.Warn().Msg("using in-memory triple store; results are lost on exit")
		return store.NewMemoryStore(), func() {}, nil

	case config.StoreBackendNeo4j:
		driver, err := store.NewNeo4jDriver(ctx, cfg.Neo4j, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to neo4j: %w", err)
		}
		if err := driver.BuildIndices(ctx); err != nil {
			_ = driver.Close(ctx)
			return nil, nil, fmt.Errorf("build neo4j indices: %w", err)
		}
		logger.Info().Str("uri", cfg.Neo4j.URI).Msg("neo4j triple store ready")
		closer := func() {
			if err := driver.Close(context.Background()); err != nil {
				logger.Error().Err(err).Msg("failed to close neo4j driver")
			}
		}
		return store.NewNeo4jStore(driver), closer, nil

	default:
		db, err := database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if cfg.Database.MigrationAutoRun {
			if err := migrateUp(db, cfg.Database.MigrationPath, logger); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		logger.Info().Msg("postgres triple store ready")
		return store.NewPostgresStore(db), db.Close, nil
	}
}

func migrateUp(db *database.DB, path string, logger zerolog.Logger) error {
	migrator, err := database.NewMigrator(db, path, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func serveMetrics(cfg *config.Config, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.WorkerPort),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("address", srv.Addr).Msg("metrics server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	return srv
}
