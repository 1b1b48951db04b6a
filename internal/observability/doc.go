// Package observability provides logging and metrics for the author
// reconciliation service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithRunContext(logger, runID, "dblp")
//	logger.Info().Int("processed", 10).Msg("reconciliation progress")
//
// # Metrics
//
// Metrics are registered with the default Prometheus registry:
//
//	metrics := observability.NewMetrics("author_reconciliation")
//	metrics.RecordOutcome("dblp", "matched")
//
// Every Record method is a no-op on a nil *Metrics, so components accept
// an optional metrics handle.
//
// # Standard Fields
//
//   - run_id: reconciliation run identifier
//   - provider: provider registry key (dblp, scopus)
//   - author_id: internal author resource
//   - query: rendered candidate query
//   - priority: candidate position, 1 first
//   - workflow_id, workflow_run_id: Temporal identifiers
package observability
