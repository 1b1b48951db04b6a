// Package activities holds the Temporal activities of a reconciliation run.
//
// Activity inputs and outputs cross the Temporal serialization boundary, so
// every field is exported and JSON-encodable.
package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/orchestrator"
	"github.com/helixir/author-reconciliation-service/internal/providers"
)

// Application error types that stop a run without retry.
const (
	ErrTypeUnknownProvider  = "UnknownProvider"
	ErrTypeProviderDisabled = "ProviderDisabled"
	ErrTypeBatchFatal       = "BatchFatal"
)

// ProviderLookup resolves a provider by registry name.
type ProviderLookup interface {
	Get(name string) (providers.Provider, bool)
}

// BatchRunner runs one provider over every author.
type BatchRunner interface {
	Run(ctx context.Context, p providers.Provider, onProgress orchestrator.ProgressFunc) (domain.RunResult, error)
}

// RunProviderBatchInput is the serializable input of RunProviderBatch.
type RunProviderBatchInput struct {
	// RunID correlates logs, metrics and events of the run.
	RunID string

	// Provider is the registry name of the provider.
	Provider string
}

// ReconciliationActivities runs reconciliation batches inside Temporal.
// Methods on this struct are registered as Temporal activities via the worker.
type ReconciliationActivities struct {
	providers ProviderLookup
	runner    BatchRunner
}

// NewReconciliationActivities creates the activities.
func NewReconciliationActivities(lookup ProviderLookup, runner BatchRunner) *ReconciliationActivities {
	return &ReconciliationActivities{providers: lookup, runner: runner}
}

// RunProviderBatch resolves the provider and runs the batch, heartbeating
// after every author. Cancelling the activity stops the batch before its
// next author.
func (a *ReconciliationActivities) RunProviderBatch(ctx context.Context, input RunProviderBatchInput) (*domain.RunResult, error) {
	logger := activity.GetLogger(ctx)
	info := activity.GetInfo(ctx)

	p, ok := a.providers.Get(input.Provider)
	if !ok {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("unknown provider %q", input.Provider), ErrTypeUnknownProvider, nil)
	}
	if !p.IsEnabled() {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("provider %q is disabled", input.Provider), ErrTypeProviderDisabled, nil)
	}

	ctx = observability.WithRun(ctx, input.RunID, p.Name())
	ctx = observability.WithWorkflow(ctx, info.WorkflowExecution.ID, info.WorkflowExecution.RunID)

	logger.Info("running provider batch", "provider", p.Name(), "runID", input.RunID)

	result, err := a.runner.Run(ctx, p, func(progress domain.Progress) {
		activity.RecordHeartbeat(ctx, progress)
	})
	if err != nil {
		logger.Error("provider batch failed",
			"provider", p.Name(),
			"runID", input.RunID,
			"processed", result.Processed,
			"total", result.Total,
			"error", err,
		)
		if errors.Is(err, domain.ErrBatchFatal) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeBatchFatal, err, result)
		}
		return nil, fmt.Errorf("run provider %s: %w", p.Name(), err)
	}

	return &result, nil
}
