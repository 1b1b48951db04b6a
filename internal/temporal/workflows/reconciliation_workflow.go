// Package workflows defines the Temporal workflow of a reconciliation run.
package workflows

import (
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	rtemporal "github.com/helixir/author-reconciliation-service/internal/temporal"
	"github.com/helixir/author-reconciliation-service/internal/temporal/activities"
)

// QueryProgress is re-exported so callers of this package need not import
// the parent.
const QueryProgress = rtemporal.QueryProgress

// ReconciliationInput is the shared input type of the parent package.
type ReconciliationInput = rtemporal.ReconciliationInput

// ReconciliationWorkflow runs one provider over every registered author as a
// single heartbeating activity. The activity is attempted once; a failed run
// is re-run by starting a new workflow. Progress is exposed through the
// "progress" query and reflects the activity result once it returns.
func ReconciliationWorkflow(ctx workflow.Context, input ReconciliationInput) (*domain.RunResult, error) {
	logger := workflow.GetLogger(ctx)

	progress := &rtemporal.RunProgress{
		State:    domain.RunStateRunning,
		Provider: input.Provider,
		RunID:    input.RunID,
	}
	if err := workflow.SetQueryHandler(ctx, QueryProgress, func() (*rtemporal.RunProgress, error) {
		return progress, nil
	}); err != nil {
		return nil, fmt.Errorf("register query handler: %w", err)
	}

	runTimeout := input.RunTimeout
	if runTimeout <= 0 {
		runTimeout = rtemporal.DefaultRunTimeout
	}
	heartbeatTimeout := input.HeartbeatTimeout
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = rtemporal.DefaultHeartbeatTimeout
	}

	actCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: runTimeout,
		HeartbeatTimeout:    heartbeatTimeout,
		WaitForCancellation: true,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	logger.Info("reconciliation run started", "provider", input.Provider, "runID", input.RunID)

	var act *activities.ReconciliationActivities
	var result domain.RunResult
	err := workflow.ExecuteActivity(actCtx, act.RunProviderBatch, activities.RunProviderBatchInput{
		RunID:    input.RunID,
		Provider: input.Provider,
	}).Get(ctx, &result)
	if err != nil {
		progress.State = domain.RunStateFailed
		progress.Error = err.Error()
		logger.Error("reconciliation run failed", "provider", input.Provider, "runID", input.RunID, "error", err)
		return nil, err
	}

	progress.State = result.State
	progress.Processed = result.Processed
	progress.Total = result.Total
	progress.Matched = result.Matched
	progress.Percent = percent(result)

	logger.Info("reconciliation run completed",
		"provider", input.Provider,
		"runID", input.RunID,
		"processed", result.Processed,
		"matched", result.Matched,
	)
	return &result, nil
}

func percent(r domain.RunResult) int {
	if r.Total == 0 {
		if r.State == domain.RunStateCompleted {
			return 100
		}
		return 0
	}
	return r.Processed * 100 / r.Total
}
