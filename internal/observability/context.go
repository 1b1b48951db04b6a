package observability

import (
	"context"
)

type contextKey string

const (
	runIDKey         contextKey = "run_id"
	providerKey      contextKey = "provider"
	workflowIDKey    contextKey = "workflow_id"
	workflowRunIDKey contextKey = "workflow_run_id"
)

// WithRun adds the reconciliation run and provider to the context.
func WithRun(ctx context.Context, runID, provider string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)
	return context.WithValue(ctx, providerKey, provider)
}

// RunFromContext retrieves the run and provider. Empty strings when absent.
func RunFromContext(ctx context.Context) (runID, provider string) {
	return stringValue(ctx, runIDKey), stringValue(ctx, providerKey)
}

// WithWorkflow adds workflow ID and run ID to the context.
func WithWorkflow(ctx context.Context, workflowID, runID string) context.Context {
	ctx = context.WithValue(ctx, workflowIDKey, workflowID)
	return context.WithValue(ctx, workflowRunIDKey, runID)
}

// WorkflowFromContext retrieves workflow ID and run ID from context.
func WorkflowFromContext(ctx context.Context) (workflowID, runID string) {
	return stringValue(ctx, workflowIDKey), stringValue(ctx, workflowRunIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
