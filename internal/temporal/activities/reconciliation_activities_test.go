package activities

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/orchestrator"
	"github.com/helixir/author-reconciliation-service/internal/providers"
)

type stubProvider struct {
	name    string
	enabled bool
}

func (p stubProvider) Name() string                  { return p.name }
func (p stubProvider) EndpointName() string          { return p.name + " Provider" }
func (p stubProvider) IsEnabled() bool               { return p.enabled }
func (p stubProvider) Template() candidates.Template { return candidates.Template{Pattern: "{first} {last}"} }

func (p stubProvider) Lookup(context.Context, string) (*providers.LookupResult, error) {
	return &providers.LookupResult{StatusCode: 200}, nil
}

// stubRunner reports progress for total authors and returns result/err.
type stubRunner struct {
	total  int
	err    error
	runID  string
	called bool
}

func (r *stubRunner) Run(ctx context.Context, p providers.Provider, onProgress orchestrator.ProgressFunc) (domain.RunResult, error) {
	r.called = true
	r.runID, _ = observability.RunFromContext(ctx)

	progress := domain.NewProgress(r.total)
	for i := 0; i < r.total; i++ {
		progress, _ = progress.Advance()
		onProgress(progress)
	}
	state := domain.RunStateCompleted
	if r.err != nil {
		state = domain.RunStateFailed
	}
	return domain.RunResult{
		RunID:     r.runID,
		Provider:  p.Name(),
		State:     state,
		Processed: progress.Processed,
		Total:     r.total,
		Matched:   1,
	}, r.err
}

func newActivityEnv(t *testing.T, runner *stubRunner) (*testsuite.TestActivityEnvironment, *ReconciliationActivities) {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestActivityEnvironment()

	registry := providers.NewRegistry(
		stubProvider{name: "dblp", enabled: true},
		stubProvider{name: "scopus", enabled: false},
	)
	acts := NewReconciliationActivities(registry, runner)
	env.RegisterActivity(acts.RunProviderBatch)
	return env, acts
}

func TestRunProviderBatch_Success(t *testing.T) {
	runner := &stubRunner{total: 3}
	env, acts := newActivityEnv(t, runner)

	val, err := env.ExecuteActivity(acts.RunProviderBatch, RunProviderBatchInput{RunID: "run-1", Provider: "dblp"})
	require.NoError(t, err)

	var result domain.RunResult
	require.NoError(t, val.Get(&result))
	assert.Equal(t, domain.RunStateCompleted, result.State)
	assert.Equal(t, "dblp", result.Provider)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, "run-1", runner.runID)
}

func TestRunProviderBatch_UnknownProvider(t *testing.T) {
	runner := &stubRunner{}
	env, acts := newActivityEnv(t, runner)

	_, err := env.ExecuteActivity(acts.RunProviderBatch, RunProviderBatchInput{RunID: "run-1", Provider: "orcid"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeUnknownProvider, appErr.Type())
	assert.True(t, appErr.NonRetryable())
	assert.False(t, runner.called)
}

func TestRunProviderBatch_DisabledProvider(t *testing.T) {
	runner := &stubRunner{}
	env, acts := newActivityEnv(t, runner)

	_, err := env.ExecuteActivity(acts.RunProviderBatch, RunProviderBatchInput{RunID: "run-1", Provider: "scopus"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeProviderDisabled, appErr.Type())
	assert.False(t, runner.called)
}

func TestRunProviderBatch_BatchFatalIsNotRetried(t *testing.T) {
	runner := &stubRunner{err: domain.NewBatchFatalError(errors.New("registry unreachable"))}
	env, acts := newActivityEnv(t, runner)

	_, err := env.ExecuteActivity(acts.RunProviderBatch, RunProviderBatchInput{RunID: "run-1", Provider: "dblp"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeBatchFatal, appErr.Type())
	assert.True(t, appErr.NonRetryable())
	assert.Contains(t, err.Error(), "registry unreachable")
}

func TestRunProviderBatch_OtherFailures(t *testing.T) {
	runner := &stubRunner{total: 1, err: errors.New("run cancelled after 1 of 2 authors")}
	env, acts := newActivityEnv(t, runner)

	_, err := env.ExecuteActivity(acts.RunProviderBatch, RunProviderBatchInput{RunID: "run-1", Provider: "dblp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run provider dblp")
}
