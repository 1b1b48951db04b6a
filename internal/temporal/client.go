package temporal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/observability"
)

// Workflow and query names. They live here so the server can start and query
// runs without importing the workflows package.
const (
	// WorkflowName is the registered name of the reconciliation workflow.
	WorkflowName = "ReconciliationWorkflow"

	// QueryProgress is the query name used to retrieve run progress.
	QueryProgress = "progress"
)

const (
	// DefaultRunTimeout bounds a single provider run.
	DefaultRunTimeout = 12 * time.Hour

	// DefaultHeartbeatTimeout is the longest gap allowed between heartbeats.
	DefaultHeartbeatTimeout = 5 * time.Minute

	// DefaultHealthCheckTimeout is the timeout for Temporal server health checks.
	DefaultHealthCheckTimeout = 5 * time.Second

	workflowIDPrefix = "reconcile-"
)

var (
	// ErrWorkflowNotFound indicates the workflow execution was not found.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowAlreadyStarted indicates a workflow with the same ID is already running.
	ErrWorkflowAlreadyStarted = errors.New("workflow already started")

	// ErrQueryFailed indicates the workflow query failed.
	ErrQueryFailed = errors.New("query failed")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("client closed")

	// ErrConnectionFailed indicates a connection failure to the Temporal server.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNamespaceNotFound indicates the namespace does not exist.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrInvalidArgument indicates an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDeadlineExceeded indicates the operation deadline was exceeded.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)

// TemporalError wraps a Temporal error with the operation and workflow it
// concerns.
type TemporalError struct {
	Op         string // Operation that failed
	Kind       error  // Category of error (sentinel)
	WorkflowID string // Workflow ID (if applicable)
	Err        error  // Underlying error
}

// Error returns the error message.
func (e *TemporalError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.WorkflowID != "" {
		msg += fmt.Sprintf(" [workflowID=%s]", e.WorkflowID)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *TemporalError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error's Kind.
func (e *TemporalError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// wrapTemporalError converts a Temporal SDK error to a TemporalError.
func wrapTemporalError(op string, err error, workflowID string) error {
	if err == nil {
		return nil
	}

	te := &TemporalError{Op: op, WorkflowID: workflowID, Err: err}

	var notFoundErr *serviceerror.NotFound
	var alreadyStartedErr *serviceerror.WorkflowExecutionAlreadyStarted
	var namespaceNotFoundErr *serviceerror.NamespaceNotFound
	var invalidArgumentErr *serviceerror.InvalidArgument
	var deadlineExceededErr *serviceerror.DeadlineExceeded
	var queryFailedErr *serviceerror.QueryFailed

	switch {
	case errors.As(err, &notFoundErr):
		te.Kind = ErrWorkflowNotFound
	case errors.As(err, &alreadyStartedErr):
		te.Kind = ErrWorkflowAlreadyStarted
	case errors.As(err, &namespaceNotFoundErr):
		te.Kind = ErrNamespaceNotFound
	case errors.As(err, &invalidArgumentErr):
		te.Kind = ErrInvalidArgument
	case errors.As(err, &deadlineExceededErr), errors.Is(err, context.DeadlineExceeded):
		te.Kind = ErrDeadlineExceeded
	case errors.As(err, &queryFailedErr):
		te.Kind = ErrQueryFailed
	case errors.Is(err, context.Canceled):
		te.Kind = ErrClientClosed
	default:
		te.Kind = ErrConnectionFailed
	}

	return te
}

// IsWorkflowNotFound checks if the error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsWorkflowAlreadyStarted checks if the error indicates a workflow already started.
func IsWorkflowAlreadyStarted(err error) bool {
	return errors.Is(err, ErrWorkflowAlreadyStarted)
}

// IsConnectionFailed checks if the error indicates a connection failure.
func IsConnectionFailed(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// ClientConfig contains configuration for the Temporal client.
type ClientConfig struct {
	// HostPort is the Temporal server address (e.g., "localhost:7233").
	HostPort string

	// Namespace is the Temporal namespace to use.
	Namespace string

	// TaskQueue is the task queue runs are started on.
	TaskQueue string

	// RunTimeout bounds the batch activity. Defaults to DefaultRunTimeout.
	RunTimeout time.Duration

	// HeartbeatTimeout defaults to DefaultHeartbeatTimeout.
	HeartbeatTimeout time.Duration

	// HealthCheckTimeout defaults to DefaultHealthCheckTimeout.
	HealthCheckTimeout time.Duration
}

// NewClient dials the Temporal server. SDK logs go through logger.
func NewClient(cfg ClientConfig, logger zerolog.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    observability.NewTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("create Temporal client: %w", err)
	}
	return c, nil
}

// ReconciliationInput starts one provider run.
type ReconciliationInput struct {
	// RunID correlates logs, metrics and events of the run.
	RunID string

	// Provider is the registry name of the provider.
	Provider string

	// RunTimeout bounds the batch activity.
	RunTimeout time.Duration

	// HeartbeatTimeout is the longest gap allowed between heartbeats.
	HeartbeatTimeout time.Duration
}

// RunProgress is the answer to the progress query.
type RunProgress struct {
	State     domain.RunState `json:"state"`
	Provider  string          `json:"provider"`
	RunID     string          `json:"run_id"`
	Processed int             `json:"processed"`
	Total     int             `json:"total"`
	Matched   int             `json:"matched"`
	Percent   int             `json:"percent"`
	Error     string          `json:"error,omitempty"`
}

// ReconciliationClient starts and inspects reconciliation runs.
type ReconciliationClient struct {
	mu                 sync.RWMutex
	client             client.Client
	taskQueue          string
	runTimeout         time.Duration
	heartbeatTimeout   time.Duration
	healthCheckTimeout time.Duration
	closed             bool
}

// NewReconciliationClient wraps c. Zero timeouts in cfg take the defaults.
func NewReconciliationClient(c client.Client, cfg ClientConfig) *ReconciliationClient {
	rc := &ReconciliationClient{
		client:             c,
		taskQueue:          cfg.TaskQueue,
		runTimeout:         cfg.RunTimeout,
		heartbeatTimeout:   cfg.HeartbeatTimeout,
		healthCheckTimeout: cfg.HealthCheckTimeout,
	}
	if rc.runTimeout <= 0 {
		rc.runTimeout = DefaultRunTimeout
	}
	if rc.heartbeatTimeout <= 0 {
		rc.heartbeatTimeout = DefaultHeartbeatTimeout
	}
	if rc.healthCheckTimeout <= 0 {
		rc.healthCheckTimeout = DefaultHealthCheckTimeout
	}
	return rc
}

// Close closes the underlying Temporal client connection.
func (c *ReconciliationClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil && !c.closed {
		c.client.Close()
		c.closed = true
	}
}

func (c *ReconciliationClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Health checks the connection to the Temporal server.
func (c *ReconciliationClient) Health(ctx context.Context) error {
	if c.isClosed() {
		return &TemporalError{Op: "Health", Kind: ErrClientClosed}
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.healthCheckTimeout)
	defer cancel()

	if _, err := c.client.CheckHealth(checkCtx, &client.CheckHealthRequest{}); err != nil {
		return wrapTemporalError("Health", err, "")
	}
	return nil
}

// WorkflowID returns the workflow ID used for a run.
func WorkflowID(provider, runID string) string {
	return workflowIDPrefix + strings.ToLower(provider) + "-" + runID
}

// StartRun starts a reconciliation workflow for provider and returns its
// workflow ID.
func (c *ReconciliationClient) StartRun(ctx context.Context, provider string) (string, error) {
	if c.isClosed() {
		return "", &TemporalError{Op: "StartRun", Kind: ErrClientClosed}
	}
	if strings.TrimSpace(provider) == "" {
		return "", &TemporalError{Op: "StartRun", Kind: ErrInvalidArgument, Err: domain.NewValidationError("provider", "is required")}
	}

	runID := uuid.New().String()
	workflowID := WorkflowID(provider, runID)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: c.taskQueue,
		// The activity bound plus slack for scheduling.
		WorkflowExecutionTimeout: c.runTimeout + time.Hour,
	}
	input := ReconciliationInput{
		RunID:            runID,
		Provider:         provider,
		RunTimeout:       c.runTimeout,
		HeartbeatTimeout: c.heartbeatTimeout,
	}

	run, err := c.client.ExecuteWorkflow(ctx, options, WorkflowName, input)
	if err != nil {
		return "", wrapTemporalError("StartRun", err, workflowID)
	}
	return run.GetID(), nil
}

// QueryProgress asks a run for its progress. The workflow only learns its
// counts when the batch activity returns, so while a run is in flight the
// counts come from the activity's latest heartbeat instead.
func (c *ReconciliationClient) QueryProgress(ctx context.Context, workflowID string) (*RunProgress, error) {
	if c.isClosed() {
		return nil, &TemporalError{Op: "QueryProgress", Kind: ErrClientClosed, WorkflowID: workflowID}
	}

	resp, err := c.client.QueryWorkflow(ctx, workflowID, "", QueryProgress)
	if err != nil {
		return nil, wrapTemporalError("QueryProgress", err, workflowID)
	}

	var progress RunProgress
	if err := resp.Get(&progress); err != nil {
		return nil, &TemporalError{
			Op:         "QueryProgress",
			Kind:       ErrQueryFailed,
			WorkflowID: workflowID,
			Err:        fmt.Errorf("decode query result: %w", err),
		}
	}
	if progress.State == domain.RunStateRunning {
		c.overlayHeartbeat(ctx, workflowID, &progress)
	}
	return &progress, nil
}

// overlayHeartbeat copies the counts of the batch activity's last heartbeat
// into progress. Describe or decode failures leave progress untouched.
func (c *ReconciliationClient) overlayHeartbeat(ctx context.Context, workflowID string, progress *RunProgress) {
	desc, err := c.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil || desc == nil {
		return
	}
	for _, pending := range desc.GetPendingActivities() {
		details := pending.GetHeartbeatDetails()
		if details == nil || len(details.GetPayloads()) == 0 {
			continue
		}
		var hb domain.Progress
		if err := converter.GetDefaultDataConverter().FromPayloads(details, &hb); err != nil {
			continue
		}
		if hb.Processed > progress.Processed {
			progress.Processed = hb.Processed
			progress.Total = hb.Total
			progress.Percent = hb.Percent
		}
		return
	}
}

// CancelRun requests cancellation of a run. The batch stops before its next
// author.
func (c *ReconciliationClient) CancelRun(ctx context.Context, workflowID string) error {
	if c.isClosed() {
		return &TemporalError{Op: "CancelRun", Kind: ErrClientClosed, WorkflowID: workflowID}
	}
	if err := c.client.CancelWorkflow(ctx, workflowID, ""); err != nil {
		return wrapTemporalError("CancelRun", err, workflowID)
	}
	return nil
}

// TaskQueue returns the configured task queue name.
func (c *ReconciliationClient) TaskQueue() string {
	return c.taskQueue
}
