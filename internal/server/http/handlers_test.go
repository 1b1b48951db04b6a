package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/temporal"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockRunService struct {
	startFn  func(ctx context.Context, provider string) (string, error)
	queryFn  func(ctx context.Context, workflowID string) (*temporal.RunProgress, error)
	cancelFn func(ctx context.Context, workflowID string) error
}

func (m *mockRunService) StartRun(ctx context.Context, provider string) (string, error) {
	if m.startFn != nil {
		return m.startFn(ctx, provider)
	}
	return "reconcile-" + provider + "-1", nil
}

func (m *mockRunService) QueryProgress(ctx context.Context, workflowID string) (*temporal.RunProgress, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, workflowID)
	}
	return nil, &temporal.TemporalError{Op: "QueryProgress", Kind: temporal.ErrWorkflowNotFound}
}

func (m *mockRunService) CancelRun(ctx context.Context, workflowID string) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, workflowID)
	}
	return nil
}

type stubProvider struct {
	name    string
	enabled bool
}

func (p stubProvider) Name() string                  { return p.name }
func (p stubProvider) EndpointName() string          { return p.name + " Provider" }
func (p stubProvider) IsEnabled() bool               { return p.enabled }
func (p stubProvider) Template() candidates.Template { return candidates.Template{} }

func (p stubProvider) Lookup(context.Context, string) (*providers.LookupResult, error) {
	return nil, errors.New("not used")
}

func newTestServer(runs RunService, checks map[string]HealthCheck) *Server {
	registry := providers.NewRegistry(
		stubProvider{name: "dblp", enabled: true},
		stubProvider{name: "scopus", enabled: false},
	)
	return NewServer(Config{Address: ":0", MetricsPath: "/metrics"}, runs, registry, checks, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestStartReconciliation(t *testing.T) {
	var started string
	runs := &mockRunService{startFn: func(_ context.Context, provider string) (string, error) {
		started = provider
		return "reconcile-dblp-abc", nil
	}}
	s := newTestServer(runs, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/reconciliations", []byte(`{"provider":" dblp "}`))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp startRunResponse
	decode(t, rec, &resp)
	assert.Equal(t, "reconcile-dblp-abc", resp.WorkflowID)
	assert.Equal(t, "dblp", resp.Provider)
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, "dblp", started)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestStartReconciliation_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"invalid json", `{`, http.StatusBadRequest, "invalid JSON request body"},
		{"missing provider", `{}`, http.StatusBadRequest, "provider"},
		{"unknown provider", `{"provider":"orcid"}`, http.StatusBadRequest, "unknown provider: orcid"},
		{"disabled provider", `{"provider":"scopus"}`, http.StatusConflict, "provider is disabled: scopus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &mockRunService{startFn: func(context.Context, string) (string, error) {
				t.Fatal("StartRun must not be called")
				return "", nil
			}}
			rec := do(t, newTestServer(runs, nil), http.MethodPost, "/api/v1/reconciliations", []byte(tt.body))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp map[string]string
			decode(t, rec, &resp)
			assert.Contains(t, resp["error"], tt.wantErr)
		})
	}
}

func TestStartReconciliation_WorkflowErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"already started", &temporal.TemporalError{Op: "StartRun", Kind: temporal.ErrWorkflowAlreadyStarted}, http.StatusConflict},
		{"temporal down", &temporal.TemporalError{Op: "StartRun", Kind: temporal.ErrConnectionFailed}, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &mockRunService{startFn: func(context.Context, string) (string, error) { return "", tt.err }}
			rec := do(t, newTestServer(runs, nil), http.MethodPost, "/api/v1/reconciliations", []byte(`{"provider":"dblp"}`))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestGetReconciliation(t *testing.T) {
	runs := &mockRunService{queryFn: func(_ context.Context, workflowID string) (*temporal.RunProgress, error) {
		require.Equal(t, "reconcile-dblp-abc", workflowID)
		return &temporal.RunProgress{
			State:     domain.RunStateRunning,
			Provider:  "dblp",
			RunID:     "abc",
			Processed: 10,
			Total:     40,
			Percent:   25,
		}, nil
	}}

	rec := do(t, newTestServer(runs, nil), http.MethodGet, "/api/v1/reconciliations/reconcile-dblp-abc", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp runStatusResponse
	decode(t, rec, &resp)
	assert.Equal(t, runStatusResponse{
		WorkflowID: "reconcile-dblp-abc",
		RunID:      "abc",
		Provider:   "dblp",
		State:      domain.RunStateRunning,
		Processed:  10,
		Total:      40,
		Percent:    25,
	}, resp)
}

func TestGetReconciliation_NotFound(t *testing.T) {
	rec := do(t, newTestServer(&mockRunService{}, nil), http.MethodGet, "/api/v1/reconciliations/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelReconciliation(t *testing.T) {
	var cancelled string
	runs := &mockRunService{cancelFn: func(_ context.Context, workflowID string) error {
		cancelled = workflowID
		return nil
	}}

	rec := do(t, newTestServer(runs, nil), http.MethodDelete, "/api/v1/reconciliations/reconcile-dblp-abc", nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "reconcile-dblp-abc", cancelled)
}

func TestListProviders(t *testing.T) {
	rec := do(t, newTestServer(&mockRunService{}, nil), http.MethodGet, "/api/v1/providers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listProvidersResponse
	decode(t, rec, &resp)
	assert.Equal(t, []providerResponse{
		{Name: "dblp", EndpointName: "dblp Provider", Enabled: true},
		{Name: "scopus", EndpointName: "scopus Provider", Enabled: false},
	}, resp.Providers)
}

func TestHealthAndReadiness(t *testing.T) {
	t.Run("healthz is always ok", func(t *testing.T) {
		rec := do(t, newTestServer(&mockRunService{}, nil), http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ready when every check passes", func(t *testing.T) {
		checks := map[string]HealthCheck{
			"store":    func(context.Context) error { return nil },
			"temporal": func(context.Context) error { return nil },
		}
		rec := do(t, newTestServer(&mockRunService{}, checks), http.MethodGet, "/readyz", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp readinessResponse
		decode(t, rec, &resp)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"store": "ok", "temporal": "ok"}, resp.Checks)
	})

	t.Run("not ready when a check fails", func(t *testing.T) {
		checks := map[string]HealthCheck{
			"store":    func(context.Context) error { return errors.New("connection refused") },
			"temporal": func(context.Context) error { return nil },
		}
		rec := do(t, newTestServer(&mockRunService{}, checks), http.MethodGet, "/readyz", nil)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp readinessResponse
		decode(t, rec, &resp)
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "connection refused", resp.Checks["store"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&mockRunService{}, nil), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
