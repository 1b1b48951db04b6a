package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/temporal"
)

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type startRunResponse struct {
	WorkflowID string `json:"workflow_id"`
	Provider   string `json:"provider"`
	Status     string `json:"status"`
}

type runStatusResponse struct {
	WorkflowID string          `json:"workflow_id"`
	RunID      string          `json:"run_id"`
	Provider   string          `json:"provider"`
	State      domain.RunState `json:"state"`
	Processed  int             `json:"processed"`
	Total      int             `json:"total"`
	Matched    int             `json:"matched"`
	Percent    int             `json:"percent"`
	Error      string          `json:"error,omitempty"`
}

type providerResponse struct {
	Name         string `json:"name"`
	EndpointName string `json:"endpoint_name"`
	Enabled      bool   `json:"enabled"`
}

type listProvidersResponse struct {
	Providers []providerResponse `json:"providers"`
}

type cancelRunResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
}

func progressToResponse(workflowID string, p *temporal.RunProgress) runStatusResponse {
	return runStatusResponse{
		WorkflowID: workflowID,
		RunID:      p.RunID,
		Provider:   p.Provider,
		State:      p.State,
		Processed:  p.Processed,
		Total:      p.Total,
		Matched:    p.Matched,
		Percent:    p.Percent,
		Error:      p.Error,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent; nothing useful to do with an encode error.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
