package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/temporal"
)

const maxRequestBodySize = 1 << 16

// listProviders handles GET /api/v1/providers.
func (s *Server) listProviders(w http.ResponseWriter, _ *http.Request) {
	resp := listProvidersResponse{Providers: []providerResponse{}}
	for _, name := range s.providers.Names() {
		p, ok := s.providers.Get(name)
		if !ok {
			continue
		}
		resp.Providers = append(resp.Providers, providerResponse{
			Name:         p.Name(),
			EndpointName: p.EndpointName(),
			Enabled:      p.IsEnabled(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// startReconciliation handles POST /api/v1/reconciliations.
func (s *Server) startReconciliation(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req domain.RunRequestedPayload
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	req.Provider = strings.TrimSpace(req.Provider)
	if err := req.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	p, ok := s.providers.Get(req.Provider)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown provider: "+req.Provider)
		return
	}
	if !p.IsEnabled() {
		writeError(w, http.StatusConflict, "provider is disabled: "+req.Provider)
		return
	}

	workflowID, err := s.runs.StartRun(r.Context(), p.Name())
	if err != nil {
		s.logger.Error().Err(err).Str("provider", p.Name()).Msg("failed to start reconciliation")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, startRunResponse{
		WorkflowID: workflowID,
		Provider:   p.Name(),
		Status:     string(domain.RunStateRunning),
	})
}

// getReconciliation handles GET /api/v1/reconciliations/{workflowID}.
// Counts of a running batch come from its last activity heartbeat, so they
// lag by at most one author.
func (s *Server) getReconciliation(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")

	progress, err := s.runs.QueryProgress(r.Context(), workflowID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progressToResponse(workflowID, progress))
}

// cancelReconciliation handles DELETE /api/v1/reconciliations/{workflowID}.
func (s *Server) cancelReconciliation(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")

	if err := s.runs.CancelRun(r.Context(), workflowID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, cancelRunResponse{WorkflowID: workflowID, Status: "cancel_requested"})
}

// writeDomainError maps domain and workflow errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, temporal.ErrWorkflowNotFound):
		writeError(w, http.StatusNotFound, "reconciliation not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, temporal.ErrWorkflowAlreadyStarted):
		writeError(w, http.StatusConflict, "reconciliation already started")
	case errors.Is(err, temporal.ErrConnectionFailed), errors.Is(err, temporal.ErrClientClosed):
		writeError(w, http.StatusServiceUnavailable, "workflow service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
