package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransportFailure indicates that a single remote lookup failed.
	// The verifier recovers from it by trying the next candidate.
	ErrTransportFailure = errors.New("transport failure")

	// ErrProviderUnavailable indicates that a provider signalled it is
	// unavailable or rate limiting (HTTP 503).
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrStoreQuery indicates that a graph query or store write failed while
	// reconciling one author.
	ErrStoreQuery = errors.New("store query failure")

	// ErrBatchFatal indicates that a run could not process any author.
	ErrBatchFatal = errors.New("batch fatal")

	// ErrCancelled indicates that an operation was cancelled.
	ErrCancelled = errors.New("cancelled")

	// ErrWorkflowFailed indicates that a Temporal workflow failed.
	ErrWorkflowFailed = errors.New("workflow failed")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// TransportError describes a failed lookup for one candidate query.
type TransportError struct {
	Provider   string
	Query      string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s lookup %q failed with status %d", e.Provider, e.Query, e.StatusCode)
	}
	return fmt.Sprintf("%s lookup %q failed: %v", e.Provider, e.Query, e.Cause)
}

// Is matches ErrTransportFailure.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

// Unwrap returns the underlying cause error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ProviderUnavailableError records which provider refused service and for
// which query.
type ProviderUnavailableError struct {
	Provider   string
	Query      string
	StatusCode int
}

// Error implements the error interface.
func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable (status %d) for query %q", e.Provider, e.StatusCode, e.Query)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ProviderUnavailableError) Unwrap() error {
	return ErrProviderUnavailable
}

// StoreError describes a failed graph query or store write.
type StoreError struct {
	Op    string
	Graph string
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Graph, e.Cause)
}

// Is matches ErrStoreQuery.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreQuery
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, graph string, cause error) *StoreError {
	return &StoreError{Op: op, Graph: graph, Cause: cause}
}

// NewBatchFatalError wraps cause so that it matches ErrBatchFatal.
func NewBatchFatalError(cause error) error {
	return fmt.Errorf("%w: %w", ErrBatchFatal, cause)
}
