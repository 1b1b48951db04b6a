package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published on the reconciliation topic.
const (
	EventTypeAuthorReconciled = "author.reconciled"
	EventTypeRunCompleted     = "run.completed"
)

// EventTypeRunRequested is consumed from the request topic to start a run.
const EventTypeRunRequested = "run.requested"

// Event is the envelope of every published message.
type Event struct {
	EventID      string          `json:"event_id"`
	EventVersion int             `json:"event_version"`
	EventType    string          `json:"event_type"`
	AggregateID  string          `json:"aggregate_id"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewEvent creates an event about the run or author aggregateID. The
// payload is JSON-serialized.
func NewEvent(eventType, aggregateID string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:      uuid.New().String(),
		EventVersion: 1,
		EventType:    eventType,
		AggregateID:  aggregateID,
		Payload:      payloadBytes,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// AuthorReconciledPayload is the payload for author.reconciled events.
type AuthorReconciledPayload struct {
	RunID        string   `json:"run_id"`
	Provider     string   `json:"provider"`
	AuthorID     string   `json:"author_id"`
	ExternalIDs  []string `json:"external_ids,omitempty"`
	Graph        string   `json:"graph"`
	Query        string   `json:"query"`
	Priority     int      `json:"priority"`
	Publications int      `json:"publications"`
	Written      int      `json:"written"`
	Duplicates   int      `json:"duplicates"`
}

// RunCompletedPayload is the payload for run.completed events.
type RunCompletedPayload struct {
	RunID      string   `json:"run_id"`
	Provider   string   `json:"provider"`
	State      RunState `json:"state"`
	Processed  int      `json:"processed"`
	Total      int      `json:"total"`
	Matched    int      `json:"matched"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}

// RunRequestedPayload is the payload for run.requested events.
type RunRequestedPayload struct {
	Provider string `json:"provider" validate:"required"`
}

// Validate checks that a provider was named.
func (p RunRequestedPayload) Validate() error {
	if err := validatorInstance().Struct(p); err != nil {
		return NewValidationError("provider", "required")
	}
	return nil
}
