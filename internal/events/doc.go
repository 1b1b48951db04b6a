// Package events publishes reconciliation events to Kafka and consumes run
// requests from it.
//
// Published messages are keyed by the event's aggregate ID (the run ID) so
// every event of a run lands on the same partition. The value is the JSON
// domain.Event envelope; the event type is repeated in the event_type
// header for consumers that route without decoding.
//
// Publishing is best-effort from the caller's point of view: the
// orchestrator logs and counts failures and carries on.
package events
