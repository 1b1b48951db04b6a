package domain

import "time"

// RunState is the lifecycle of a batch run.
type RunState string

const (
	RunStateNotStarted RunState = "not_started"
	RunStateRunning    RunState = "running"
	RunStateCompleted  RunState = "completed"
	RunStateFailed     RunState = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s RunState) IsTerminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

// RunResult summarizes a batch run. Per-author outcomes are only reported
// through logs, metrics and events.
type RunResult struct {
	RunID     string        `json:"run_id"`
	Provider  string        `json:"provider"`
	State     RunState      `json:"state"`
	Processed int           `json:"processed"`
	Total     int           `json:"total"`
	Matched   int           `json:"matched"`
	Duration  time.Duration `json:"duration"`
}

// Progress is the integer completion percentage of a run. It is a value
// passed from one loop iteration to the next.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// NewProgress returns the progress of a run over total authors.
func NewProgress(total int) Progress {
	return Progress{Total: total}
}

// Advance returns the progress after one more author and whether the
// percentage changed.
func (p Progress) Advance() (Progress, bool) {
	next := Progress{Processed: p.Processed + 1, Total: p.Total}
	if next.Total > 0 {
		next.Percent = next.Processed * 100 / next.Total
	}
	return next, next.Percent != p.Percent
}
