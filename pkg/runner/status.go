package runner

import (
	"time"

	"github.com/benchdeck/benchdeck/pkg/config"
)

// State describes where a run is in its lifecycle.
type State string

const (
	// StateRunning means the benchmark process is alive.
	StateRunning State = "running"
	// StateCompleted means the process exited with code zero.
	StateCompleted State = "completed"
	// StateFailed means the process exited non-zero (or was killed).
	StateFailed State = "failed"
	// StateError means the process could not be started at all.
	StateError State = "error"
)

// Terminal reports whether the run has finished, one way or another.
func (s State) Terminal() bool {
	return s != StateRunning
}

// RunInfo holds the current state and outcome of a single run.
type RunInfo struct {
	ID         string                  `json:"id"`
	Params     config.ExperimentConfig `json:"params"`
	State      State                   `json:"state"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt *time.Time              `json:"finished_at,omitempty"`
	ExitCode   int                     `json:"exit_code"`
	Error      string                  `json:"error,omitempty"`
}

// Duration returns how long the run took, or how long it has been running.
func (r RunInfo) Duration() time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
