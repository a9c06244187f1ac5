package stores

import "time"

// RunStatus represents the lifecycle state of a reconciliation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run records a single reconciliation run.
type Run struct {
	ID          string
	Host        string
	Status      RunStatus
	DryRun      bool
	Deletes     int
	Installs    int
	Replaces    int
	Unchanged   int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// RunResult summarizes the outcome of a completed run.
type RunResult struct {
	Status    RunStatus
	Deletes   int
	Installs  int
	Replaces  int
	Unchanged int
	Error     string
}
