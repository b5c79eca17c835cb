package history

import "time"

// Status represents the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID           string
	Token        string
	Prompt       string
	Status       Status
	FailedStage  string
	FailureKind  string
	ErrorMessage string
	ScriptPath   string
	AudioPath    string
	VideoPath    string
	FinalPath    string
	Preview      string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Outcome is what Finish records when a run ends.
type Outcome struct {
	Success      bool
	FailedStage  string
	FailureKind  string
	ErrorMessage string
	ScriptPath   string
	AudioPath    string
	VideoPath    string
	FinalPath    string
	Preview      string
	FinishedAt   time.Time
}

// Duration reports how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
