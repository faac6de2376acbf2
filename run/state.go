package run

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle status of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// State is the top-level mutable record for a run. It is created when
// the orchestrator begins a run, mutated only by the orchestrator, and
// becomes immutable once the status reaches a terminal value.
type State struct {
	RunID       string     `json:"run_id"`
	Status      Status     `json:"status"`
	CurrentStep string     `json:"current_step,omitempty"`
	Progress    float64    `json:"progress"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Results     []Result   `json:"results"`
	Metrics     Metrics    `json:"metrics"`
}

// NewState creates a pending state for a run with the given number of
// configured steps.
func NewState(runID string, configuredSteps int) *State {
	s := &State{
		RunID:  runID,
		Status: StatusPending,
	}
	s.Metrics.StepsConfigured = configuredSteps
	return s
}

// Start transitions the run to running and stamps the start time.
func (s *State) Start() {
	if s.Status.Terminal() {
		return
	}
	s.Status = StatusRunning
	s.StartedAt = time.Now().UTC()
}

// Append records one result: it is added to the ordered result list,
// folded into the metrics, and the progress fraction is recomputed as
// (completed + failed) / configured.
func (s *State) Append(r Result) {
	if s.Status.Terminal() {
		return
	}
	s.Results = append(s.Results, r)
	s.Metrics.Record(r)

	if s.Metrics.StepsConfigured > 0 {
		s.Progress = float64(s.Metrics.StepsCompleted+s.Metrics.StepsFailed) /
			float64(s.Metrics.StepsConfigured)
	}
}

// Finish moves the run to a terminal status and stamps the completion
// time. Terminal states are absorbing: a second Finish is a no-op.
func (s *State) Finish(status Status) {
	if s.Status.Terminal() || !status.Terminal() {
		return
	}
	s.Status = status
	s.CurrentStep = ""
	now := time.Now().UTC()
	s.CompletedAt = &now
}

// StepResults returns all results recorded for the named step.
func (s *State) StepResults(step string) []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Step == step {
			out = append(out, r)
		}
	}
	return out
}

// Snapshot serializes the state for the persistence boundary.
func (s *State) Snapshot() ([]byte, error) {
	return json.Marshal(s)
}

// RestoreState rebuilds a state from a snapshot produced by Snapshot.
func RestoreState(snapshot []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(snapshot, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
