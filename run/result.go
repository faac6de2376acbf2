package run

import "time"

// StepStatus is the lifecycle status of a single processing result.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Result is the atomic output of one node, or of a sub-step within a
// node. It is immutable once emitted: results are appended to the run
// state and never mutated afterward.
//
// A node's result stream may carry any number of running or skipped
// interim results and ends with exactly one terminal result
// (completed or failed); only terminal results advance the step
// counters.
type Result struct {
	Step     string         `json:"step"`
	Status   StepStatus     `json:"status"`
	Success  bool           `json:"success"`
	Payload  any            `json:"payload,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
	Tokens   int            `json:"tokens"`
	Cost     float64        `json:"cost"`
	Quality  *float64       `json:"quality,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Terminal reports whether the result ends a node's stream.
func (r Result) Terminal() bool {
	return r.Status == StepCompleted || r.Status == StepFailed
}

// Completed builds a successful terminal result.
func Completed(step string, payload any, elapsed time.Duration) Result {
	return Result{
		Step:     step,
		Status:   StepCompleted,
		Success:  true,
		Payload:  payload,
		Duration: elapsed,
	}
}

// Failed builds a failed terminal result from an error.
func Failed(step string, err error, elapsed time.Duration) Result {
	return Result{
		Step:     step,
		Status:   StepFailed,
		Success:  false,
		Error:    err.Error(),
		Duration: elapsed,
	}
}

// Skipped builds a skipped result for a step that did not run.
func Skipped(step, reason string) Result {
	return Result{
		Step:    step,
		Status:  StepSkipped,
		Success: true,
		Metadata: map[string]any{
			"reason": reason,
		},
	}
}

// WithQuality returns a copy of the result carrying a quality score.
func (r Result) WithQuality(score float64) Result {
	r.Quality = &score
	return r
}

// WithUsage returns a copy of the result carrying token and cost usage.
func (r Result) WithUsage(tokens int, cost float64) Result {
	r.Tokens = tokens
	r.Cost = cost
	return r
}
