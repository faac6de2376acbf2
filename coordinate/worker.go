// Package coordinate fans a shared input out to a set of analysis
// workers, joins their outcomes, and merges them into a single result
// with conflict detection and quality scoring.
package coordinate

import (
	"context"
	"strings"
	"time"

	"github.com/skillsenselab/docflow/run"
)

// Analysis is the successful product of one worker.
type Analysis struct {
	// Findings are observations about the input.
	Findings []string `json:"findings"`
	// Recommendations are suggested follow-up actions.
	Recommendations []string `json:"recommendations"`
	// Confidence is the worker's self-assessed confidence in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Worker analyzes a shared input independently of its peers.
type Worker interface {
	// Name identifies the worker. Unique within a coordinator.
	Name() string
	// Priority orders sequential execution; higher runs first.
	Priority() int
	// Keywords describe the inputs this worker specializes in. Used
	// for relevance scoring only, never for exclusion.
	Keywords() []string
	// Analyze inspects the input and produces an analysis.
	Analyze(ctx context.Context, rc *run.Context, input any) (*Analysis, error)
}

// Outcome records one worker's attempt, successful or not. A worker
// that panics or errors yields a failed outcome; it never takes the
// other workers down with it.
type Outcome struct {
	Worker   string        `json:"worker"`
	Success  bool          `json:"success"`
	Analysis *Analysis     `json:"analysis,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Relevance scores how well a worker's keywords match the given text,
// in [0, 1]. The score is informational: the coordinator reports it
// but always runs every configured worker.
//
// A worker with no keywords is considered generally applicable.
func Relevance(w Worker, text string) float64 {
	keywords := w.Keywords()
	if len(keywords) == 0 {
		return 1.0
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}

	score := float64(matches)/float64(len(keywords)) + 0.2
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// WorkerFunc adapts a function into a Worker.
type WorkerFunc struct {
	name     string
	priority int
	keywords []string
	fn       func(ctx context.Context, rc *run.Context, input any) (*Analysis, error)
}

// NewWorkerFunc creates a function-backed worker.
func NewWorkerFunc(name string, priority int, keywords []string,
	fn func(ctx context.Context, rc *run.Context, input any) (*Analysis, error)) *WorkerFunc {
	return &WorkerFunc{name: name, priority: priority, keywords: keywords, fn: fn}
}

func (w *WorkerFunc) Name() string       { return w.name }
func (w *WorkerFunc) Priority() int      { return w.priority }
func (w *WorkerFunc) Keywords() []string { return w.keywords }

func (w *WorkerFunc) Analyze(ctx context.Context, rc *run.Context, input any) (*Analysis, error) {
	return w.fn(ctx, rc, input)
}
