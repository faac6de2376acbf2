// Package node defines the processing unit of a pipeline: a named,
// monitored unit of work that produces an ordered, finite stream of
// results as it executes.
package node

import (
	"context"
	"iter"
	"time"

	"github.com/skillsenselab/docflow/run"
)

// Node is a named unit of pipeline work.
//
// Execute produces a lazy, ordered, finite sequence of results. The
// sequence is not restartable mid-stream; a fresh call starts over. It
// may carry any number of interim (running/skipped) results and must
// end with exactly one terminal result (completed or failed).
type Node interface {
	Name() string
	Execute(ctx context.Context, rc *run.Context, input any) iter.Seq[run.Result]
}

// Func adapts a plain function into a single-result Node.
type Func struct {
	name string
	fn   func(ctx context.Context, rc *run.Context, input any) (any, error)
}

// NewFunc creates a Node from a function. A nil error yields one
// completed result carrying the returned payload; an error yields one
// failed result.
func NewFunc(name string, fn func(ctx context.Context, rc *run.Context, input any) (any, error)) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Execute(ctx context.Context, rc *run.Context, input any) iter.Seq[run.Result] {
	return func(yield func(run.Result) bool) {
		start := time.Now()
		payload, err := f.fn(ctx, rc, input)
		if err != nil {
			yield(run.Failed(f.name, err, time.Since(start)))
			return
		}
		yield(run.Completed(f.name, payload, time.Since(start)))
	}
}

// Emit is a convenience for building multi-result nodes in tests and
// simple stages: it yields the given results in order.
func Emit(results ...run.Result) iter.Seq[run.Result] {
	return func(yield func(run.Result) bool) {
		for _, r := range results {
			if !yield(r) {
				return
			}
		}
	}
}
