package node

import (
	"context"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/docflow/logger"
	"github.com/skillsenselab/docflow/run"
)

type streamNode struct {
	name string
	seq  func(ctx context.Context) iter.Seq[run.Result]
}

func (s *streamNode) Name() string { return s.name }

func (s *streamNode) Execute(ctx context.Context, _ *run.Context, _ any) iter.Seq[run.Result] {
	return s.seq(ctx)
}

func TestMonitor_CollectsStream(t *testing.T) {
	n := &streamNode{
		name: "extract",
		seq: func(context.Context) iter.Seq[run.Result] {
			return Emit(
				run.Result{Step: "extract", Status: run.StepRunning},
				run.Completed("extract", "tables", 5*time.Millisecond),
			)
		},
	}

	results := Monitor(context.Background(), logger.Nop(), n, testContext(t), nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[1].Terminal() {
		t.Error("expected terminal result last")
	}
}

func TestMonitor_PanicBecomesFailedResult(t *testing.T) {
	n := &streamNode{
		name: "tag",
		seq: func(context.Context) iter.Seq[run.Result] {
			return func(yield func(run.Result) bool) {
				yield(run.Result{Step: "tag", Status: run.StepRunning})
				panic("nil taxonomy")
			}
		},
	}

	start := time.Now()
	results := Monitor(context.Background(), logger.Nop(), n, testContext(t), nil)
	elapsed := time.Since(start)

	if len(results) != 2 {
		t.Fatalf("expected interim + synthesized result, got %d", len(results))
	}

	last := results[1]
	if last.Status != run.StepFailed || last.Success {
		t.Errorf("expected failed terminal, got %+v", last)
	}
	if !strings.Contains(last.Error, "nil taxonomy") {
		t.Errorf("expected panic text in error, got %q", last.Error)
	}
	if last.Duration < 0 || last.Duration > elapsed+time.Second {
		t.Errorf("implausible duration %v", last.Duration)
	}
}

func TestMonitor_PanicBeforeFirstResult(t *testing.T) {
	n := &streamNode{
		name: "parse",
		seq: func(context.Context) iter.Seq[run.Result] {
			return func(func(run.Result) bool) {
				panic("decoder exploded")
			}
		},
	}

	results := Monitor(context.Background(), logger.Nop(), n, testContext(t), nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 synthesized result, got %d", len(results))
	}
	if results[0].Status != run.StepFailed {
		t.Errorf("expected failed, got %s", results[0].Status)
	}
}

func TestMonitor_SynthesizesMissingTerminal(t *testing.T) {
	n := &streamNode{
		name: "drift",
		seq: func(context.Context) iter.Seq[run.Result] {
			return Emit(run.Result{Step: "drift", Status: run.StepRunning})
		},
	}

	results := Monitor(context.Background(), logger.Nop(), n, testContext(t), nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	last := results[1]
	if last.Status != run.StepFailed {
		t.Errorf("expected synthesized failure, got %s", last.Status)
	}
	if !strings.Contains(last.Error, "without a terminal result") {
		t.Errorf("unexpected error: %s", last.Error)
	}
}

func TestMonitor_StopsAfterFirstTerminal(t *testing.T) {
	n := &streamNode{
		name: "greedy",
		seq: func(context.Context) iter.Seq[run.Result] {
			return Emit(
				run.Completed("greedy", "first", time.Millisecond),
				run.Completed("greedy", "second", time.Millisecond),
			)
		},
	}

	results := Monitor(context.Background(), logger.Nop(), n, testContext(t), nil)
	if len(results) != 1 {
		t.Fatalf("expected consumption to stop at the first terminal, got %d results", len(results))
	}
	if results[0].Payload != "first" {
		t.Errorf("unexpected payload: %v", results[0].Payload)
	}

	// A step settled this way counts exactly once.
	state := run.NewState("run-1", 1)
	state.Start()
	for _, r := range results {
		state.Append(r)
	}
	if state.Progress != 1.0 {
		t.Errorf("progress: got %v", state.Progress)
	}
}

func TestMonitor_WrappedNodesPassThrough(t *testing.T) {
	inner := NewFunc("classify", func(context.Context, *run.Context, any) (any, error) {
		return "classified", nil
	})
	wrapped := WithTracing(WithLogging(inner, logger.Nop()), "pipeline")

	if wrapped.Name() != "classify" {
		t.Errorf("wrapper changed name to %s", wrapped.Name())
	}

	results := Monitor(context.Background(), logger.Nop(), wrapped, testContext(t), nil)
	if len(results) != 1 || results[0].Status != run.StepCompleted {
		t.Errorf("unexpected results: %+v", results)
	}
}
