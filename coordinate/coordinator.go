package coordinate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/skillsenselab/docflow/logger"
	"github.com/skillsenselab/docflow/resilience"
	"github.com/skillsenselab/docflow/run"
)

// Strategy selects how workers are dispatched.
type Strategy string

const (
	// StrategyParallel runs all workers concurrently and joins at a
	// barrier before merging.
	StrategyParallel Strategy = "parallel"
	// StrategySequential runs workers one at a time, highest priority
	// first.
	StrategySequential Strategy = "sequential"
)

// Options configures a Coordinator.
type Options struct {
	// Logger receives per-worker events. Nil falls back to a default logger.
	Logger *logger.Logger
	// Strategy selects the dispatch mode. Defaults to parallel.
	Strategy Strategy
	// Bulkhead optionally bounds in-flight parallel workers. A worker
	// rejected by the bulkhead yields a failed outcome.
	Bulkhead *resilience.Bulkhead
}

// Coordinator dispatches a fixed set of workers against a shared input.
type Coordinator struct {
	opts    Options
	workers []Worker
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault("docflow").WithComponent("coordinate")
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyParallel
	}
	return &Coordinator{opts: opts}
}

// AddWorker registers a worker. Worker names must be unique.
func (c *Coordinator) AddWorker(w Worker) error {
	for _, existing := range c.workers {
		if existing.Name() == w.Name() {
			return fmt.Errorf("coordinate: worker %q already registered", w.Name())
		}
	}
	c.workers = append(c.workers, w)
	return nil
}

// Workers returns the registered worker names in registration order.
func (c *Coordinator) Workers() []string {
	names := make([]string, len(c.workers))
	for i, w := range c.workers {
		names[i] = w.Name()
	}
	return names
}

// Run executes every registered worker against the input and merges
// their outcomes. Individual worker failures (errors, panics, bulkhead
// rejections) are recorded as failed outcomes and never abort the
// round; the error return is reserved for an empty worker set.
func (c *Coordinator) Run(ctx context.Context, rc *run.Context, input any) (*Result, error) {
	if len(c.workers) == 0 {
		return nil, fmt.Errorf("coordinate: no workers registered")
	}

	log := c.opts.Logger.WithFields(map[string]interface{}{
		logger.FieldRunID: rc.ID,
	})

	if text, ok := input.(string); ok {
		for _, w := range c.workers {
			log.Debug("worker relevance", logger.Fields(
				logger.FieldWorker, w.Name(),
				"relevance", Relevance(w, text),
			))
		}
	}

	var outcomes []Outcome
	switch c.opts.Strategy {
	case StrategySequential:
		outcomes = c.runSequential(ctx, log, rc, input)
	default:
		outcomes = c.runParallel(ctx, log, rc, input)
	}

	return merge(c.workers, outcomes), nil
}

// runParallel dispatches every worker on its own goroutine and joins
// at a barrier. Outcomes land at the worker's registration index, so
// the merged order is deterministic regardless of completion order.
func (c *Coordinator) runParallel(ctx context.Context, log *logger.Logger, rc *run.Context, input any) []Outcome {
	outcomes := make([]Outcome, len(c.workers))

	var wg sync.WaitGroup
	for i, w := range c.workers {
		wg.Add(1)
		go func(i int, w Worker) {
			defer wg.Done()
			if c.opts.Bulkhead != nil {
				err := c.opts.Bulkhead.Execute(ctx, func() error {
					outcomes[i] = c.invoke(ctx, log, rc, w, input)
					return nil
				})
				if err != nil {
					outcomes[i] = Outcome{Worker: w.Name(), Error: err.Error()}
				}
				return
			}
			outcomes[i] = c.invoke(ctx, log, rc, w, input)
		}(i, w)
	}
	wg.Wait()

	return outcomes
}

// runSequential dispatches workers one at a time, highest priority
// first. Registration order breaks priority ties.
func (c *Coordinator) runSequential(ctx context.Context, log *logger.Logger, rc *run.Context, input any) []Outcome {
	ordered := make([]Worker, len(c.workers))
	copy(ordered, c.workers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() > ordered[j].Priority()
	})

	outcomes := make([]Outcome, 0, len(ordered))
	for _, w := range ordered {
		outcomes = append(outcomes, c.invoke(ctx, log, rc, w, input))
	}
	return outcomes
}

// invoke runs one worker, containing panics and recording duration.
func (c *Coordinator) invoke(ctx context.Context, log *logger.Logger, rc *run.Context, w Worker, input any) (out Outcome) {
	start := time.Now()
	out = Outcome{Worker: w.Name()}

	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Analysis = nil
			out.Error = fmt.Sprintf("panic: %v", r)
			out.Duration = time.Since(start)
			log.Error("worker panicked", logger.Fields(
				logger.FieldWorker, w.Name(),
				logger.FieldError, out.Error,
			))
		}
	}()

	analysis, err := w.Analyze(ctx, rc, input)
	out.Duration = time.Since(start)
	if err != nil {
		out.Error = err.Error()
		log.Warn("worker failed", logger.Fields(
			logger.FieldWorker, w.Name(),
			logger.FieldError, err.Error(),
		))
		return out
	}

	out.Success = true
	out.Analysis = analysis
	log.Debug("worker completed", logger.Fields(
		logger.FieldWorker, w.Name(),
		logger.FieldDuration, out.Duration.Milliseconds(),
	))
	return out
}
