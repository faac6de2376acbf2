// Package orchestrator sequences pipeline nodes over a run, tracking
// state and metrics as results arrive and applying the early
// termination policy.
//
// The orchestrator is single-threaded by design: steps execute
// strictly one after another because later steps consume earlier
// steps' output. Concurrency lives inside fan-out stages (see the
// coordinate package), never between steps.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/skillsenselab/docflow/logger"
	"github.com/skillsenselab/docflow/node"
	"github.com/skillsenselab/docflow/observability"
	"github.com/skillsenselab/docflow/run"
	"github.com/skillsenselab/docflow/store"
)

// Setup errors. These surface to the caller at configuration time;
// per-step failures never do.
var (
	ErrDuplicateNode = stderrors.New("orchestrator: node already registered")
	ErrUnknownNode   = stderrors.New("orchestrator: step references unregistered node")
)

// defaultFailureRateLimit is the running failure rate above which the
// remaining steps are abandoned.
const defaultFailureRateLimit = 0.3

// defaultProgressTimeout bounds how long a progress notification may
// hold up the run.
const defaultProgressTimeout = time.Second

// ProgressFunc receives best-effort progress notifications after each
// appended result.
type ProgressFunc func(label string, percent float64)

// Options configures an Orchestrator.
type Options struct {
	// Logger receives run lifecycle events. Nil falls back to a default logger.
	Logger *logger.Logger
	// Progress is the optional progress notification sink.
	Progress ProgressFunc
	// ProgressTimeout bounds sink delivery. Defaults to one second.
	ProgressTimeout time.Duration
	// Runs optionally persists a state snapshot after every step.
	Runs store.RunStore
	// Metrics optionally records run/step instruments.
	Metrics *observability.Metrics
	// FailureRateLimit overrides the early-termination failure rate.
	// Defaults to 0.3.
	FailureRateLimit float64
}

// Orchestrator owns an ordered execution plan over registered nodes.
type Orchestrator struct {
	opts     Options
	registry *node.Registry
	plan     []string
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault("docflow").WithComponent("orchestrator")
	}
	if opts.FailureRateLimit <= 0 {
		opts.FailureRateLimit = defaultFailureRateLimit
	}
	if opts.ProgressTimeout <= 0 {
		opts.ProgressTimeout = defaultProgressTimeout
	}
	return &Orchestrator{
		opts:     opts,
		registry: node.NewRegistry(),
	}
}

// AddNode registers a unit of work under its name.
func (o *Orchestrator) AddNode(n node.Node) error {
	if !o.registry.Register(n) {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name())
	}
	return nil
}

// AddStep appends a registered node name to the execution plan.
// A node may appear in the plan more than once.
func (o *Orchestrator) AddStep(name string) error {
	if _, ok := o.registry.Get(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	o.plan = append(o.plan, name)
	return nil
}

// RemoveStep removes every occurrence of the named step from the plan.
func (o *Orchestrator) RemoveStep(name string) {
	kept := o.plan[:0]
	for _, s := range o.plan {
		if s != name {
			kept = append(kept, s)
		}
	}
	o.plan = kept
}

// Steps returns a copy of the current execution plan.
func (o *Orchestrator) Steps() []string {
	return append([]string(nil), o.plan...)
}

// Execute runs the configured plan to completion or early termination.
//
// The returned state is always complete: a partially failing run still
// carries per-step detail and accumulated metrics. The error is non-nil
// only when the context was cancelled; per-step failures are recorded,
// never raised.
//
// Each step receives the previous successful step's payload as input,
// starting from the submitted input.
func (o *Orchestrator) Execute(ctx context.Context, rc *run.Context, input any) (*run.State, error) {
	plan := o.effectivePlan(rc)

	state := run.NewState(rc.ID, len(plan))
	state.Start()

	log := o.opts.Logger.WithFields(map[string]interface{}{
		logger.FieldRunID: rc.ID,
	})
	log.Info("run started", logger.Fields(
		"principal", rc.Principal,
		"mode", string(rc.Mode),
		"steps", len(plan),
	))

	if o.opts.Metrics != nil {
		o.opts.Metrics.RecordRunStart(ctx)
	}

	stepInput := input
	for _, stepName := range plan {
		// Cancellation is observed at step boundaries; a running node
		// also receives ctx and may stop sooner.
		if err := ctx.Err(); err != nil {
			state.Finish(run.StatusCancelled)
			o.finishRun(ctx, log, state)
			return state, err
		}

		n, _ := o.registry.Get(stepName)
		state.CurrentStep = stepName

		stepStart := time.Now()
		results := node.Monitor(ctx, log, n, rc, stepInput)

		var terminal run.Result
		for _, r := range results {
			state.Append(r)
			o.notify(log, fmt.Sprintf("%s: %s", r.Step, r.Status), state.Progress*100)
			if o.opts.Metrics != nil && (r.Tokens > 0 || r.Cost > 0) {
				o.opts.Metrics.RecordUsage(ctx, r.Step, r.Tokens, r.Cost)
			}
			if r.Terminal() {
				terminal = r
			}
		}

		if o.opts.Metrics != nil {
			o.opts.Metrics.RecordStep(ctx, stepName, string(terminal.Status), time.Since(stepStart))
		}
		o.persist(ctx, log, state)

		if terminal.Status == run.StepCompleted && terminal.Payload != nil {
			stepInput = terminal.Payload
		}

		if stop, reason := o.shouldStop(rc, state); stop {
			log.Warn("run terminated early", logger.Fields(
				logger.FieldStep, stepName,
				"reason", reason,
				"failure_rate", state.Metrics.FailureRate(),
				logger.FieldCost, state.Metrics.TotalCost,
			))
			break
		}
	}

	state.Finish(run.StatusCompleted)
	o.finishRun(ctx, log, state)
	return state, nil
}

// effectivePlan filters the configured plan by the run's enabled stages.
func (o *Orchestrator) effectivePlan(rc *run.Context) []string {
	plan := make([]string, 0, len(o.plan))
	for _, s := range o.plan {
		if rc.StageEnabled(s) {
			plan = append(plan, s)
		}
	}
	return plan
}

// shouldStop evaluates the early-termination policy after a step has
// settled: stop when the running failure rate failed/(failed+completed)
// exceeds the limit, or cumulative cost exceeds the run's ceiling.
func (o *Orchestrator) shouldStop(rc *run.Context, state *run.State) (bool, string) {
	if state.Metrics.FailureRate() > o.opts.FailureRateLimit {
		return true, "failure rate exceeded"
	}
	if rc.CostCeiling > 0 && state.Metrics.TotalCost > rc.CostCeiling {
		return true, "cost ceiling exceeded"
	}
	return false, ""
}

// notify delivers a progress notification without letting the sink
// block the run for more than the configured bound.
func (o *Orchestrator) notify(log *logger.Logger, label string, percent float64) {
	if o.opts.Progress == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if p := recover(); p != nil {
				log.Warn("progress sink panicked", logger.Fields(
					"label", label,
					logger.FieldError, fmt.Sprint(p),
				))
			}
		}()
		o.opts.Progress(label, percent)
	}()

	select {
	case <-done:
	case <-time.After(o.opts.ProgressTimeout):
		log.Warn("progress sink too slow, continuing", logger.Fields("label", label))
	}
}

// persist saves a state snapshot, best-effort.
func (o *Orchestrator) persist(ctx context.Context, log *logger.Logger, state *run.State) {
	if o.opts.Runs == nil {
		return
	}
	snapshot, err := state.Snapshot()
	if err == nil {
		err = o.opts.Runs.Save(ctx, state.RunID, snapshot)
	}
	if err != nil {
		log.Warn("state snapshot failed", logger.ErrorFields("save", err))
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, log *logger.Logger, state *run.State) {
	o.persist(ctx, log, state)
	if o.opts.Metrics != nil {
		o.opts.Metrics.RecordRunEnd(ctx, string(state.Status))
	}
	log.Info("run finished", logger.Fields(
		logger.FieldStatus, string(state.Status),
		"progress", state.Progress,
		"completed", state.Metrics.StepsCompleted,
		"failed", state.Metrics.StepsFailed,
		logger.FieldCost, state.Metrics.TotalCost,
		logger.FieldTokens, state.Metrics.TotalTokens,
	))
}
