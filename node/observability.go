package node

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/skillsenselab/docflow/logger"
	"github.com/skillsenselab/docflow/observability"
	"github.com/skillsenselab/docflow/run"
)

// WithTracing wraps a Node with OpenTelemetry span creation.
// Each execution creates a span named "{prefix}.{nodeName}" that lasts
// until the result stream is fully consumed.
func WithTracing(n Node, prefix string) Node {
	return &tracingNode{inner: n, prefix: prefix}
}

type tracingNode struct {
	inner  Node
	prefix string
}

func (n *tracingNode) Name() string { return n.inner.Name() }

func (n *tracingNode) Execute(ctx context.Context, rc *run.Context, input any) iter.Seq[run.Result] {
	return func(yield func(run.Result) bool) {
		spanName := n.prefix + "." + n.inner.Name()
		ctx, span := observability.StartSpan(ctx, spanName)
		defer span.End()

		observability.SetSpanAttribute(ctx, "pipeline.node", n.inner.Name())
		if rc != nil {
			observability.SetSpanAttribute(ctx, "run.id", rc.ID)
		}

		for r := range n.inner.Execute(ctx, rc, input) {
			if r.Status == run.StepFailed {
				observability.SetSpanError(ctx, errors.New(r.Error))
			}
			if !yield(r) {
				return
			}
		}
	}
}

// WithLogging wraps a Node with per-result logging.
func WithLogging(n Node, log *logger.Logger) Node {
	return &loggingNode{inner: n, log: log}
}

type loggingNode struct {
	inner Node
	log   *logger.Logger
}

func (n *loggingNode) Name() string { return n.inner.Name() }

func (n *loggingNode) Execute(ctx context.Context, rc *run.Context, input any) iter.Seq[run.Result] {
	return func(yield func(run.Result) bool) {
		start := time.Now()

		for r := range n.inner.Execute(ctx, rc, input) {
			fields := logger.Fields(
				logger.FieldNode, n.inner.Name(),
				logger.FieldStatus, string(r.Status),
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if r.Status == run.StepFailed {
				fields[logger.FieldError] = r.Error
				n.log.Error("node step failed", fields)
			} else {
				n.log.Debug("node step", fields)
			}
			if !yield(r) {
				return
			}
		}
	}
}
