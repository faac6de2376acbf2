package reasoning

import (
	"context"

	"github.com/skillsenselab/docflow/resilience"
)

// Resilient wraps a Client with kind-aware retry. Transient service
// failures are retried with backoff; validation and auth failures
// abort immediately.
type Resilient struct {
	inner  Client
	policy resilience.RetryPolicy
}

// NewResilient creates a retrying client around inner.
func NewResilient(inner Client, policy resilience.RetryPolicy) *Resilient {
	return &Resilient{inner: inner, policy: policy}
}

// Complete completes the request, retrying per the configured policy.
func (r *Resilient) Complete(ctx context.Context, req Request) (*Response, error) {
	return resilience.Retry(ctx, r.policy, func() (*Response, error) {
		return r.inner.Complete(ctx, req)
	})
}
