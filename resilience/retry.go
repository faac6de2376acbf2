// Package resilience provides patterns for calling unreliable external
// collaborators. It includes kind-aware retry with exponential backoff
// and a bulkhead for concurrency limiting.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/skillsenselab/docflow/errors"
	"github.com/skillsenselab/docflow/logger"
)

// RetryPolicy configures retry behavior. A policy is stateless and may
// be shared across many calls.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialBackoff is the initial delay between retries.
	InitialBackoff time.Duration
	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64
	// Jitter scales each backoff by a uniform value in [0.5, 1.0].
	Jitter bool
	// RetryableKinds is the set of error kinds worth retrying.
	RetryableKinds map[errors.Kind]bool
	// StopKinds is the set of error kinds that abort immediately,
	// regardless of remaining attempts.
	StopKinds map[errors.Kind]bool
	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, backoff time.Duration)
	// Logger receives retry and terminal-failure events. Nil disables logging.
	Logger *logger.Logger
}

// DefaultRetryPolicy returns sensible defaults: three attempts, retry on
// transient collaborator failures, abort immediately on auth and
// validation failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
		RetryableKinds: map[errors.Kind]bool{
			errors.KindDatabase:        true,
			errors.KindExternalService: true,
			errors.KindFileSystem:      true,
		},
		StopKinds: map[errors.Kind]bool{
			errors.KindValidation:     true,
			errors.KindAuthentication: true,
			errors.KindAuthorization:  true,
		},
	}
}

func (p *RetryPolicy) applyDefaults() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 10 * time.Second
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2.0
	}
	if p.RetryableKinds == nil {
		p.RetryableKinds = DefaultRetryPolicy().RetryableKinds
	}
	if p.StopKinds == nil {
		p.StopKinds = DefaultRetryPolicy().StopKinds
	}
}

// Retry executes a function with kind-classified retry logic.
//
// On each failure the error is classified: errors whose kind is in the
// stop set are returned immediately; errors in the retryable set are
// retried after an exponential backoff while attempts remain; anything
// else is returned as-is. Backoff sleeps are context-aware, so both a
// blocking call site (context.Background) and a cooperative one share
// identical policy semantics.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := 0

	policy.applyDefaults()

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		attempts = attempt
		// Check context before each attempt
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		kind := errors.KindOf(err)

		if policy.StopKinds[kind] {
			if policy.Logger != nil {
				policy.Logger.Warn("aborting without retry", logger.Fields(
					logger.FieldAttempt, attempt,
					"kind", string(kind),
					logger.FieldError, err.Error(),
				))
			}
			return zero, err
		}

		if !policy.RetryableKinds[kind] {
			break
		}

		// Don't sleep after the last attempt
		if attempt == policy.MaxAttempts {
			break
		}

		backoff := calculateBackoff(attempt, policy)

		if policy.Logger != nil {
			policy.Logger.Warn("retrying after failure", logger.Fields(
				logger.FieldAttempt, attempt,
				"kind", string(kind),
				"backoff", backoff.String(),
				logger.FieldError, err.Error(),
			))
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, backoff)
		}

		// Wait with context awareness
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	if policy.Logger != nil {
		policy.Logger.Error("giving up", logger.Fields(
			logger.FieldAttempt, attempts,
			logger.FieldError, lastErr.Error(),
		))
	}
	return zero, lastErr
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, policy RetryPolicy, fn func() error) error {
	_, err := Retry(ctx, policy, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// calculateBackoff calculates the backoff duration for an attempt.
func calculateBackoff(attempt int, policy RetryPolicy) time.Duration {
	// Exponential backoff: initial * factor^(attempt-1), capped at max
	backoff := float64(policy.InitialBackoff) * math.Pow(policy.BackoffFactor, float64(attempt-1))
	if backoff > float64(policy.MaxBackoff) {
		backoff = float64(policy.MaxBackoff)
	}

	if policy.Jitter {
		backoff *= 0.5 + rand.Float64()*0.5
	}

	return time.Duration(backoff)
}
