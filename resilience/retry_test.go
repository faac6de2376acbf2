package resilience

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillsenselab/docflow/errors"
	"github.com/skillsenselab/docflow/logger"
)

func fastPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond
	p.Jitter = false
	return p
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), fastPolicy(), func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_FailsTwiceThenSucceeds(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), fastPolicy(), func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.ExternalService("reasoning", stderrors.New("overloaded"))
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	callCount := 0
	testErr := errors.Timeout("complete")

	_, err := Retry(context.Background(), fastPolicy(), func() (string, error) {
		callCount++
		return "", testErr
	})

	if !stderrors.Is(err, testErr) {
		t.Errorf("expected original error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_StopKindAbortsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"authentication", errors.Unauthorized("")},
		{"authorization", errors.Forbidden("")},
		{"validation", errors.Validation("bad input")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callCount := 0
			_, err := Retry(context.Background(), fastPolicy(), func() (string, error) {
				callCount++
				return "", tt.err
			})

			if !stderrors.Is(err, tt.err) {
				t.Errorf("expected original error, got %v", err)
			}
			if callCount != 1 {
				t.Errorf("expected exactly 1 call, got %d", callCount)
			}
		})
	}
}

func TestRetry_NonRetryableKindNotRetried(t *testing.T) {
	callCount := 0
	wfErr := errors.Workflow("stage out of order")

	_, err := Retry(context.Background(), fastPolicy(), func() (string, error) {
		callCount++
		return "", wfErr
	})

	if !stderrors.Is(err, wfErr) {
		t.Errorf("expected original error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_TerminalLogReportsActualAttempts(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	log := logger.New(&logger.Config{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	}, "test")
	os.Stdout = orig

	policy := fastPolicy()
	policy.Logger = log

	// A workflow error is neither retryable nor a stop kind, so the
	// call gives up after a single attempt.
	_, retryErr := Retry(context.Background(), policy, func() (string, error) {
		return "", errors.Workflow("stage out of order")
	})
	w.Close()
	out, _ := io.ReadAll(r)

	if retryErr == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(string(out), `"attempt":1`) {
		t.Errorf("terminal log should report the single attempt, got %s", out)
	}
}

func TestRetry_RespectsContextDuringBackoff(t *testing.T) {
	policy := fastPolicy()
	policy.InitialBackoff = time.Second
	policy.MaxAttempts = 5

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Retry(ctx, policy, func() (string, error) {
		calls.Add(1)
		return "", errors.ConnectionFailed("reasoning")
	})

	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls.Load())
	}
}

func TestRetry_OnRetryHook(t *testing.T) {
	policy := fastPolicy()
	var attempts []int

	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		attempts = append(attempts, attempt)
		if backoff <= 0 {
			t.Errorf("expected positive backoff, got %v", backoff)
		}
	}

	_, _ = Retry(context.Background(), policy, func() (string, error) {
		return "", errors.Timeout("op")
	})

	if len(attempts) != 2 {
		t.Fatalf("expected 2 retry callbacks, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected attempt numbers: %v", attempts)
	}
}

func TestCalculateBackoff_ExponentialAndCapped(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     300 * time.Millisecond,
		BackoffFactor:  2.0,
	}

	if got := calculateBackoff(1, policy); got != 100*time.Millisecond {
		t.Errorf("attempt 1: got %v", got)
	}
	if got := calculateBackoff(2, policy); got != 200*time.Millisecond {
		t.Errorf("attempt 2: got %v", got)
	}
	// attempt 3 would be 400ms, capped at 300ms
	if got := calculateBackoff(3, policy); got != 300*time.Millisecond {
		t.Errorf("attempt 3: got %v", got)
	}
}

func TestCalculateBackoff_JitterRange(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}

	for i := 0; i < 50; i++ {
		got := calculateBackoff(1, policy)
		if got < 50*time.Millisecond || got > 100*time.Millisecond {
			t.Fatalf("jittered backoff %v outside [50ms, 100ms]", got)
		}
	}
}

func TestRetryFunc(t *testing.T) {
	callCount := 0
	err := RetryFunc(context.Background(), fastPolicy(), func() error {
		callCount++
		if callCount < 2 {
			return errors.DatabaseError(stderrors.New("locked"))
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 2 {
		t.Errorf("expected 2 calls, got %d", callCount)
	}
}
