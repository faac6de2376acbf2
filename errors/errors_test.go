package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := Validation("name is required")
	if got := err.Error(); got != "VALIDATION: name is required" {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := DatabaseError(cause)

	msg := err.Error()
	if !strings.Contains(msg, "DATABASE") {
		t.Errorf("expected kind in message, got %s", msg)
	}
	if !strings.Contains(msg, "connection reset") {
		t.Errorf("expected cause in message, got %s", msg)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := ExternalService("reasoning", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestError_WithDetail(t *testing.T) {
	err := Timeout("complete").WithDetail("attempt", 2)
	if err.Details["attempt"] != 2 {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
	if err.Details["operation"] != "complete" {
		t.Errorf("expected constructor detail preserved, got %v", err.Details)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"structured", Validation("bad"), KindValidation},
		{"wrapped structured", fmt.Errorf("outer: %w", Forbidden("")), KindAuthorization},
		{"deadline", context.DeadlineExceeded, KindExternalService},
		{"plain", stderrors.New("mystery"), KindSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", Validation("bad"), false},
		{"authentication", Unauthorized(""), false},
		{"authorization", Forbidden(""), false},
		{"database", DatabaseError(stderrors.New("down")), true},
		{"external service", ExternalService("reasoning", nil), true},
		{"timeout", Timeout("op"), true},
		{"file system", FileSystem("write", nil), true},
		{"workflow", Workflow("invalid transition"), false},
		{"internal", Internal(stderrors.New("panic")), false},
		{"plain error", stderrors.New("mystery"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverityOf(t *testing.T) {
	if got := SeverityOf(Internal(nil)); got != SeverityCritical {
		t.Errorf("expected critical, got %s", got)
	}
	if got := SeverityOf(stderrors.New("plain")); got != SeverityCritical {
		t.Errorf("expected critical for unclassified, got %s", got)
	}
	if got := SeverityOf(Validation("bad")); got != SeverityLow {
		t.Errorf("expected low, got %s", got)
	}
}

func TestNew_RetryableDetection(t *testing.T) {
	if err := New(KindDatabase, SeverityHigh, "down"); !err.Retryable {
		t.Error("expected database errors to default retryable")
	}
	if err := New(KindValidation, SeverityLow, "bad"); err.Retryable {
		t.Error("expected validation errors to default non-retryable")
	}
}
