// Package errors provides unified error handling for the docflow core.
// It implements structured error kinds with severity grading and
// retryable detection consumed by the resilience package.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Error is the unified application error type.
type Error struct {
	// Kind classifies the error for retry and routing decisions.
	Kind Kind `json:"kind"`
	// Severity grades the error for operators.
	Severity Severity `json:"severity"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with automatic retryable detection.
func New(kind Kind, severity Severity, message string) *Error {
	return &Error{
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Retryable: IsRetryableKind(kind),
	}
}

// KindOf classifies an arbitrary error into a Kind.
// Structured errors report their own kind; context deadline expiry is
// treated as an external-service timeout; everything else is KindSystem.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindExternalService
	}
	return KindSystem
}

// IsRetryable reports whether an error should be considered transient.
// Structured errors carry an explicit flag; unclassified errors fall
// back to the per-kind default table.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return IsRetryableKind(KindOf(err))
}

// SeverityOf returns the severity of an error, defaulting unclassified
// errors to critical.
func SeverityOf(err error) Severity {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity
	}
	return SeverityCritical
}

// --- Common Error Constructors ---

// Validation creates a new Error for rejected input.
func Validation(message string) *Error {
	return &Error{
		Kind: KindValidation, Severity: SeverityLow,
		Message: message, Retryable: false,
	}
}

// MissingField creates a new Error for a missing required field.
func MissingField(field string) *Error {
	return &Error{
		Kind: KindValidation, Severity: SeverityLow,
		Message: fmt.Sprintf("missing required field: %s", field), Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Unauthorized creates a new Error for a failed identity check.
func Unauthorized(reason string) *Error {
	if reason == "" {
		reason = "authentication required"
	}
	return &Error{
		Kind: KindAuthentication, Severity: SeverityHigh,
		Message: reason, Retryable: false,
	}
}

// Forbidden creates a new Error for a permission failure.
func Forbidden(reason string) *Error {
	if reason == "" {
		reason = "permission denied"
	}
	return &Error{
		Kind: KindAuthorization, Severity: SeverityHigh,
		Message: reason, Retryable: false,
	}
}

// DatabaseError creates a new Error for a persistence failure.
func DatabaseError(cause error) *Error {
	return &Error{
		Kind: KindDatabase, Severity: SeverityHigh,
		Message: "database operation failed", Retryable: true, Cause: cause,
	}
}

// ExternalService creates a new Error for a remote collaborator failure.
func ExternalService(service string, cause error) *Error {
	return &Error{
		Kind: KindExternalService, Severity: SeverityMedium,
		Message: fmt.Sprintf("the %s service encountered an error", service),
		Retryable: true,
		Details:   map[string]any{"service": service}, Cause: cause,
	}
}

// Timeout creates a new Error for an operation that exceeded its deadline.
func Timeout(operation string) *Error {
	return &Error{
		Kind: KindExternalService, Severity: SeverityMedium,
		Message: fmt.Sprintf("operation %s timed out", operation), Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// ConnectionFailed creates a new Error for a failed connection to a service.
func ConnectionFailed(service string) *Error {
	return &Error{
		Kind: KindExternalService, Severity: SeverityMedium,
		Message: fmt.Sprintf("unable to connect to %s", service), Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// FileSystem creates a new Error for a storage I/O failure.
func FileSystem(operation string, cause error) *Error {
	return &Error{
		Kind: KindFileSystem, Severity: SeverityMedium,
		Message: fmt.Sprintf("file system %s failed", operation), Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Workflow creates a new Error for a domain-rule failure.
func Workflow(message string) *Error {
	return &Error{
		Kind: KindWorkflow, Severity: SeverityMedium,
		Message: message, Retryable: false,
	}
}

// Internal creates a new Error for an unexpected failure.
func Internal(cause error) *Error {
	return &Error{
		Kind: KindSystem, Severity: SeverityCritical,
		Message: "an unexpected error occurred", Retryable: false, Cause: cause,
	}
}
