package errors

// Kind classifies an error by the subsystem responsible for it.
// Retry decisions are made on the kind, never on the concrete type.
type Kind string

const (
	// KindValidation indicates malformed or rejected input. Never retried.
	KindValidation Kind = "VALIDATION"
	// KindAuthentication indicates a failed identity check. Never retried.
	KindAuthentication Kind = "AUTHENTICATION"
	// KindAuthorization indicates a permission failure. Never retried.
	KindAuthorization Kind = "AUTHORIZATION"
	// KindDatabase indicates a persistence-layer failure.
	KindDatabase Kind = "DATABASE"
	// KindExternalService indicates a failure in a remote collaborator,
	// including timeouts and connection failures.
	KindExternalService Kind = "EXTERNAL_SERVICE"
	// KindFileSystem indicates a local or object-storage I/O failure.
	KindFileSystem Kind = "FILE_SYSTEM"
	// KindWorkflow indicates a domain/business-rule failure.
	KindWorkflow Kind = "WORKFLOW"
	// KindSystem indicates an unexpected, unclassified failure.
	KindSystem Kind = "SYSTEM"
)

// Severity grades how serious an error is for operators.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var retryableKinds = map[Kind]bool{
	KindValidation:      false,
	KindAuthentication:  false,
	KindAuthorization:   false,
	KindDatabase:        true,
	KindExternalService: true,
	KindFileSystem:      true,
	KindWorkflow:        false,
	KindSystem:          false,
}

// IsRetryableKind returns true if the kind indicates a transient failure.
func IsRetryableKind(kind Kind) bool {
	return retryableKinds[kind]
}
