package resilience

import (
	"errors"
	"fmt"
)

// Kind classifies an error by where the fault lies
type Kind string

const (
	// KindValidation indicates bad input rejected before any call was made
	KindValidation Kind = "validation"

	// KindBusinessLogic indicates a domain rule was violated
	KindBusinessLogic Kind = "business_logic"

	// KindExternalService indicates an external call failed (timeout,
	// non-2xx response, malformed payload)
	KindExternalService Kind = "external_service"

	// KindConfiguration indicates missing credentials or setup
	KindConfiguration Kind = "configuration"

	// KindDependencyResolution indicates a workflow dependency could not
	// be resolved (forward reference, unknown name, agent not found)
	KindDependencyResolution Kind = "dependency_resolution"
)

// Severity indicates how serious an error is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error is a classified error with severity and free-form context.
// It wraps an optional cause and participates in errors.Is/errors.As.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string
	Context  map[string]interface{}
	cause    error
}

// New creates a classified error
func New(kind Kind, severity Severity, message string) *Error {
	return &Error{
		Kind:     kind,
		Severity: severity,
		Message:  message,
	}
}

// Newf creates a classified error with a formatted message
func Newf(kind Kind, severity Severity, format string, args ...interface{}) *Error {
	return New(kind, severity, fmt.Sprintf(format, args...))
}

// Wrap creates a classified error wrapping a cause
func Wrap(kind Kind, severity Severity, message string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Severity: severity,
		Message:  message,
		cause:    cause,
	}
}

// WithContext attaches a key/value pair to the error's context map
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of a classified error, or the empty string when
// the error carries no classification
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// IsRetryable reports whether an error is worth retrying. Only external
// service failures qualify; validation errors are never retried.
func IsRetryable(err error) bool {
	return KindOf(err) == KindExternalService
}
