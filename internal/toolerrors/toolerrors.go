// Package toolerrors provides a structured error type for function-call
// failures. ToolError preserves message and causal context, supports
// errors.Is/As through Unwrap, and survives round-trips through the
// Tool Invocation Record without losing diagnostic detail.
package toolerrors

import (
	"errors"
	"fmt"
)

// ToolError represents a structured function-call failure. Errors may be
// nested via Cause to retain diagnostics across retries and re-planning.
type ToolError struct {
	// Message is the human-readable summary of the failure.
	Message string
	// Code classifies the failure for retry-hint construction, using the
	// resilient package's Code* values ("network", "transport_5xx",
	// "rate_limited", "transport_4xx", "bad_input", "not_found",
	// "permission", "timeout").
	Code string
	// Cause links to the underlying error, enabling error chains.
	Cause *ToolError
}

// New constructs a ToolError with the provided message.
func New(message string) *ToolError {
	if message == "" {
		message = "tool error"
	}
	return &ToolError{Message: message}
}

// Classify constructs a ToolError tagged with a retry classification code.
func Classify(code, message string) *ToolError {
	e := New(message)
	e.Code = code
	return e
}

// NewWithCause constructs a ToolError that wraps an underlying error. The
// cause is converted into a ToolError chain so the classification and
// message survive serialization while still supporting errors.Is/As.
func NewWithCause(message string, cause error) *ToolError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ToolError{
		Message: message,
		Cause:   FromError(cause),
	}
}

// FromError converts an arbitrary error into a ToolError chain.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{
		Message: err.Error(),
		Cause:   FromError(errors.Unwrap(err)),
	}
}

// Errorf formats according to a format specifier and returns a ToolError.
func Errorf(format string, args ...any) *ToolError {
	return New(fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying error to support errors.Is/As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
