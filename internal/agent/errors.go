package agent

import (
	"errors"
	"fmt"
)

// ErrEmptyPrompt is returned by [Pipeline.Process] when the prompt is empty
// after trimming whitespace. Detected before any external call is made.
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// RoutingError is a fatal routing-stage failure: the language model was
// unreachable, or its output failed validation even after one corrective
// re-ask.
type RoutingError struct {
	// Cause is the underlying provider or parse error.
	Cause error

	// RawOutput holds the model's last unparseable output, when the failure
	// was a validation failure. Empty for transport failures.
	RawOutput string
}

// Error implements the error interface.
func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RoutingError) Unwrap() error {
	return e.Cause
}

// ReasoningError is a fatal reasoning-stage failure, with the same shape and
// retry semantics as [RoutingError] but for the second model call.
type ReasoningError struct {
	// Cause is the underlying provider or parse error.
	Cause error

	// RawOutput holds the model's last unparseable output, when the failure
	// was a validation failure. Empty for transport failures.
	RawOutput string
}

// Error implements the error interface.
func (e *ReasoningError) Error() string {
	return fmt.Sprintf("reasoning failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReasoningError) Unwrap() error {
	return e.Cause
}
