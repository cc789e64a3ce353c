package bodhikit

import (
	"errors"
	"fmt"
)

// ValidationError indicates a malformed inbound request. No state is mutated
// when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("bodhikit: invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("bodhikit: invalid request: %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates an unknown tool name or approval id. It is fatal
// for the single operation that triggered it, never for the process.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bodhikit: %s %q not found", e.Resource, e.ID)
}

// ExecutionError wraps a failure raised by an approved tool during real
// invocation. The pending approval is cleaned up regardless, so the action
// is never retried automatically.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("bodhikit: executing %s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TransportError wraps a serialization failure of an outbound message. The
// stream replaces the message with a fallback payload instead of dying.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bodhikit: encoding message: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
