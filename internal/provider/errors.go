package provider

import (
	"errors"
	"fmt"
)

// ErrInstanceNotFound is returned by Describe when no instance with the
// given ID exists. Destroy treats the condition as success instead.
var ErrInstanceNotFound = errors.New("instance not found")

// OperationError wraps a vendor call failure with enough context to act
// on. The underlying error is propagated verbatim and never retried.
type OperationError struct {
	Provider string
	Op       string
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ReadinessTimeoutError is returned when a created instance never reported
// ready within the attempt budget. The machine itself is not destroyed;
// the caller owns cleanup of the stranded resource.
type ReadinessTimeoutError struct {
	InstanceID string
	Attempts   int
}

func (e *ReadinessTimeoutError) Error() string {
	return fmt.Sprintf("instance %s not ready after %d attempts", e.InstanceID, e.Attempts)
}
