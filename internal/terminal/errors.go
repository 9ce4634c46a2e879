package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an operation referenced an id with no live session.
	ErrNotFound = errors.New("session not found")

	// ErrSessionExists indicates a caller-supplied id is already bound to a
	// live session. An id becomes reusable only after its session has exited
	// and been removed from the registry.
	ErrSessionExists = errors.New("session id already in use")

	// ErrCapabilityUnavailable indicates the platform has no usable
	// pseudo-terminal support. Non-fatal: the feature is disabled, nothing
	// is spawned.
	ErrCapabilityUnavailable = errors.New("pseudo-terminal capability unavailable")
)

// SpawnError wraps a failure from the underlying process spawn. The session
// is not registered when this is returned.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn shell: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
