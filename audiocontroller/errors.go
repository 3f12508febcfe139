package audiocontroller

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID rejects registering a second controller under an id
	// already present in the registry.
	ErrDuplicateID = errors.New("player id already registered")

	// ErrNotFound reports an id with no registered controller behind it.
	ErrNotFound = errors.New("player not registered")

	// ErrNoActiveController reports a command issued while no player is active.
	ErrNoActiveController = errors.New("no active player")

	// ErrNoSuitableController reports an auto-selection pass that found no
	// playing and no connected controller.
	ErrNoSuitableController = errors.New("no suitable player found")

	// ErrClosed rejects operations on an engine after Close.
	ErrClosed = errors.New("engine closed")
)

// BackendError wraps a failure reported by a player backend while executing a
// forwarded command. The engine stays consistent; only the command failed.
type BackendError struct {
	PlayerID string
	Op       string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.PlayerID, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
