package node

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhealthyContainer is returned when the engine reports the node container as unhealthy.
	ErrUnhealthyContainer = errors.New("container is unhealthy")
	// ErrContainerExited is returned when the node container stopped, vanished or turned
	// unhealthy while waiting for it to become ready.
	ErrContainerExited = errors.New("container exited")
	// ErrReadinessTimeout is returned when the node never answered within the readiness budget.
	ErrReadinessTimeout = errors.New("node did not become ready")
	// ErrInvariantViolation marks a state the engine should never produce.
	ErrInvariantViolation = errors.New("invariant violation")
)

// ConnectorStartError is returned when every attempt to start a connector failed.
// Err is the error of the final attempt.
type ConnectorStartError struct {
	Attempts uint
	Err      error
}

func (e *ConnectorStartError) Error() string {
	return fmt.Sprintf("connector failed to start after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectorStartError) Unwrap() error {
	return e.Err
}
