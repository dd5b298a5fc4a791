package client

import (
	"fmt"

	"github.com/moby/moby/errdefs"
)

// EngineCallError is returned when the container engine rejects or fails a call.
// The engine error is kept as is and reachable through errors.Is / errors.As.
type EngineCallError struct {
	Op  string
	ID  string
	Err error
}

func (e *EngineCallError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *EngineCallError) Unwrap() error {
	return e.Err
}

// IsLoggableStopError reports whether err is a real stop failure. A container that is
// already stopped or already gone is not one.
func IsLoggableStopError(err error) bool {
	if err == nil {
		return false
	}
	return !(errdefs.IsNotModified(err) || errdefs.IsNotFound(err))
}
