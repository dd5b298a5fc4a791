// Package container holds engine-independent helpers for node containers.
package container

import "fmt"

// HealthStatus is the health of a container as reported by the engine.
type HealthStatus int

const (
	// HealthNoCheck means the image defines no health check.
	HealthNoCheck HealthStatus = iota
	HealthStarting
	HealthHealthy
	HealthUnhealthy
)

func (h HealthStatus) String() string {
	switch h {
	case HealthNoCheck:
		return "none"
	case HealthStarting:
		return "starting"
	case HealthHealthy:
		return "healthy"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return fmt.Sprintf("health(%d)", int(h))
	}
}

// UnknownHealthStatusError is returned for a health string the engine is not documented to produce.
type UnknownHealthStatusError struct {
	Status string
}

func (e *UnknownHealthStatusError) Error() string {
	return fmt.Sprintf("unknown container health status %q", e.Status)
}

// ParseHealth maps the raw health field of an inspection. A nil status means the field
// was absent. Unrecognized values, including the empty string, are an error.
func ParseHealth(status *string) (HealthStatus, error) {
	if status == nil {
		return HealthNoCheck, nil
	}
	switch *status {
	case "none":
		return HealthNoCheck, nil
	case "starting":
		return HealthStarting, nil
	case "healthy":
		return HealthHealthy, nil
	case "unhealthy":
		return HealthUnhealthy, nil
	default:
		return 0, &UnknownHealthStatusError{Status: *status}
	}
}
