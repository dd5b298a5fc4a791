package types

import (
	"context"
	"iter"

	"github.com/docker/go-connections/nat"
)

// Gateway is the capability boundary over the container engine.
//
// Implementations do not retry; callers impose their own backoff. Engine errors are
// returned wrapped but otherwise untouched so that errdefs classification still works.
type Gateway interface {
	// ListContainers returns containers in any state whose name contains nameFilter.
	ListContainers(ctx context.Context, nameFilter string) ([]ContainerSummary, error)
	// CreateContainer creates, but does not start, a container.
	CreateContainer(ctx context.Context, spec ContainerSpec) (ContainerHandle, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	// RemoveContainer force-removes a container.
	RemoveContainer(ctx context.Context, id string) error
	// WaitRemoved blocks until the container no longer exists. Stopping an auto-remove
	// container returns before the engine has removed it. A container that is already
	// gone is not an error.
	WaitRemoved(ctx context.Context, id string) error
	InspectContainer(ctx context.Context, id string) (ContainerState, error)
	// StreamLogs follows the output of a container. The sequence ends once the
	// container is gone, or after yielding a non-nil error.
	StreamLogs(ctx context.Context, id string) (iter.Seq2[LogChunk, error], error)
	// EnsureImage makes the image available locally, pulling it when absent.
	EnsureImage(ctx context.Context, ref string) error
}

// ContainerHandle identifies a container created for a node.
type ContainerHandle struct {
	ID   string
	Name string
}

// ContainerSummary is a single entry of a container listing.
type ContainerSummary struct {
	ID string
	// Names as recorded by the engine, which may carry a leading "/".
	Names []string
	State string
}

// ContainerState is the subset of an inspection the launcher relies on.
type ContainerState struct {
	Status  string
	Running bool
	// Health is the raw health status string, nil when the image defines no health check.
	Health *string
}

// ContainerSpec is everything needed to create a node container.
type ContainerSpec struct {
	Name         string
	Hostname     string
	Image        string
	Cmd          []string
	Env          []string
	Labels       map[string]string
	AutoRemove   bool
	AttachStdout bool
	AttachStderr bool
	ExposedPorts nat.PortSet
	PortBindings nat.PortMap
}

// LogStream identifies the stream a LogChunk was written to.
type LogStream int

const (
	StreamStdin LogStream = iota
	StreamStdout
	StreamStderr
)

func (s LogStream) String() string {
	switch s {
	case StreamStdin:
		return "stdin"
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// LogChunk is a single frame of container output.
type LogChunk struct {
	Stream LogStream
	Data   []byte
}
