// Package node runs a single blockchain node in a container and waits for it to serve.
package node

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/celestiaorg/nodenv/framework/backoff"
	"github.com/celestiaorg/nodenv/framework/docker/client"
	"github.com/celestiaorg/nodenv/framework/docker/consts"
	"github.com/celestiaorg/nodenv/framework/docker/container"
	"github.com/celestiaorg/nodenv/framework/docker/internal"
	"github.com/celestiaorg/nodenv/framework/testutil/random"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/docker/go-connections/nat"
	"github.com/moby/moby/errdefs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultHealthPollInterval is how often a starting container's health is checked.
	DefaultHealthPollInterval = 100 * time.Millisecond

	// RemovalTimeout bounds how long teardown waits for the engine to remove a container.
	RemovalTimeout = 30 * time.Second

	// logDrainTimeout bounds how long a stopped container's log stream may take to end.
	logDrainTimeout = 5 * time.Second
)

// ContainerName is the name of the node container for a chain, scoped by prefix.
func ContainerName(prefix string, blockchain types.Blockchain, network string) string {
	return internal.SanitizeDockerResourceName(fmt.Sprintf("%s-node-%s-%s", prefix, blockchain, network))
}

// Launcher starts node containers. A container it returns is running and, if its image
// defines a health check, no longer starting.
type Launcher struct {
	Logger  *zap.Logger
	Gateway types.Gateway
	Prefix  string
	// EnvironmentID is set as a label on every container, when not empty.
	EnvironmentID      string
	ContainerOptions   container.Options
	HealthPollInterval time.Duration
	Timer              backoff.Timer
	// PortSource picks the host port of the node.
	PortSource func() (uint16, error)

	mu         sync.Mutex
	forwarders map[string]chan struct{}
}

// NewLauncher returns a Launcher with default polling, timer and port source.
func NewLauncher(logger *zap.Logger, gw types.Gateway, prefix string) *Launcher {
	return &Launcher{
		Logger:             logger,
		Gateway:            gw,
		Prefix:             prefix,
		HealthPollInterval: DefaultHealthPollInterval,
		Timer:              backoff.RealTimer,
		PortSource:         random.Port,
	}
}

// Launch picks a port for the node and writes it to cfg.NodeURI.Port, replaces any
// container left over from an earlier run, then creates and starts the node container.
// On failure no container created by this call is left behind.
func (l *Launcher) Launch(ctx context.Context, cfg *types.ChainConfig) (types.ContainerHandle, error) {
	if err := cfg.Validate(); err != nil {
		return types.ContainerHandle{}, fmt.Errorf("invalid chain config: %w", err)
	}

	port, err := l.PortSource()
	if err != nil {
		return types.ContainerHandle{}, err
	}
	cfg.NodeURI.Port = port

	name := ContainerName(l.Prefix, cfg.Blockchain, cfg.Network)
	logger := l.Logger.With(zap.String("container", name))

	if err := l.removeStale(ctx, logger, name); err != nil {
		return types.ContainerHandle{}, err
	}

	if err := l.Gateway.EnsureImage(ctx, cfg.NodeImage); err != nil {
		return types.ContainerHandle{}, fmt.Errorf("ensuring image %s: %w", cfg.NodeImage, err)
	}

	handle, err := l.Gateway.CreateContainer(ctx, l.containerSpec(name, *cfg))
	if err != nil {
		return types.ContainerHandle{}, fmt.Errorf("creating container %s: %w", name, err)
	}
	logger.Info("created container", zap.String("id", handle.ID), zap.String("image", cfg.NodeImage), zap.Uint16("port", port))

	if err := l.Gateway.StartContainer(ctx, handle.ID); err != nil {
		l.Rollback(ctx, handle)
		return types.ContainerHandle{}, fmt.Errorf("starting container %s: %w", name, err)
	}

	if err := l.forwardLogs(ctx, logger, handle); err != nil {
		l.Rollback(ctx, handle)
		return types.ContainerHandle{}, err
	}

	if err := l.waitHealthy(ctx, handle); err != nil {
		l.Rollback(ctx, handle)
		return types.ContainerHandle{}, err
	}
	return handle, nil
}

// Stop stops the container and returns once the engine has removed it and its logs have
// drained. A container that is already stopped or gone is not an error.
func (l *Launcher) Stop(ctx context.Context, handle types.ContainerHandle) error {
	if err := Teardown(ctx, l.Gateway, handle.ID); err != nil {
		return fmt.Errorf("tearing down container %s: %w", handle.Name, err)
	}
	l.waitLogs(ctx, handle.ID)
	return nil
}

// Rollback disposes of a container after a failure. Errors are logged, not returned,
// so the failure that caused the rollback is the one reported.
func (l *Launcher) Rollback(ctx context.Context, handle types.ContainerHandle) {
	ctx = context.WithoutCancel(ctx)

	if err := Teardown(ctx, l.Gateway, handle.ID); err != nil {
		if rmErr := l.Gateway.RemoveContainer(ctx, handle.ID); rmErr != nil && !errdefs.IsNotFound(rmErr) {
			err = multierr.Append(err, rmErr)
		}
		l.Logger.Error("failed to roll back container",
			zap.String("container", handle.Name),
			zap.String("id", handle.ID),
			zap.Error(err),
		)
	}
	l.waitLogs(ctx, handle.ID)
}

// Teardown stops and removes a container, then waits until the engine no longer lists it.
// A remove that conflicts with an auto-removal already in progress is not an error.
func Teardown(ctx context.Context, gw types.Gateway, id string) error {
	if err := gw.StopContainer(ctx, id); client.IsLoggableStopError(err) {
		return fmt.Errorf("stopping container %s: %w", id, err)
	}
	if err := gw.RemoveContainer(ctx, id); err != nil && !errdefs.IsNotFound(err) && !errdefs.IsConflict(err) {
		return fmt.Errorf("removing container %s: %w", id, err)
	}

	ctx, cancel := context.WithTimeout(ctx, RemovalTimeout)
	defer cancel()
	if err := gw.WaitRemoved(ctx, id); err != nil {
		return fmt.Errorf("waiting for removal of container %s: %w", id, err)
	}
	return nil
}

// removeStale tears down the first container whose name ends with name. It returns only
// once that container is gone, so the name is free for the container about to be created.
func (l *Launcher) removeStale(ctx context.Context, logger *zap.Logger, name string) error {
	summaries, err := l.Gateway.ListContainers(ctx, name)
	if err != nil {
		return fmt.Errorf("listing containers: %w", err)
	}

	for _, s := range summaries {
		if !internal.AnyNameHasSuffix(s.Names, name) {
			continue
		}

		logger.Info("removing stale container", zap.String("id", s.ID), zap.String("state", s.State))
		if err := Teardown(ctx, l.Gateway, s.ID); err != nil {
			return fmt.Errorf("removing stale container: %w", err)
		}
		return nil
	}
	return nil
}

func (l *Launcher) containerSpec(name string, cfg types.ChainConfig) types.ContainerSpec {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range append([]uint16{cfg.NodeURI.Port}, cfg.NodeAdditionalPorts...) {
		port := nat.Port(fmt.Sprintf("%d/tcp", p))
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostPort: strconv.Itoa(int(p))}}
	}

	labels := make(map[string]string, len(l.ContainerOptions.Labels)+1)
	maps.Copy(labels, l.ContainerOptions.Labels)
	if l.EnvironmentID != "" {
		labels[consts.EnvironmentLabel] = l.EnvironmentID
	}

	return types.ContainerSpec{
		Name:         name,
		Hostname:     internal.CondenseHostName(name),
		Image:        cfg.NodeImage,
		Cmd:          cfg.Command(),
		Env:          l.ContainerOptions.Env,
		Labels:       labels,
		AutoRemove:   true,
		AttachStdout: true,
		AttachStderr: true,
		ExposedPorts: exposed,
		PortBindings: bindings,
	}
}

// forwardLogs copies the container output to the logger until the container is gone.
// The forwarder outlives ctx; it ends with the log stream.
func (l *Launcher) forwardLogs(ctx context.Context, logger *zap.Logger, handle types.ContainerHandle) error {
	chunks, err := l.Gateway.StreamLogs(context.WithoutCancel(ctx), handle.ID)
	if err != nil {
		return fmt.Errorf("streaming logs of %s: %w", handle.Name, err)
	}

	done := make(chan struct{})
	l.mu.Lock()
	if l.forwarders == nil {
		l.forwarders = make(map[string]chan struct{})
	}
	l.forwarders[handle.ID] = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		for chunk, err := range chunks {
			if err != nil {
				logger.Error("log stream failed", zap.Error(err))
				return
			}
			if err := forwardChunk(logger, chunk); err != nil {
				panic(err)
			}
		}
		logger.Info("exited")
	}()
	return nil
}

func forwardChunk(logger *zap.Logger, chunk types.LogChunk) error {
	switch chunk.Stream {
	case types.StreamStdout, types.StreamStderr:
		logger.Info(strings.TrimRight(string(chunk.Data), "\r\n"), zap.Stringer("stream", chunk.Stream))
		return nil
	default:
		return fmt.Errorf("%w: %s output from a container", ErrInvariantViolation, chunk.Stream)
	}
}

// waitLogs waits, for a bounded time, until the log forwarder of a stopped container has ended.
func (l *Launcher) waitLogs(ctx context.Context, id string) {
	l.mu.Lock()
	done, ok := l.forwarders[id]
	delete(l.forwarders, id)
	l.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, logDrainTimeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		l.Logger.Debug("log stream still open after stop", zap.String("id", id))
	}
}

// waitHealthy polls the container while its health check reports starting.
func (l *Launcher) waitHealthy(ctx context.Context, handle types.ContainerHandle) error {
	for {
		state, err := l.Gateway.InspectContainer(ctx, handle.ID)
		if err != nil {
			return fmt.Errorf("inspecting container %s: %w", handle.Name, err)
		}
		health, err := container.ParseHealth(state.Health)
		if err != nil {
			return err
		}

		switch health {
		case container.HealthStarting:
			if err := backoff.Sleep(ctx, l.Timer, l.HealthPollInterval); err != nil {
				return err
			}
		case container.HealthUnhealthy:
			return fmt.Errorf("%w: %s", ErrUnhealthyContainer, handle.Name)
		default:
			return nil
		}
	}
}
