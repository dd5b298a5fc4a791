package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"sync"

	"github.com/celestiaorg/nodenv/framework/docker/consts"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	dockerclient "github.com/moby/moby/client"
	"github.com/moby/moby/errdefs"
)

// Client wraps a Docker client with an associated cleanup label.
// the cleanup label is used to tag every container created by this client,
// enabling cleanup to find and remove exactly the containers associated with a
// specific test run.
//
// Client implements types.Gateway.
type Client struct {
	*dockerclient.Client
	cleanupLabel string

	imagesMu sync.Mutex
	images   map[string]bool
}

var _ types.Gateway = (*Client)(nil)

// NewClient creates a new Client with the given Docker client and cleanup label.
func NewClient(c *dockerclient.Client, cleanupLabel string) *Client {
	return &Client{
		Client:       c,
		cleanupLabel: cleanupLabel,
		images:       make(map[string]bool),
	}
}

// Options selects the engine endpoint. Zero values defer to the DOCKER_* environment variables.
type Options struct {
	Host       string
	APIVersion string
}

// NewFromEnv connects to the engine configured by the environment, negotiating the API version
// unless one is pinned.
func NewFromEnv(opts Options, cleanupLabel string) (*Client, error) {
	clientOpts := []dockerclient.Opt{dockerclient.FromEnv}
	if opts.Host != "" {
		clientOpts = append(clientOpts, dockerclient.WithHost(opts.Host))
	}
	if opts.APIVersion != "" {
		clientOpts = append(clientOpts, dockerclient.WithVersion(opts.APIVersion))
	} else {
		clientOpts = append(clientOpts, dockerclient.WithAPIVersionNegotiation())
	}

	cli, err := dockerclient.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return NewClient(cli, cleanupLabel), nil
}

// CleanupLabel returns the cleanup label associated with this client.
func (c *Client) CleanupLabel() string {
	return c.cleanupLabel
}

// ListContainers returns containers in any state whose name contains nameFilter.
func (c *Client) ListContainers(ctx context.Context, nameFilter string) ([]types.ContainerSummary, error) {
	cs, err := c.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", nameFilter)),
	})
	if err != nil {
		return nil, &EngineCallError{Op: "list", ID: nameFilter, Err: err}
	}

	out := make([]types.ContainerSummary, 0, len(cs))
	for _, s := range cs {
		out = append(out, types.ContainerSummary{ID: s.ID, Names: s.Names, State: s.State})
	}
	return out, nil
}

// CreateContainer creates a container from spec, tagging it with the cleanup label.
func (c *Client) CreateContainer(ctx context.Context, spec types.ContainerSpec) (types.ContainerHandle, error) {
	labels := make(map[string]string, len(spec.Labels)+1)
	maps.Copy(labels, spec.Labels)
	if c.cleanupLabel != "" {
		labels[consts.CleanupLabel] = c.cleanupLabel
	}

	resp, err := c.ContainerCreate(
		ctx,
		&container.Config{
			Image:        spec.Image,
			Cmd:          spec.Cmd,
			Env:          spec.Env,
			Hostname:     spec.Hostname,
			Labels:       labels,
			AttachStdout: spec.AttachStdout,
			AttachStderr: spec.AttachStderr,
			ExposedPorts: spec.ExposedPorts,
		},
		&container.HostConfig{
			AutoRemove:   spec.AutoRemove,
			PortBindings: spec.PortBindings,
		},
		nil,
		nil,
		spec.Name,
	)
	if err != nil {
		return types.ContainerHandle{}, &EngineCallError{Op: "create", ID: spec.Name, Err: err}
	}
	return types.ContainerHandle{ID: resp.ID, Name: spec.Name}, nil
}

// StartContainer starts a created container.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	if err := c.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return &EngineCallError{Op: "start", ID: id, Err: err}
	}
	return nil
}

// StopContainer stops a container using the engine's default grace period.
func (c *Client) StopContainer(ctx context.Context, id string) error {
	if err := c.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		return &EngineCallError{Op: "stop", ID: id, Err: err}
	}
	return nil
}

// RemoveContainer force-removes a container.
func (c *Client) RemoveContainer(ctx context.Context, id string) error {
	if err := c.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return &EngineCallError{Op: "delete", ID: id, Err: err}
	}
	return nil
}

// WaitRemoved blocks until the engine has removed the container, or ctx is done.
func (c *Client) WaitRemoved(ctx context.Context, id string) error {
	waitCh, errCh := c.ContainerWait(ctx, id, container.WaitConditionRemoved)
	select {
	case resp := <-waitCh:
		if resp.Error != nil && resp.Error.Message != "" {
			return &EngineCallError{Op: "wait", ID: id, Err: errors.New(resp.Error.Message)}
		}
		return nil
	case err := <-errCh:
		if errdefs.IsNotFound(err) {
			return nil
		}
		return &EngineCallError{Op: "wait", ID: id, Err: err}
	case <-ctx.Done():
		return &EngineCallError{Op: "wait", ID: id, Err: ctx.Err()}
	}
}

// InspectContainer returns the state of a container, including its raw health status.
func (c *Client) InspectContainer(ctx context.Context, id string) (types.ContainerState, error) {
	resp, err := c.ContainerInspect(ctx, id)
	if err != nil {
		return types.ContainerState{}, &EngineCallError{Op: "inspect", ID: id, Err: err}
	}

	var state types.ContainerState
	if resp.ContainerJSONBase == nil || resp.State == nil {
		return state, nil
	}
	state.Status = resp.State.Status
	state.Running = resp.State.Running
	if resp.State.Health != nil {
		status := resp.State.Health.Status
		state.Health = &status
	}
	return state, nil
}

// StreamLogs follows stdout and stderr of a container from its first line.
func (c *Client) StreamLogs(ctx context.Context, id string) (iter.Seq2[types.LogChunk, error], error) {
	rc, err := c.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       "all",
	})
	if err != nil {
		return nil, &EngineCallError{Op: "logs", ID: id, Err: err}
	}
	return DecodeLogFrames(rc), nil
}
