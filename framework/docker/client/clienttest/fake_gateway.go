// Package clienttest provides an in-memory types.Gateway for tests.
//
// The fake keeps a registry of containers that behaves like the engine for the
// operations the launcher relies on: names are unique, unknown ids yield errdefs
// not-found errors, and auto-remove containers are removed asynchronously. A stopped
// auto-remove container stays listed, in state "removing", until WaitRemoved is called
// for it, so code that skips the wait sees the same name conflicts as on a real engine.
//
// Usage:
//
//	gw := clienttest.NewFakeGateway()
//	gw.Health = clienttest.HealthSequence("starting", "healthy")
//	env, err := docker.NewEnvironment(ctx, "test", cfg, factory, docker.WithGateway(gw))
package clienttest

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/celestiaorg/nodenv/framework/docker/client"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/moby/moby/errdefs"
)

// FakeContainer is a container held by a FakeGateway.
type FakeContainer struct {
	ID      string
	Spec    types.ContainerSpec
	Running bool
	// Removing is set once an auto-remove container has stopped and the engine
	// has not finished removing it yet.
	Removing bool
	// inspections counts InspectContainer calls for this container.
	inspections int
}

// FakeGateway is an in-memory types.Gateway. Configure behaviour through the exported
// fields before handing it to the code under test.
type FakeGateway struct {
	// Health returns the raw health status reported on the n-th inspection (starting at 1)
	// of a container. A nil func, or a nil return, means the image has no health check.
	Health func(id string, n int) *string
	// Logs are replayed by every StreamLogs call.
	Logs []types.LogChunk

	mu         sync.Mutex
	nextID     int
	containers map[string]*FakeContainer
	failures   map[string]error
	calls      []string
}

var _ types.Gateway = (*FakeGateway)(nil)

// NewFakeGateway returns an empty FakeGateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		containers: make(map[string]*FakeContainer),
		failures:   make(map[string]error),
	}
}

// HealthStatus returns a pointer to status, for use in Health funcs.
func HealthStatus(status string) *string {
	return &status
}

// HealthSequence reports statuses in order on successive inspections, repeating the last one.
func HealthSequence(statuses ...string) func(id string, n int) *string {
	return func(_ string, n int) *string {
		if len(statuses) == 0 {
			return nil
		}
		i := min(n-1, len(statuses)-1)
		return HealthStatus(statuses[i])
	}
}

// FailOn makes every subsequent call of op fail with err. Ops are
// list, create, start, stop, delete, wait, inspect, logs and image.
func (f *FakeGateway) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Seed registers a running, auto-removing container with the given name, as left behind
// by an earlier run, and returns its id.
func (f *FakeGateway) Seed(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.add(types.ContainerSpec{Name: name, AutoRemove: true})
	c.Running = true
	return c.ID
}

// Containers returns a snapshot of the registry, sorted by id.
func (f *FakeGateway) Containers() []FakeContainer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeContainer, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b FakeContainer) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Container returns the container with the given id.
func (f *FakeGateway) Container(id string) (FakeContainer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[id]
	if !ok {
		return FakeContainer{}, false
	}
	return *c, true
}

// Calls returns every call made so far as "op:target" strings.
func (f *FakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallCount returns how many times op was called.
func (f *FakeGateway) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, op+":") {
			n++
		}
	}
	return n
}

func (f *FakeGateway) ListContainers(_ context.Context, nameFilter string) ([]types.ContainerSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list", nameFilter); err != nil {
		return nil, err
	}

	var out []types.ContainerSummary
	for _, c := range f.containers {
		if !strings.Contains(c.Spec.Name, nameFilter) {
			continue
		}
		state := "exited"
		switch {
		case c.Running:
			state = "running"
		case c.Removing:
			state = "removing"
		}
		out = append(out, types.ContainerSummary{ID: c.ID, Names: []string{"/" + c.Spec.Name}, State: state})
	}
	slices.SortFunc(out, func(a, b types.ContainerSummary) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (f *FakeGateway) CreateContainer(_ context.Context, spec types.ContainerSpec) (types.ContainerHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create", spec.Name); err != nil {
		return types.ContainerHandle{}, err
	}

	for _, c := range f.containers {
		if c.Spec.Name == spec.Name {
			return types.ContainerHandle{}, f.engineErr("create", spec.Name,
				errdefs.Conflict(fmt.Errorf("the container name %q is already in use by container %s", spec.Name, c.ID)))
		}
	}

	c := f.add(spec)
	return types.ContainerHandle{ID: c.ID, Name: spec.Name}, nil
}

func (f *FakeGateway) StartContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("start", id); err != nil {
		return err
	}
	c, err := f.lookup("start", id)
	if err != nil {
		return err
	}
	c.Running = true
	return nil
}

func (f *FakeGateway) StopContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("stop", id); err != nil {
		return err
	}
	c, err := f.lookup("stop", id)
	if err != nil {
		return err
	}
	if !c.Running {
		return f.engineErr("stop", id, errdefs.NotModified(fmt.Errorf("container %s is not running", id)))
	}
	c.Running = false
	c.Removing = c.Spec.AutoRemove
	return nil
}

func (f *FakeGateway) RemoveContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete", id); err != nil {
		return err
	}
	c, err := f.lookup("delete", id)
	if err != nil {
		return err
	}
	if c.Removing {
		return f.engineErr("delete", id, errdefs.Conflict(fmt.Errorf("removal of container %s is already in progress", id)))
	}
	delete(f.containers, id)
	return nil
}

// WaitRemoved completes a pending auto-removal. A container that is gone already is not
// an error; one that is not being removed fails instead of blocking forever.
func (f *FakeGateway) WaitRemoved(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("wait", id); err != nil {
		return err
	}
	c, ok := f.containers[id]
	if !ok {
		return nil
	}
	if !c.Removing {
		return f.engineErr("wait", id, fmt.Errorf("container %s is not being removed", id))
	}
	delete(f.containers, id)
	return nil
}

func (f *FakeGateway) InspectContainer(_ context.Context, id string) (types.ContainerState, error) {
	f.mu.Lock()
	if err := f.record("inspect", id); err != nil {
		f.mu.Unlock()
		return types.ContainerState{}, err
	}
	c, err := f.lookup("inspect", id)
	if err != nil {
		f.mu.Unlock()
		return types.ContainerState{}, err
	}
	c.inspections++
	n := c.inspections
	state := types.ContainerState{Status: "created", Running: c.Running}
	if c.Running {
		state.Status = "running"
	}
	health := f.Health
	f.mu.Unlock()

	if health != nil {
		state.Health = health(id, n)
	}
	return state, nil
}

func (f *FakeGateway) StreamLogs(_ context.Context, id string) (iter.Seq2[types.LogChunk, error], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("logs", id); err != nil {
		return nil, err
	}
	if _, err := f.lookup("logs", id); err != nil {
		return nil, err
	}

	chunks := slices.Clone(f.Logs)
	return func(yield func(types.LogChunk, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}, nil
}

func (f *FakeGateway) EnsureImage(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("image", ref)
}

// record must be called with f.mu held.
func (f *FakeGateway) record(op, target string) error {
	f.calls = append(f.calls, op+":"+target)
	if err, ok := f.failures[op]; ok {
		return f.engineErr(op, target, err)
	}
	return nil
}

// lookup must be called with f.mu held.
func (f *FakeGateway) lookup(op, id string) (*FakeContainer, error) {
	c, ok := f.containers[id]
	if !ok {
		return nil, f.engineErr(op, id, errdefs.NotFound(fmt.Errorf("no such container: %s", id)))
	}
	return c, nil
}

// add must be called with f.mu held.
func (f *FakeGateway) add(spec types.ContainerSpec) *FakeContainer {
	f.nextID++
	c := &FakeContainer{ID: fmt.Sprintf("container-%04d", f.nextID), Spec: spec}
	f.containers[c.ID] = c
	return c
}

func (f *FakeGateway) engineErr(op, id string, err error) error {
	return &client.EngineCallError{Op: op, ID: id, Err: err}
}
