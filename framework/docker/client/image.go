package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/docker/docker/api/types/filters"
	dockerimagetypes "github.com/docker/docker/api/types/image"
)

const (
	// Retry configuration for image pulls
	maxPullAttempts  = 3
	initialPullDelay = 1 * time.Second
	maxPullDelay     = 10 * time.Second
)

// EnsureImage makes ref available to the engine, pulling it when it is not present.
//
// Images found or pulled are remembered for the lifetime of the client. A mutex
// rather than a sync.Once is used so that a failed pull can be retried by a later call.
func (c *Client) EnsureImage(ctx context.Context, ref string) error {
	c.imagesMu.Lock()
	defer c.imagesMu.Unlock()

	if c.images[ref] {
		return nil
	}

	images, err := c.ImageList(ctx, dockerimagetypes.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return &EngineCallError{Op: "image list", ID: ref, Err: err}
	}

	if len(images) > 0 {
		c.images[ref] = true
		return nil
	}

	err = retry.Do(
		func() error {
			rc, err := c.ImagePull(ctx, ref, dockerimagetypes.PullOptions{})
			if err != nil {
				return fmt.Errorf("pulling image %s: %w", ref, err)
			}

			_, _ = io.Copy(io.Discard, rc)
			_ = rc.Close()
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxPullAttempts),
		retry.Delay(initialPullDelay),
		retry.MaxDelay(maxPullDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return &EngineCallError{Op: "image pull", ID: ref, Err: err}
	}

	c.images[ref] = true
	return nil
}
