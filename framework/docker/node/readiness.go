package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/celestiaorg/nodenv/framework/backoff"
	"github.com/celestiaorg/nodenv/framework/docker/consts"
	"github.com/celestiaorg/nodenv/framework/docker/container"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long a node without an http endpoint is given to start.
const DefaultSettleDelay = 15 * time.Second

// Prober waits until a launched node serves requests.
type Prober struct {
	Logger      *zap.Logger
	Gateway     types.Gateway
	HTTPClient  *http.Client
	Policy      backoff.Policy
	Timer       backoff.Timer
	SettleDelay time.Duration
}

// NewProber returns a Prober using the default readiness policy.
func NewProber(logger *zap.Logger, gw types.Gateway) *Prober {
	return &Prober{
		Logger:      logger,
		Gateway:     gw,
		HTTPClient:  cleanhttp.DefaultClient(),
		Policy:      backoff.ReadinessPolicy(),
		Timer:       backoff.RealTimer,
		SettleDelay: DefaultSettleDelay,
	}
}

// ProbeURL is the plain http address used to probe a node, whatever scheme it is reached by.
func ProbeURL(uri types.NodeURI) string {
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(consts.LoopbackHost, strconv.Itoa(int(uri.Port))), uri.Path)
}

// WaitReady blocks until the node behind handle answers on uri.
//
// Nodes reached over http or websockets are probed with GET requests under the readiness
// policy, and any response counts. Between failed probes the container is inspected;
// if it is gone or unhealthy the wait stops at once. Other nodes are given the settle delay
// and then checked once.
func (p *Prober) WaitReady(ctx context.Context, handle types.ContainerHandle, uri types.NodeURI) error {
	logger := p.Logger.With(zap.String("container", handle.Name))
	if uri.IsHTTPFamily() {
		return p.waitHTTP(ctx, logger, handle, ProbeURL(uri))
	}

	logger.Info("waiting for node to settle", zap.Duration("delay", p.SettleDelay), zap.String("scheme", uri.Scheme))
	if err := backoff.Sleep(ctx, p.Timer, p.SettleDelay); err != nil {
		return err
	}
	return p.checkAlive(ctx, handle)
}

func (p *Prober) waitHTTP(ctx context.Context, logger *zap.Logger, handle types.ContainerHandle, url string) error {
	var attempts uint
	err := p.Policy.Do(ctx, p.Timer, func() error {
		attempts++
		err := p.get(ctx, url)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return retry.Unrecoverable(ctx.Err())
		}

		logger.Debug("node not reachable yet", zap.String("url", url), zap.Uint("attempt", attempts), zap.Error(err))
		if aliveErr := p.checkAlive(ctx, handle); aliveErr != nil {
			return retry.Unrecoverable(aliveErr)
		}
		return err
	})
	if err == nil {
		logger.Info("node is ready", zap.String("url", url), zap.Uint("attempts", attempts))
		return nil
	}
	if errors.Is(err, ErrContainerExited) || ctx.Err() != nil || attempts == 0 {
		return err
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrReadinessTimeout, url, attempts, err)
}

func (p *Prober) get(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// checkAlive fails with ErrContainerExited if the container cannot be inspected or is unhealthy.
func (p *Prober) checkAlive(ctx context.Context, handle types.ContainerHandle) error {
	state, err := p.Gateway.InspectContainer(ctx, handle.ID)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrContainerExited, handle.Name, err)
	}
	health, err := container.ParseHealth(state.Health)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrContainerExited, handle.Name, err)
	}
	if health == container.HealthUnhealthy {
		return fmt.Errorf("%w: %s: %w", ErrContainerExited, handle.Name, ErrUnhealthyContainer)
	}
	return nil
}
