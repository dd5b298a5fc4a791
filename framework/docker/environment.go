package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/celestiaorg/nodenv/framework/docker/client"
	"github.com/celestiaorg/nodenv/framework/docker/node"
	"github.com/celestiaorg/nodenv/framework/logging"
	"github.com/celestiaorg/nodenv/framework/testutil/wallet"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrEnvironmentShutdown is returned by operations on an environment that was shut down.
var ErrEnvironmentShutdown = errors.New("environment is shut down")

// Environment is a running node together with the connector started against it.
// It owns the node container until Shutdown.
type Environment[T types.Connector] struct {
	id     string
	logger *zap.Logger
	cfg    types.ChainConfig
	node   T
	handle types.ContainerHandle

	launcher        *node.Launcher
	gatewayCloser   io.Closer
	signerGenerator func() (*wallet.Signer, error)

	shutdown atomic.Bool
}

// NewEnvironment launches a node for cfg, waits until it is ready and starts a connector with
// factory. Containers are named after prefix; an empty prefix uses the configured one.
//
// Any container left by an earlier environment with the same prefix and chain is replaced.
// If any step fails the node container is removed before the error is returned.
func NewEnvironment[T types.Connector](
	ctx context.Context,
	prefix string,
	cfg types.ChainConfig,
	factory types.ConnectorFactory[T],
	opts ...Option,
) (*Environment[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if prefix == "" {
		prefix = o.config.Prefix
	}

	id := uuid.NewString()
	if o.logger == nil {
		o.logger = logging.Logger()
	}
	logger := o.logger.With(
		zap.String("component", "environment"),
		zap.String("environment", id),
		zap.Stringer("blockchain", cfg.Blockchain),
		zap.String("network", cfg.Network),
	)

	gw := o.gateway
	var closer io.Closer
	if gw == nil {
		cli, err := client.NewFromEnv(client.Options{Host: o.config.DockerHost, APIVersion: o.config.APIVersion}, prefix)
		if err != nil {
			return nil, err
		}
		gw, closer = cli, cli
	}
	closeGateway := func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Debug("failed to close docker client", zap.Error(err))
		}
	}

	launcher := node.NewLauncher(logger, gw, prefix)
	launcher.EnvironmentID = id
	launcher.ContainerOptions = o.containerOptions
	launcher.HealthPollInterval = o.config.HealthPollInterval
	launcher.Timer = o.timer
	launcher.PortSource = o.portSource

	handle, err := launcher.Launch(ctx, &cfg)
	if err != nil {
		closeGateway()
		return nil, fmt.Errorf("failed to launch %s-%s node: %w", cfg.Blockchain, cfg.Network, err)
	}

	prober := node.NewProber(logger, gw)
	prober.HTTPClient = o.httpClient
	prober.Policy = o.config.Readiness
	prober.Timer = o.timer
	prober.SettleDelay = o.config.SettleDelay

	if err := prober.WaitReady(ctx, handle, cfg.NodeURI); err != nil {
		launcher.Rollback(ctx, handle)
		closeGateway()
		return nil, fmt.Errorf("node %s never became ready: %w", handle.Name, err)
	}

	conn, err := node.StartConnector(ctx, logger, o.config.Connector, o.timer, cfg, factory)
	if err != nil {
		launcher.Rollback(ctx, handle)
		closeGateway()
		return nil, fmt.Errorf("failed to connect to %s: %w", handle.Name, err)
	}

	logger.Info("environment ready", zap.String("container", handle.Name), zap.Stringer("uri", cfg.NodeURI))
	return &Environment[T]{
		id:              id,
		logger:          logger,
		cfg:             cfg,
		node:            conn,
		handle:          handle,
		launcher:        launcher,
		gatewayCloser:   closer,
		signerGenerator: o.signerGenerator,
	}, nil
}

// ID identifies the environment; it is also set as a label on its container.
func (e *Environment[T]) ID() string {
	return e.id
}

// Node returns the connector of the node.
func (e *Environment[T]) Node() T {
	return e.node
}

// Config returns the chain config the node was launched with, including its port.
func (e *Environment[T]) Config() types.ChainConfig {
	return e.cfg
}

// Container returns the handle of the node container.
func (e *Environment[T]) Container() types.ContainerHandle {
	return e.handle
}

// EphemeralWallet returns a wallet with a freshly generated key, bound to the environment's connector.
func (e *Environment[T]) EphemeralWallet() (*wallet.Wallet[T], error) {
	if e.shutdown.Load() {
		return nil, ErrEnvironmentShutdown
	}
	signer, err := e.signerGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signer: %w", err)
	}
	return wallet.New(e.node, signer), nil
}

// Shutdown stops the node container and returns once the engine has removed it. A connector that
// implements io.Closer is closed first. Only the first call does anything; later calls
// return ErrEnvironmentShutdown.
func (e *Environment[T]) Shutdown(ctx context.Context) error {
	if !e.shutdown.CompareAndSwap(false, true) {
		return ErrEnvironmentShutdown
	}

	var errs error
	if c, ok := any(e.node).(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close connector: %w", err))
		}
	}
	errs = multierr.Append(errs, e.launcher.Stop(ctx, e.handle))
	if e.gatewayCloser != nil {
		errs = multierr.Append(errs, e.gatewayCloser.Close())
	}

	if errs != nil {
		e.logger.Error("environment shutdown failed", zap.Error(errs))
		return errs
	}
	e.logger.Info("environment shut down", zap.String("container", e.handle.Name))
	return nil
}
