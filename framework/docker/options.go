package docker

import (
	"net/http"
	"time"

	"github.com/celestiaorg/nodenv/framework/backoff"
	"github.com/celestiaorg/nodenv/framework/docker/container"
	"github.com/celestiaorg/nodenv/framework/testutil/random"
	"github.com/celestiaorg/nodenv/framework/testutil/wallet"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

// Option is a function that modifies the settings of an Environment
type Option func(*options)

type options struct {
	logger           *zap.Logger
	gateway          types.Gateway
	config           Config
	timer            backoff.Timer
	httpClient       *http.Client
	portSource       func() (uint16, error)
	signerGenerator  func() (*wallet.Signer, error)
	containerOptions container.Options
}

func defaultOptions() options {
	return options{
		config:          DefaultConfig(),
		timer:           backoff.RealTimer,
		httpClient:      cleanhttp.DefaultClient(),
		portSource:      random.Port,
		signerGenerator: wallet.GenerateSigner,
	}
}

// WithLogger sets the logger node output and lifecycle events are written to. Without it
// they go to the process-wide logger from logging.Logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGateway runs the node through gw instead of a Docker client built from the environment.
// The environment does not close an injected gateway.
func WithGateway(gw types.Gateway) Option {
	return func(o *options) {
		o.gateway = gw
	}
}

// WithConfig replaces every setting a config file can carry.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithReadinessPolicy sets the schedule used to probe http nodes.
func WithReadinessPolicy(p backoff.Policy) Option {
	return func(o *options) {
		o.config.Readiness = p
	}
}

// WithConnectorPolicy sets the schedule used to start the connector.
func WithConnectorPolicy(p backoff.Policy) Option {
	return func(o *options) {
		o.config.Connector = p
	}
}

// WithSettleDelay sets how long nodes without an http endpoint are given to start.
func WithSettleDelay(d time.Duration) Option {
	return func(o *options) {
		o.config.SettleDelay = d
	}
}

// WithHealthPollInterval sets how often a starting container's health is checked.
func WithHealthPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.config.HealthPollInterval = d
	}
}

// WithTimer sets the timer every wait goes through.
func WithTimer(timer backoff.Timer) Option {
	return func(o *options) {
		o.timer = timer
	}
}

// WithHTTPClient sets the client used for readiness probes.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithPortSource sets how the host port of the node is chosen.
func WithPortSource(f func() (uint16, error)) Option {
	return func(o *options) {
		o.portSource = f
	}
}

// WithSignerGenerator sets how ephemeral wallets get their keys.
func WithSignerGenerator(f func() (*wallet.Signer, error)) Option {
	return func(o *options) {
		o.signerGenerator = f
	}
}

// WithContainerOptions adds environment variables and labels to the node container.
func WithContainerOptions(opts container.Options) Option {
	return func(o *options) {
		o.containerOptions = opts
	}
}
