package node

import (
	"context"

	"github.com/celestiaorg/nodenv/framework/backoff"
	"github.com/celestiaorg/nodenv/framework/types"
	"go.uber.org/zap"
)

// StartConnector calls factory until it succeeds or the policy runs out of attempts.
// The result of the first successful call is returned; after the last failed call the
// error is a *ConnectorStartError wrapping that call's error.
func StartConnector[T types.Connector](
	ctx context.Context,
	logger *zap.Logger,
	policy backoff.Policy,
	timer backoff.Timer,
	cfg types.ChainConfig,
	factory types.ConnectorFactory[T],
) (T, error) {
	var (
		conn     T
		attempts uint
	)
	err := policy.Do(ctx, timer, func() error {
		attempts++
		c, err := factory(ctx, cfg)
		if err != nil {
			logger.Debug("connector failed to start",
				zap.Stringer("blockchain", cfg.Blockchain),
				zap.String("network", cfg.Network),
				zap.Uint("attempt", attempts),
				zap.Error(err),
			)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		var zero T
		if attempts == 0 {
			return zero, err
		}
		return zero, &ConnectorStartError{Attempts: attempts, Err: err}
	}
	return conn, nil
}
