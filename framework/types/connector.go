package types

import "context"

// Connector is the protocol client of a running node.
//
// Implementations must be safe for concurrent use: an Environment hands the same
// connector to every wallet it creates.
type Connector interface {
	// Config returns the chain config the connector was started with.
	Config() ChainConfig
}

// ConnectorFactory starts a connector against a ready node. It may be invoked
// repeatedly; each call is free to open a new connection.
type ConnectorFactory[T Connector] func(ctx context.Context, cfg ChainConfig) (T, error)
