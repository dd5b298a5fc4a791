package node

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/celestiaorg/nodenv/framework/docker/client/clienttest"
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/stretchr/testify/require"
)

type stubConnector struct {
	cfg types.ChainConfig
}

func (c *stubConnector) Config() types.ChainConfig { return c.cfg }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func testChainConfig(scheme string) types.ChainConfig {
	return types.ChainConfig{
		Blockchain: types.Polkadot,
		Network:    "dev",
		NodeImage:  "parity/polkadot:v1.0.0",
		NodeCommand: func(network string, port uint16) []string {
			return []string{"--chain=" + network, "--rpc-port", strconv.Itoa(int(port))}
		},
		NodeURI: types.NodeURI{Scheme: scheme, Host: "127.0.0.1"},
	}
}

// startedContainer registers a running container on the fake gateway.
func startedContainer(t *testing.T, gw *clienttest.FakeGateway, name string) types.ContainerHandle {
	t.Helper()
	ctx := context.Background()
	handle, err := gw.CreateContainer(ctx, types.ContainerSpec{Name: name, AutoRemove: true})
	require.NoError(t, err)
	require.NoError(t, gw.StartContainer(ctx, handle.ID))
	return handle
}

// drainLogs waits for every log forwarder that is still running, so nothing logs to a
// zaptest logger after its test has returned.
func (l *Launcher) drainLogs() {
	l.mu.Lock()
	pending := make([]chan struct{}, 0, len(l.forwarders))
	for id, done := range l.forwarders {
		pending = append(pending, done)
		delete(l.forwarders, id)
	}
	l.mu.Unlock()

	for _, done := range pending {
		<-done
	}
}
