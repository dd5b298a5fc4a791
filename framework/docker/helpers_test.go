package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/celestiaorg/nodenv/framework/backoff/backofftest"
	"github.com/celestiaorg/nodenv/framework/docker/client/clienttest"
	"github.com/celestiaorg/nodenv/framework/types"
	"go.uber.org/zap/zaptest"
)

type testConnector struct {
	cfg    types.ChainConfig
	closed atomic.Bool
}

func (c *testConnector) Config() types.ChainConfig { return c.cfg }

func (c *testConnector) Close() error {
	c.closed.Store(true)
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// okHTTPClient answers every request with 200.
func okHTTPClient() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("")), Request: req}, nil
	})}
}

// refusingHTTPClient fails every request.
func refusingHTTPClient() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
}

// connectorAfter returns a factory failing failures times before connecting; calls counts invocations.
func connectorAfter(failures int, calls *int) types.ConnectorFactory[*testConnector] {
	return func(_ context.Context, cfg types.ChainConfig) (*testConnector, error) {
		*calls++
		if *calls <= failures {
			return nil, fmt.Errorf("dial %s: connection refused", cfg.NodeURI)
		}
		return &testConnector{cfg: cfg}, nil
	}
}

func ethereumDev() types.ChainConfig {
	return types.ChainConfig{
		Blockchain: types.Ethereum,
		Network:    "dev",
		NodeImage:  "ethereum/client-go:v1.15.8",
		NodeCommand: func(_ string, port uint16) []string {
			return []string{"--dev", "--http", "--http.addr=0.0.0.0", fmt.Sprintf("--http.port=%d", port)}
		},
		NodeURI: types.NodeURI{Scheme: "ws", Host: "127.0.0.1"},
	}
}

// testOptions wires a fake gateway and a recording timer into an environment.
func testOptions(t *testing.T, gw *clienttest.FakeGateway, timer *backofftest.RecordingTimer, extra ...Option) []Option {
	t.Helper()
	opts := []Option{
		WithLogger(zaptest.NewLogger(t)),
		WithGateway(gw),
		WithTimer(timer),
		WithHTTPClient(okHTTPClient()),
		WithPortSource(func() (uint16, error) { return 8546, nil }),
	}
	return append(opts, extra...)
}
