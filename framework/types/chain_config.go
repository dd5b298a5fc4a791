package types

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// NodeCommand builds the process arguments of a node container for the given network and port.
type NodeCommand func(network string, port uint16) []string

// ChainConfig describes how to run a node for a single chain and network.
//
// The value is copied into an Environment; only NodeURI.Port is assigned, by the launcher.
type ChainConfig struct {
	Blockchain Blockchain
	Network    string
	// NodeImage is the full image reference, e.g. "parity/polkadot:v1.0.0".
	NodeImage   string
	NodeCommand NodeCommand
	NodeURI     NodeURI
	// NodeAdditionalPorts are exposed and bound to the same host port as the container port.
	NodeAdditionalPorts []uint16
}

// Command returns the node command for the configured network and port.
func (c ChainConfig) Command() []string {
	if c.NodeCommand == nil {
		return nil
	}
	return c.NodeCommand(c.Network, c.NodeURI.Port)
}

// Validate checks the config for common errors.
func (c ChainConfig) Validate() error {
	if c.Blockchain == "" {
		return fmt.Errorf("blockchain must be set")
	}
	if c.Network == "" {
		return fmt.Errorf("network must be set")
	}
	if c.NodeImage == "" {
		return fmt.Errorf("node image must be set for %s-%s", c.Blockchain, c.Network)
	}
	if c.NodeURI.Scheme == "" {
		return fmt.Errorf("node uri scheme must be set for %s-%s", c.Blockchain, c.Network)
	}
	return nil
}

// NodeURI is the address a connector uses to reach the node.
type NodeURI struct {
	Scheme string
	Host   string
	Port   uint16
	Path   string
}

// ParseNodeURI parses a URI such as "ws://127.0.0.1:9944".
func ParseNodeURI(raw string) (NodeURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return NodeURI{}, fmt.Errorf("parsing node uri %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return NodeURI{}, fmt.Errorf("node uri %q must have a scheme and a host", raw)
	}

	var port uint16
	if p := u.Port(); p != "" {
		v, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return NodeURI{}, fmt.Errorf("invalid port in node uri %q: %w", raw, err)
		}
		port = uint16(v)
	}

	return NodeURI{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   port,
		Path:   u.Path,
	}, nil
}

// WithScheme returns a copy of the uri using the given scheme.
func (u NodeURI) WithScheme(scheme string) NodeURI {
	u.Scheme = scheme
	return u
}

// WithHost returns a copy of the uri using the given host.
func (u NodeURI) WithHost(host string) NodeURI {
	u.Host = host
	return u
}

// IsHTTPFamily reports whether the node speaks http or websockets, both of which accept a plain http request.
func (u NodeURI) IsHTTPFamily() bool {
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
		return true
	default:
		return false
	}
}

func (u NodeURI) String() string {
	v := url.URL{
		Scheme: u.Scheme,
		Host:   net.JoinHostPort(u.Host, strconv.Itoa(int(u.Port))),
		Path:   u.Path,
	}
	return v.String()
}
