// Package chains holds ready-made node configurations for local development networks.
package chains

import (
	"fmt"

	"github.com/celestiaorg/nodenv/framework/types"
)

const (
	BitcoinImage  = "ruimarinho/bitcoin-core:23"
	EthereumImage = "ethereum/client-go:v1.15.8"
	PolkadotImage = "parity/polkadot:v1.5.0"
	AstarImage    = "staketechnologies/astar-collator:v5.28.0"

	// BitcoinRPCUser and BitcoinRPCPassword are the credentials of the regtest node.
	BitcoinRPCUser     = "rosetta"
	BitcoinRPCPassword = "rosetta"
)

// Bitcoin is a bitcoind node on the given network, usually "regtest".
func Bitcoin(network string) types.ChainConfig {
	return types.ChainConfig{
		Blockchain: types.Bitcoin,
		Network:    network,
		NodeImage:  BitcoinImage,
		NodeCommand: func(network string, port uint16) []string {
			return []string{
				"-" + network + "=1",
				"-rpcbind=0.0.0.0",
				fmt.Sprintf("-rpcport=%d", port),
				"-rpcallowip=0.0.0.0/0",
				"-rpcuser=" + BitcoinRPCUser,
				"-rpcpassword=" + BitcoinRPCPassword,
			}
		},
		NodeURI: types.NodeURI{Scheme: "http", Host: "127.0.0.1"},
	}
}

// Ethereum is a geth node in dev mode.
func Ethereum(network string) types.ChainConfig {
	return types.ChainConfig{
		Blockchain: types.Ethereum,
		Network:    network,
		NodeImage:  EthereumImage,
		NodeCommand: func(_ string, port uint16) []string {
			return []string{
				"--dev",
				"--ipcdisable",
				"--http",
				"--http.addr=0.0.0.0",
				fmt.Sprintf("--http.port=%d", port),
				"--http.vhosts=*",
				"--http.api=eth,debug,admin,txpool,web3",
			}
		},
		NodeURI: types.NodeURI{Scheme: "http", Host: "127.0.0.1"},
	}
}

// Polkadot is a single polkadot validator running the given chain spec, usually "dev".
func Polkadot(network string) types.ChainConfig {
	return types.ChainConfig{
		Blockchain:  types.Polkadot,
		Network:     network,
		NodeImage:   PolkadotImage,
		NodeCommand: substrateCommand(nil),
		NodeURI:     types.NodeURI{Scheme: "ws", Host: "127.0.0.1"},
	}
}

// Astar is an astar collator running the given chain spec, usually "dev", with evm rpc enabled.
func Astar(network string) types.ChainConfig {
	return types.ChainConfig{
		Blockchain:  types.Astar,
		Network:     network,
		NodeImage:   AstarImage,
		NodeCommand: substrateCommand([]string{"astar-collator"}, "--enable-evm-rpc"),
		NodeURI:     types.NodeURI{Scheme: "ws", Host: "127.0.0.1"},
	}
}

func substrateCommand(entrypoint []string, extra ...string) types.NodeCommand {
	return func(network string, port uint16) []string {
		cmd := append([]string{}, entrypoint...)
		cmd = append(cmd,
			"--chain="+network,
			"--dev",
			"--tmp",
			"--alice",
			"--rpc-external",
			"--rpc-cors=all",
			fmt.Sprintf("--rpc-port=%d", port),
		)
		return append(cmd, extra...)
	}
}

// ForBlockchain returns the preset for blockchain on network.
func ForBlockchain(blockchain types.Blockchain, network string) (types.ChainConfig, error) {
	switch blockchain {
	case types.Bitcoin:
		return Bitcoin(network), nil
	case types.Ethereum:
		return Ethereum(network), nil
	case types.Polkadot:
		return Polkadot(network), nil
	case types.Astar:
		return Astar(network), nil
	default:
		return types.ChainConfig{}, fmt.Errorf("unsupported blockchain %s", blockchain)
	}
}
