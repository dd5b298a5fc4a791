package chains

import (
	"fmt"
	"testing"

	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/stretchr/testify/require"
)

func TestForBlockchain(t *testing.T) {
	tests := []struct {
		blockchain types.Blockchain
		network    string
		scheme     string
	}{
		{types.Bitcoin, "regtest", "http"},
		{types.Ethereum, "dev", "http"},
		{types.Polkadot, "dev", "ws"},
		{types.Astar, "dev", "ws"},
	}

	for _, tt := range tests {
		t.Run(tt.blockchain.String(), func(t *testing.T) {
			cfg, err := ForBlockchain(tt.blockchain, tt.network)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			require.Equal(t, tt.blockchain, cfg.Blockchain)
			require.Equal(t, tt.network, cfg.Network)
			require.Equal(t, tt.scheme, cfg.NodeURI.Scheme)
			require.True(t, cfg.NodeURI.IsHTTPFamily())

			cfg.NodeURI.Port = 31337
			require.Contains(t, fmt.Sprint(cfg.Command()), "31337")
		})
	}
}

func TestForBlockchainUnknown(t *testing.T) {
	_, err := ForBlockchain(types.Blockchain("dogecoin"), "dev")
	require.EqualError(t, err, "unsupported blockchain dogecoin")
}

func TestBitcoinCommandUsesNetwork(t *testing.T) {
	cfg := Bitcoin("regtest")
	cfg.NodeURI.Port = 18443
	require.Equal(t, "-regtest=1", cfg.Command()[0])
	require.Contains(t, cfg.Command(), "-rpcport=18443")
}

func TestAstarCommand(t *testing.T) {
	cfg := Astar("dev")
	cfg.NodeURI.Port = 9944
	cmd := cfg.Command()
	require.Equal(t, "astar-collator", cmd[0])
	require.Contains(t, cmd, "--chain=dev")
	require.Contains(t, cmd, "--rpc-port=9944")
	require.Equal(t, "--enable-evm-rpc", cmd[len(cmd)-1])
}
