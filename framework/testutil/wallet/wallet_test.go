package wallet

import (
	"testing"

	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type stubConnector struct {
	cfg types.ChainConfig
}

func (c *stubConnector) Config() types.ChainConfig { return c.cfg }

func TestGenerateSignerIsUnique(t *testing.T) {
	a, err := GenerateSigner()
	require.NoError(t, err)
	b, err := GenerateSigner()
	require.NoError(t, err)
	require.NotEqual(t, a.Address(), b.Address())
}

func TestSignerFromHex(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)

	parsed, err := SignerFromHex("0x" + s.PrivateKeyHex())
	require.NoError(t, err)
	require.Equal(t, s.Address(), parsed.Address())

	_, err = SignerFromHex("not-hex")
	require.Error(t, err)
}

func TestSignVerifies(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)

	msg := []byte("hello node")
	sig, err := s.Sign(msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.DecompressPubkey(s.PublicKey())
	require.NoError(t, err)
	require.True(t, crypto.VerifySignature(crypto.FromECDSAPub(pub), crypto.Keccak256(msg), sig[:64]))
}

func TestWalletSharesConnector(t *testing.T) {
	conn := &stubConnector{cfg: types.ChainConfig{Blockchain: types.Ethereum, Network: "dev"}}
	s, err := GenerateSigner()
	require.NoError(t, err)

	w1 := New(conn, s)
	w2 := New(conn, s)
	require.Same(t, w1.Connector(), w2.Connector())
	require.Equal(t, s.Address(), w1.Address())
	require.Same(t, s, w1.Signer())
}
