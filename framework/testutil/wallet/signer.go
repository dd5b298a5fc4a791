package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds a secp256k1 key used to sign on behalf of a wallet.
type Signer struct {
	key *ecdsa.PrivateKey
}

// GenerateSigner returns a signer backed by a fresh random key.
func GenerateSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Signer{key: key}, nil
}

// SignerFromHex parses a private key given as hex, with or without 0x.
func SignerFromHex(privKeyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address returns the account address derived from the public key.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// PublicKey returns the compressed public key.
func (s *Signer) PublicKey() []byte {
	return crypto.CompressPubkey(&s.key.PublicKey)
}

// PrivateKeyHex returns the private key as hex without a 0x prefix.
func (s *Signer) PrivateKeyHex() string {
	return common.Bytes2Hex(crypto.FromECDSA(s.key))
}

// Sign signs the keccak256 hash of msg, returning a 65 byte [R || S || V] signature.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	sig, err := crypto.Sign(crypto.Keccak256(msg), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}
