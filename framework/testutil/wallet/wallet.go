// Package wallet provides throwaway signing identities bound to a node connector.
package wallet

import (
	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/ethereum/go-ethereum/common"
)

// Wallet pairs a signer with the connector of the node it transacts against.
// The connector is shared with the environment that minted the wallet.
type Wallet[T types.Connector] struct {
	connector T
	signer    *Signer
}

// New binds signer to connector.
func New[T types.Connector](connector T, signer *Signer) *Wallet[T] {
	return &Wallet[T]{connector: connector, signer: signer}
}

func (w *Wallet[T]) Connector() T {
	return w.connector
}

func (w *Wallet[T]) Signer() *Signer {
	return w.signer
}

// Address returns the address of the wallet's signer.
func (w *Wallet[T]) Address() common.Address {
	return w.signer.Address()
}

// Sign signs msg with the wallet's key.
func (w *Wallet[T]) Sign(msg []byte) ([]byte, error) {
	return w.signer.Sign(msg)
}
