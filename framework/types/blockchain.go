package types

import "fmt"

// Blockchain identifies the chain a node image runs.
type Blockchain string

const (
	Bitcoin  Blockchain = "bitcoin"
	Ethereum Blockchain = "ethereum"
	Astar    Blockchain = "astar"
	Polkadot Blockchain = "polkadot"
)

func (b Blockchain) String() string { return string(b) }

// ParseBlockchain returns the Blockchain named by s.
func ParseBlockchain(s string) (Blockchain, error) {
	switch b := Blockchain(s); b {
	case Bitcoin, Ethereum, Astar, Polkadot:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported blockchain %s", s)
	}
}

// UnmarshalText lets a Blockchain be decoded from config files.
func (b *Blockchain) UnmarshalText(text []byte) error {
	parsed, err := ParseBlockchain(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
