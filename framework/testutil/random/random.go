// Package random provides random values for test resources.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mathrand "math/rand/v2"
)

const lowerCaseLetters = "abcdefghijklmnopqrstuvwxyz"

// LowerCaseLetterString returns a random string of n lowercase letters.
func LowerCaseLetterString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = lowerCaseLetters[mathrand.IntN(len(lowerCaseLetters))]
	}
	return string(b)
}

// Port returns a random port number drawn from two random bytes read little-endian.
// Nothing checks that the port is free, and 0 or a privileged port may be returned.
func Port() (uint16, error) {
	return PortFrom(rand.Reader)
}

// PortFrom is Port reading its entropy from r.
func PortFrom(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("reading random port: %w", err)
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}
