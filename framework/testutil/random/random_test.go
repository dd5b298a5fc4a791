package random

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLowerCaseLetterString(t *testing.T) {
	require.Empty(t, LowerCaseLetterString(0))

	result := LowerCaseLetterString(30)
	require.Len(t, result, 30)
	for _, char := range result {
		require.True(t, char >= 'a' && char <= 'z', "all characters should be lowercase letters")
	}
}

func TestPortFrom(t *testing.T) {
	port, err := PortFrom(bytes.NewReader([]byte{0x34, 0x12}))
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), port)

	_, err = PortFrom(bytes.NewReader([]byte{0x01}))
	require.Error(t, err)
}

func TestPort(t *testing.T) {
	_, err := Port()
	require.NoError(t, err)
}
