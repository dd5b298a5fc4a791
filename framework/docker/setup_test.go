package docker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/celestiaorg/nodenv/framework/docker/client/clienttest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWriteToFile(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		subDir   string
		filename string
	}{
		{
			name:     "flat directory",
			content:  "imported block #1",
			filename: "it-node-ethereum-dev.log",
		},
		{
			name:     "nested directory",
			content:  "imported block #2",
			subDir:   filepath.Join("nested", "directory", "structure"),
			filename: "it-node-polkadot-dev.log",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			targetDir := filepath.Join(t.TempDir(), tc.subDir)
			r := io.NopCloser(strings.NewReader(tc.content))

			require.NoError(t, writeToFile(r, targetDir, tc.filename))

			content, err := os.ReadFile(filepath.Join(targetDir, tc.filename))
			require.NoError(t, err)
			require.Equal(t, tc.content, string(content))
		})
	}
}

func TestSweep(t *testing.T) {
	gw := clienttest.NewFakeGateway()
	swept := []string{
		gw.Seed("it-node-ethereum-dev"),
		gw.Seed("it-node-bitcoin-regtest"),
		gw.Seed("it-node-polkadot-dev"),
	}
	kept := []string{
		gw.Seed("other-node-ethereum-dev"),
		gw.Seed("xit-node-ethereum-dev"),
	}

	n, err := Sweep(context.Background(), zaptest.NewLogger(t), gw, "it")
	require.NoError(t, err)
	require.Equal(t, len(swept), n)

	for _, id := range swept {
		_, ok := gw.Container(id)
		require.False(t, ok, id)
		require.Contains(t, gw.Calls(), "wait:"+id, "sweep must wait for the removal of %s", id)
	}
	for _, id := range kept {
		_, ok := gw.Container(id)
		require.True(t, ok, id)
	}
}

func TestSweepStopFailure(t *testing.T) {
	gw := clienttest.NewFakeGateway()
	gw.Seed("it-node-ethereum-dev")
	gw.FailOn("stop", errors.New("daemon unavailable"))

	_, err := Sweep(context.Background(), zaptest.NewLogger(t), gw, "it")
	require.ErrorContains(t, err, "daemon unavailable")
}
