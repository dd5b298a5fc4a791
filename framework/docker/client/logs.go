package client

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/celestiaorg/nodenv/framework/types"
	"github.com/docker/docker/pkg/stdcopy"
)

const (
	frameHeaderLen  = 8
	frameStreamIdx  = 0
	frameSizeOffset = 4

	// maxChunkSize bounds the buffer allocated per chunk. Longer frames are yielded as
	// several chunks of the same stream, so a corrupt size field cannot force a large allocation.
	maxChunkSize = 32 * 1024
)

// DecodeLogFrames turns a multiplexed log stream into a sequence of chunks.
//
// stdcopy.StdCopy cannot be used here: it folds stdin frames into stdout, and a stdin
// frame must stay visible to callers. The reader is closed once the sequence ends.
func DecodeLogFrames(rc io.ReadCloser) iter.Seq2[types.LogChunk, error] {
	return func(yield func(types.LogChunk, error) bool) {
		defer rc.Close()

		var header [frameHeaderLen]byte
		for {
			if _, err := io.ReadFull(rc, header[:]); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(types.LogChunk{}, fmt.Errorf("reading log frame header: %w", err))
				return
			}
			size := binary.BigEndian.Uint32(header[frameSizeOffset:])

			var stream types.LogStream
			switch stdcopy.StdType(header[frameStreamIdx]) {
			case stdcopy.Stdin:
				stream = types.StreamStdin
			case stdcopy.Stdout:
				stream = types.StreamStdout
			case stdcopy.Stderr:
				stream = types.StreamStderr
			case stdcopy.Systemerr:
				msg, err := io.ReadAll(io.LimitReader(rc, int64(min(size, maxChunkSize))))
				if err != nil {
					yield(types.LogChunk{}, fmt.Errorf("reading log frame body: %w", err))
					return
				}
				yield(types.LogChunk{}, fmt.Errorf("engine log stream error: %s", msg))
				return
			default:
				yield(types.LogChunk{}, fmt.Errorf("unrecognized log frame stream %d", header[frameStreamIdx]))
				return
			}

			for remaining := size; remaining > 0; {
				data := make([]byte, min(remaining, maxChunkSize))
				if _, err := io.ReadFull(rc, data); err != nil {
					yield(types.LogChunk{}, fmt.Errorf("reading log frame body: %w", err))
					return
				}
				remaining -= uint32(len(data))
				if !yield(types.LogChunk{Stream: stream, Data: data}, nil) {
					return
				}
			}
		}
	}
}
