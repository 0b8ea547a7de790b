// Package compression provides the zstd codec behind ports.CompressionPort.
package compression

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Compression level constants define the trade-off between compression ratio and speed.
const (
	FastestLevel uint8 = uint8(zstd.SpeedFastest)
	DefaultLevel uint8 = uint8(zstd.SpeedDefault)
	BestLevel    uint8 = uint8(zstd.SpeedBestCompression)
)

// magic is the zstd frame header.
var magic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ZstdCompression implements ports.CompressionPort. Encoder and decoder are
// safe for concurrent EncodeAll/DecodeAll calls; the lock only guards Close.
type ZstdCompression struct {
	mu      sync.RWMutex
	closed  bool
	decoder *zstd.Decoder
	encoder *zstd.Encoder
}

// NewZstdCompression creates a codec with the given options.
func NewZstdCompression(opts Options) (*ZstdCompression, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.EncoderLevel(opts.Level)),
		zstd.WithEncoderConcurrency(max(int(opts.EncoderConcurrency), 1)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(int(opts.DecoderConcurrency)))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}

// IsCompressed reports whether data starts with a zstd frame header.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// Compress returns data as a single zstd frame.
func (z *ZstdCompression) Compress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if z.closed {
		return nil, fmt.Errorf("compression: codec closed")
	}
	return z.encoder.EncodeAll(data, nil), nil
}

// Decompress restores data compressed by Compress or any zstd encoder.
func (z *ZstdCompression) Decompress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if z.closed {
		return nil, fmt.Errorf("compression: codec closed")
	}

	decompressed, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	return decompressed, nil
}

// Close releases encoder and decoder resources. Further calls fail.
func (z *ZstdCompression) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closed {
		return nil
	}
	z.closed = true

	if err := z.encoder.Close(); err != nil {
		return fmt.Errorf("error closing encoder : %w", err)
	}

	z.decoder.Close()
	return nil
}
