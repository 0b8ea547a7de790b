package ports

// CompressionPort compresses and restores whole byte slices.
// Manifests exported by the metadata store may be stored compressed.
type CompressionPort interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Close() error
}
