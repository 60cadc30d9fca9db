package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType identifies the codec used for a message set. The values
// match the attribute bits carried on the wire.
type CompressionType int8

const (
	None CompressionType = iota
	Gzip
	Snappy
	LZ4
	Zstd
)

// String returns the string representation of the compression type
func (c CompressionType) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Compressor is the codec interface
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Type() CompressionType
}

// NoCompression passes data through unchanged
type NoCompression struct{}

func (n *NoCompression) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoCompression) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoCompression) Type() CompressionType {
	return None
}

// GzipCompression wraps compress/gzip
type GzipCompression struct{}

func (g *GzipCompression) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress failed: %v", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip writer close failed: %v", err)
	}

	return buf.Bytes(), nil
}

func (g *GzipCompression) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader create failed: %v", err)
	}
	defer reader.Close()

	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress failed: %v", err)
	}

	return result, nil
}

func (g *GzipCompression) Type() CompressionType {
	return Gzip
}

// SnappyCompression wraps klauspost snappy
type SnappyCompression struct{}

func (s *SnappyCompression) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (s *SnappyCompression) Decompress(data []byte) ([]byte, error) {
	result, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %v", err)
	}
	return result, nil
}

func (s *SnappyCompression) Type() CompressionType {
	return Snappy
}

// LZ4Compression wraps pierrec lz4 frame format
type LZ4Compression struct{}

func (l *LZ4Compression) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress failed: %v", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 writer close failed: %v", err)
	}

	return buf.Bytes(), nil
}

func (l *LZ4Compression) Decompress(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))
	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress failed: %v", err)
	}
	return result, nil
}

func (l *LZ4Compression) Type() CompressionType {
	return LZ4
}

// ZstdCompression wraps klauspost zstd with reusable coder instances
type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewZstdCompression() (*ZstdCompression, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder failed: %v", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder failed: %v", err)
	}

	return &ZstdCompression{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

func (z *ZstdCompression) Compress(data []byte) ([]byte, error) {
	return z.encoder.EncodeAll(data, nil), nil
}

func (z *ZstdCompression) Decompress(data []byte) ([]byte, error) {
	result, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %v", err)
	}
	return result, nil
}

func (z *ZstdCompression) Type() CompressionType {
	return Zstd
}

func (z *ZstdCompression) Close() {
	if z.encoder != nil {
		z.encoder.Close()
	}
	if z.decoder != nil {
		z.decoder.Close()
	}
}

// GetCompressor returns the codec for a compression type
func GetCompressor(compressionType CompressionType) (Compressor, error) {
	switch compressionType {
	case None:
		return &NoCompression{}, nil
	case Gzip:
		return &GzipCompression{}, nil
	case Snappy:
		return &SnappyCompression{}, nil
	case LZ4:
		return &LZ4Compression{}, nil
	case Zstd:
		return NewZstdCompression()
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", compressionType)
	}
}

// Compress compresses data with the given codec
func Compress(data []byte, compressionType CompressionType) ([]byte, error) {
	compressor, err := GetCompressor(compressionType)
	if err != nil {
		return nil, err
	}
	return compressor.Compress(data)
}

// Decompress decompresses data with the given codec
func Decompress(data []byte, compressionType CompressionType) ([]byte, error) {
	compressor, err := GetCompressor(compressionType)
	if err != nil {
		return nil, err
	}
	return compressor.Decompress(data)
}
