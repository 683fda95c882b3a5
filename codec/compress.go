package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm used by Compressed.
type Compression uint8

const (
	// CompressionNone stores payloads as is.
	CompressionNone Compression = 0
	// CompressionLZ4 is LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD is zstd compression (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compressed wraps a codec and compresses its payloads.
//
// Frame: [algo uint8][uncompressed size uint32][data...]. Payloads that do not
// shrink are stored with algo none.
type Compressed[V any] struct {
	Inner     Codec[V]
	Algorithm Compression
	// MaxDecoded bounds the uncompressed size accepted by Decode;
	// 0 => 64 MiB.
	MaxDecoded int
}

const (
	compressedHeader     = 5
	defaultMaxDecompress = 64 << 20
)

var ErrCorruptFrame = errors.New("codec: corrupt compressed frame")

func (c Compressed[V]) Encode(v V) ([]byte, error) {
	raw, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return compress(raw, c.Algorithm)
}

func (c Compressed[V]) Decode(b []byte) (V, error) {
	var zero V
	raw, err := decompress(b, c.MaxDecoded)
	if err != nil {
		return zero, err
	}
	return c.Inner.Decode(raw)
}

// FormatID forwards the inner codec's format id, if it has one.
func (c Compressed[V]) FormatID() FormatID {
	if f, ok := c.Inner.(interface{ FormatID() FormatID }); ok {
		return f.FormatID()
	}
	return 0
}

func compress(data []byte, algo Compression) ([]byte, error) {
	var packed []byte
	switch algo {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n] // n == 0: incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case CompressionNone:
	default:
		return nil, fmt.Errorf("codec: unknown compression %d", algo)
	}

	if len(packed) == 0 || len(packed) >= len(data) {
		algo, packed = CompressionNone, data
	}
	out := make([]byte, compressedHeader+len(packed))
	out[0] = byte(algo)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	copy(out[compressedHeader:], packed)
	return out, nil
}

func decompress(b []byte, limit int) ([]byte, error) {
	if len(b) < compressedHeader {
		return nil, ErrCorruptFrame
	}
	if limit <= 0 {
		limit = defaultMaxDecompress
	}
	size := binary.LittleEndian.Uint32(b[1:])
	if uint64(size) > uint64(limit) {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, size, limit)
	}
	data := b[compressedHeader:]

	switch Compression(b[0]) {
	case CompressionNone:
		if uint32(len(data)) != size {
			return nil, ErrCorruptFrame
		}
		return data, nil
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
		}
		if uint32(n) != size {
			return nil, ErrCorruptFrame
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
		}
		if uint32(len(out)) != size {
			return nil, ErrCorruptFrame
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown algorithm %d", ErrCorruptFrame, b[0])
}
