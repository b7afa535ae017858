package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how the index payload is stored on disk.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses Zstandard.
	CompressionZSTD Compression = 2
)

const (
	frameVersion    = 1
	frameHeaderSize = 10
	// lz4MaxRatio bounds how far one LZ4 block byte can expand.
	lz4MaxRatio = 255
)

var frameMagic = [4]byte{'T', 'V', 'I', 'X'}

// String returns the configuration name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps a configuration name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "off":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zstandard":
		return CompressionZSTD, nil
	}
	return CompressionNone, fmt.Errorf("persist: unknown compression %q", name)
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// encodeFrame wraps raw in a frame, compressing it with c. Incompressible
// payloads fall back to CompressionNone.
func encodeFrame(raw []byte, c Compression) ([]byte, error) {
	payload := raw
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 || n >= len(raw) {
			c = CompressionNone
		} else {
			payload = buf[:n]
		}
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		payload = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("persist: unsupported compression %d", c)
	}
	out := make([]byte, frameHeaderSize+len(payload))
	copy(out[0:4], frameMagic[:])
	out[4] = frameVersion
	out[5] = byte(c)
	binary.LittleEndian.PutUint32(out[6:10], uint32(len(raw)))
	copy(out[frameHeaderSize:], payload)
	return out, nil
}

// decodeFrame returns the raw payload of a frame. The result never aliases
// data, so data may be unmapped afterwards.
func decodeFrame(data []byte) ([]byte, error) {
	if len(data) < frameHeaderSize {
		return nil, errors.New("frame too small for header")
	}
	if [4]byte(data[0:4]) != frameMagic {
		return nil, errors.New("bad frame magic")
	}
	if data[4] != frameVersion {
		return nil, fmt.Errorf("unsupported frame version %d", data[4])
	}
	rawLen := int(binary.LittleEndian.Uint32(data[6:10]))
	payload := data[frameHeaderSize:]
	switch Compression(data[5]) {
	case CompressionNone:
		if len(payload) != rawLen {
			return nil, fmt.Errorf("payload length %d, want %d", len(payload), rawLen)
		}
		return append([]byte(nil), payload...), nil
	case CompressionLZ4:
		if rawLen > lz4MaxRatio*len(payload) {
			return nil, fmt.Errorf("raw length %d exceeds lz4 bound for %d byte payload", rawLen, len(payload))
		}
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, errors.New("decompressed size mismatch")
		}
		return raw, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		// the header length is checked after decoding, never used to size the buffer
		raw, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, err
		}
		if len(raw) != rawLen {
			return nil, errors.New("decompressed size mismatch")
		}
		return raw, nil
	}
	return nil, fmt.Errorf("unknown compression %d", data[5])
}
