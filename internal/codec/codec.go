package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes v to deterministic MessagePack bytes.
//
// Map keys are sorted at encode time. The round-trip law
// Unmarshal(Marshal(v)) == v holds for struct, map, slice and scalar values.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack bytes produced by Marshal into v.
func Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// MarshalCompressed encodes v like Marshal and wraps the result in an LZ4
// compressed block with a 4-byte big-endian uncompressed-length prefix.
//
// Incompressible payloads are stored raw after the prefix; the reader detects
// this case by the payload length matching the prefix.
func MarshalCompressed(v any) ([]byte, error) {
	raw, err := Marshal(v)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	var c lz4.Compressor
	n, err := c.CompressBlock(raw, dst)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	payload := dst[:n]
	if n == 0 || n >= len(raw) {
		// Not compressible; store raw.
		payload = raw
	}

	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(len(raw)))
	copy(out[4:], payload)
	return out, nil
}

// UnmarshalCompressed decodes bytes produced by MarshalCompressed into v.
func UnmarshalCompressed(data []byte, v any) error {
	if len(data) < 4 {
		return fmt.Errorf("decompress: blob truncated (%d bytes)", len(data))
	}

	rawLen := int(binary.BigEndian.Uint32(data[:4]))
	payload := data[4:]

	if rawLen == len(payload) {
		// Stored raw.
		return Unmarshal(payload, v)
	}

	raw := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(payload, raw)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	return Unmarshal(raw[:n], v)
}
