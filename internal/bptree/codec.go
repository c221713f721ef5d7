package bptree

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Codec converts a key or value to and from its on-disk byte representation.
// Implementations should be self-describing enough that Decode can recover
// exactly what Encode produced; bptree wraps each encoded item in its own
// length prefix, so a Codec need not do framing itself.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// Uint32Codec encodes keys as fixed 4-byte little-endian integers. This is
// the typical codec for virtual-id keyed trees.
type Uint32Codec struct{}

func (Uint32Codec) Encode(v uint32) ([]byte, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b, nil
}

func (Uint32Codec) Decode(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: want 4 bytes for uint32 key, got %d", ErrInvalidData, len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

// JSONCodec encodes any value as compact JSON. It keeps the tree generic
// over arbitrary record shapes without per-type marshal code (see DESIGN.md
// for why JSON here). Callers pass it to New explicitly; there is no default
// codec.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[T]) Decode(b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return v, nil
}

// StringCodec encodes strings as their raw UTF-8 bytes.
type StringCodec struct{}

func (StringCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }
func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }
