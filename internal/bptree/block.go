package bptree

import (
	"fmt"
	"io"
	"os"
)

// blockWriter serializes nodes in pre-order, one per BlockSize block. An
// internal node is written twice to the same block: first with a placeholder
// (empty) pointer vector, then — once every child has been written and its
// offset is known — the real pointer vector is seeked back in and written
// over the placeholder. Nothing else may write to that block's pointer
// region until the rewrite completes.
type blockWriter[K Ordered, V any] struct {
	f        *os.File
	next     int64 // next block offset to allocate
	keyCodec Codec[K]
	valCodec Codec[V]
}

func (w *blockWriter[K, V]) allocate() int64 {
	off := w.next
	w.next += BlockSize
	return off
}

// writeNode writes n (and, recursively, its children) and returns n's own
// block offset.
func (w *blockWriter[K, V]) writeNode(n *node[K, V]) (int64, error) {
	off := w.allocate()

	keysBlob, err := encodeItems(n.keys, w.keyCodec)
	if err != nil {
		return 0, err
	}

	block := make([]byte, BlockSize)
	if n.isLeaf {
		block[0] = 1
	} else {
		block[0] = 0
	}
	putUint32(block[1:5], uint32(len(keysBlob)))
	cursor := 5
	if cursor+len(keysBlob) > BlockSize {
		return 0, fmt.Errorf("bptree: node keys overflow block size (%d bytes)", len(keysBlob))
	}
	copy(block[cursor:], keysBlob)
	cursor += len(keysBlob)

	if n.isLeaf {
		valuesBlob, err := encodeItems(n.values, w.valCodec)
		if err != nil {
			return 0, err
		}
		if cursor+4+len(valuesBlob) > BlockSize {
			return 0, fmt.Errorf("bptree: leaf values overflow block size (%d bytes)", len(valuesBlob))
		}
		putUint32(block[cursor:cursor+4], uint32(len(valuesBlob)))
		cursor += 4
		copy(block[cursor:], valuesBlob)

		if _, err := w.f.WriteAt(block, off); err != nil {
			return 0, fmt.Errorf("bptree: write leaf block: %w", err)
		}
		return off, nil
	}

	// Internal node: reserve the pointer-vector length prefix, write the
	// placeholder block now, recurse into children, then rewrite the
	// pointer vector once children offsets are known.
	pointersOffsetInBlock := cursor
	pointerCount := len(n.children)
	pointersLen := pointerCount * 8
	if pointersOffsetInBlock+4+pointersLen > BlockSize {
		return 0, fmt.Errorf("bptree: internal node pointer vector overflows block size")
	}
	putUint32(block[cursor:cursor+4], uint32(pointersLen))

	if _, err := w.f.WriteAt(block, off); err != nil {
		return 0, fmt.Errorf("bptree: write internal placeholder block: %w", err)
	}

	childOffsets := make([]int64, pointerCount)
	for i, child := range n.children {
		childOff, err := w.writeNode(child)
		if err != nil {
			return 0, err
		}
		childOffsets[i] = childOff
	}

	pointers := make([]byte, pointersLen)
	for i, childOff := range childOffsets {
		putUint64(pointers[i*8:i*8+8], uint64(childOff))
	}
	if _, err := w.f.WriteAt(pointers, off+int64(pointersOffsetInBlock)+4); err != nil {
		return 0, fmt.Errorf("bptree: rewrite pointer vector: %w", err)
	}

	return off, nil
}

func encodeItems[T any](items []T, codec Codec[T]) ([]byte, error) {
	out := make([]byte, 4)
	putUint32(out, uint32(len(items)))
	for _, item := range items {
		enc, err := codec.Encode(item)
		if err != nil {
			return nil, fmt.Errorf("bptree: encode item: %w", err)
		}
		lenPrefix := make([]byte, 4)
		putUint32(lenPrefix, uint32(len(enc)))
		out = append(out, lenPrefix...)
		out = append(out, enc...)
	}
	return out, nil
}

func decodeItems[T any](blob []byte, codec Codec[T]) ([]T, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("%w: item blob too short", ErrInvalidData)
	}
	count := getUint32(blob[:4])
	cursor := 4
	items := make([]T, 0, count)
	for i := uint32(0); i < count; i++ {
		if cursor+4 > len(blob) {
			return nil, fmt.Errorf("%w: truncated item length prefix", ErrInvalidData)
		}
		itemLen := int(getUint32(blob[cursor : cursor+4]))
		cursor += 4
		if cursor+itemLen > len(blob) {
			return nil, fmt.Errorf("%w: truncated item payload", ErrInvalidData)
		}
		v, err := codec.Decode(blob[cursor : cursor+itemLen])
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		cursor += itemLen
	}
	return items, nil
}

// readBlock reads exactly BlockSize bytes at off, failing on a short read.
func readBlock(f *os.File, off int64) ([]byte, error) {
	block := make([]byte, BlockSize)
	n, err := f.ReadAt(block, off)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("bptree: read block at %d: %w", off, err)
	}
	if n != BlockSize {
		return nil, ErrShortRead
	}
	return block, nil
}

// decodeHeader parses the fixed is_leaf/keys fields common to every node,
// returning the decoded keys and the cursor position just past them.
func decodeHeader[K Ordered](block []byte, keyCodec Codec[K]) (isLeaf bool, keys []K, cursor int, err error) {
	isLeaf = block[0] == 1
	keysLen := int(getUint32(block[1:5]))
	cursor = 5
	if cursor+keysLen > BlockSize {
		return false, nil, 0, fmt.Errorf("%w: keys length prefix exceeds block", ErrInvalidData)
	}
	keys, err = decodeItems(block[cursor:cursor+keysLen], keyCodec)
	if err != nil {
		return false, nil, 0, err
	}
	cursor += keysLen
	return isLeaf, keys, cursor, nil
}

// blockReader deserializes an entire tree into memory by following child
// pointers recorded in each internal block.
type blockReader[K Ordered, V any] struct {
	f        *os.File
	keyCodec Codec[K]
	valCodec Codec[V]
}

func (r *blockReader[K, V]) readNodeTree(off int64) (*node[K, V], error) {
	block, err := readBlock(r.f, off)
	if err != nil {
		return nil, err
	}
	isLeaf, keys, cursor, err := decodeHeader(block, r.keyCodec)
	if err != nil {
		return nil, err
	}

	if isLeaf {
		if cursor+4 > BlockSize {
			return nil, fmt.Errorf("%w: missing values length prefix", ErrInvalidData)
		}
		valuesLen := int(getUint32(block[cursor : cursor+4]))
		cursor += 4
		if cursor+valuesLen > BlockSize {
			return nil, fmt.Errorf("%w: values length prefix exceeds block", ErrInvalidData)
		}
		values, err := decodeItems(block[cursor:cursor+valuesLen], r.valCodec)
		if err != nil {
			return nil, err
		}
		return &node[K, V]{isLeaf: true, keys: keys, values: values}, nil
	}

	if cursor+4 > BlockSize {
		return nil, fmt.Errorf("%w: missing pointer vector length prefix", ErrInvalidData)
	}
	pointersLen := int(getUint32(block[cursor : cursor+4]))
	cursor += 4
	if cursor+pointersLen > BlockSize || pointersLen%8 != 0 {
		return nil, fmt.Errorf("%w: malformed pointer vector", ErrInvalidData)
	}
	pointerBytes := block[cursor : cursor+pointersLen]
	children := make([]*node[K, V], 0, pointersLen/8)
	for i := 0; i < pointersLen; i += 8 {
		childOff := int64(getUint64(pointerBytes[i : i+8]))
		child, err := r.readNodeTree(childOff)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &node[K, V]{isLeaf: false, keys: keys, children: children}, nil
}
