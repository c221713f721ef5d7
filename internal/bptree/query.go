package bptree

import (
	"fmt"
	"os"
)

// TreeQuery is a read-only handle onto a serialized tree file. Unlike Tree,
// it never loads the whole structure: each Query call reads one block at a
// time, descending from the root, and holds at most the current path's
// blocks in memory. A TreeQuery owns an open file handle and must not be
// shared across concurrent readers; construct one per reader task and Close
// it when done.
type TreeQuery[K Ordered, V any] struct {
	f        *os.File
	keyCodec Codec[K]
	valCodec Codec[V]
}

// OpenTreeQuery opens filename for streaming reads. It rejects files whose
// length is not a multiple of BlockSize.
func OpenTreeQuery[K Ordered, V any](filename string, keyCodec Codec[K], valCodec Codec[V]) (*TreeQuery[K, V], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("bptree: open %s: %w", filename, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size()%BlockSize != 0 {
		f.Close()
		return nil, ErrNotBlockAligned
	}
	return &TreeQuery[K, V]{f: f, keyCodec: keyCodec, valCodec: valCodec}, nil
}

// Close releases the underlying file handle.
func (q *TreeQuery[K, V]) Close() error {
	return q.f.Close()
}

// Query descends the tree one block read at a time, starting at offset 0,
// and returns the value for key if present.
func (q *TreeQuery[K, V]) Query(key K) (V, bool, error) {
	off := int64(0)
	for {
		block, err := readBlock(q.f, off)
		if err != nil {
			var zero V
			return zero, false, err
		}
		isLeaf, keys, cursor, err := decodeHeader(block, q.keyCodec)
		if err != nil {
			var zero V
			return zero, false, err
		}

		if isLeaf {
			if cursor+4 > BlockSize {
				var zero V
				return zero, false, fmt.Errorf("%w: missing values length prefix", ErrInvalidData)
			}
			valuesLen := int(getUint32(block[cursor : cursor+4]))
			cursor += 4
			if cursor+valuesLen > BlockSize {
				var zero V
				return zero, false, fmt.Errorf("%w: values length prefix exceeds block", ErrInvalidData)
			}
			values, err := decodeItems(block[cursor:cursor+valuesLen], q.valCodec)
			if err != nil {
				var zero V
				return zero, false, err
			}
			idx, found := search(keys, key)
			if !found {
				var zero V
				return zero, false, nil
			}
			return values[idx], true, nil
		}

		if cursor+4 > BlockSize {
			var zero V
			return zero, false, fmt.Errorf("%w: missing pointer vector length prefix", ErrInvalidData)
		}
		pointersLen := int(getUint32(block[cursor : cursor+4]))
		cursor += 4
		if cursor+pointersLen > BlockSize || pointersLen%8 != 0 {
			var zero V
			return zero, false, fmt.Errorf("%w: malformed pointer vector", ErrInvalidData)
		}
		idx := upperBound(keys, key)
		pointerBytes := block[cursor : cursor+pointersLen]
		off = int64(getUint64(pointerBytes[idx*8 : idx*8+8]))
	}
}
