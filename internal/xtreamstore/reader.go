package xtreamstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/m3uflux/m3uflux/internal/bptree"
)

// Reader serves point lookups by virtual_id against a previously written
// index+document pair. It owns two open file handles and must not be
// shared across concurrent readers (see bptree.TreeQuery); construct one
// per request and Close it when done.
type Reader struct {
	docs  *os.File
	index *bptree.TreeQuery[uint32, uint64]
}

// Open opens the index+document pair written at base (without .idx/.docs
// suffix) for reading.
func Open(base string) (*Reader, error) {
	docs, err := os.Open(base + ".docs")
	if err != nil {
		return nil, fmt.Errorf("xtreamstore: open docs file: %w", err)
	}
	idx, err := bptree.OpenTreeQuery[uint32, uint64](base+".idx", bptree.Uint32Codec{}, offsetCodec{})
	if err != nil {
		docs.Close()
		return nil, fmt.Errorf("xtreamstore: open index: %w", err)
	}
	return &Reader{docs: docs, index: idx}, nil
}

// Close releases both underlying file handles.
func (r *Reader) Close() error {
	idxErr := r.index.Close()
	docsErr := r.docs.Close()
	if idxErr != nil {
		return idxErr
	}
	return docsErr
}

// Lookup returns the raw document JSON at virtualID's offset, or found=false
// if no such virtual_id is indexed.
func (r *Reader) Lookup(virtualID uint32) (raw json.RawMessage, found bool, err error) {
	offset, found, err := r.index.Query(virtualID)
	if err != nil || !found {
		return nil, found, err
	}
	if _, err := r.docs.Seek(int64(offset), 0); err != nil {
		return nil, false, fmt.Errorf("xtreamstore: seek document: %w", err)
	}
	line, err := bufio.NewReader(r.docs).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, false, fmt.Errorf("xtreamstore: read document: %w", err)
	}
	return json.RawMessage(line), true, nil
}
