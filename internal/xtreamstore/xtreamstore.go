// Package xtreamstore implements the Xtream output target: "a set of
// B+Tree indexes and a document store" (spec.md §4.3). Documents are
// appended to a JSON-lines file; a bptree.Tree maps virtual_id to that
// document's byte offset, then is serialized alongside it so a server can
// reopen it as a streaming bptree.TreeQuery.
package xtreamstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m3uflux/m3uflux/internal/bptree"
	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/model"
	"github.com/m3uflux/m3uflux/internal/pathutil"
)

// document is one record in the document store: the Xtream projection plus
// its owning group's title, since the Xtream target flattens groups into a
// single indexed collection.
type document struct {
	GroupTitle string            `json:"group_title"`
	Item       model.XtreamItem  `json:"item"`
}

// Write builds the index+document pair for target at
// <workingDir>/<target.Filename>.docs and .idx.
func Write(groups []*model.Group, target config.Target, workingDir string) error {
	base := pathutil.Resolve(workingDir, target.Filename)
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return fmt.Errorf("xtreamstore: mkdir: %w", err)
	}
	docsPath := base + ".docs"
	idxPath := base + ".idx"

	docsFile, err := os.Create(docsPath)
	if err != nil {
		return fmt.Errorf("xtreamstore: create docs file: %w", err)
	}
	defer docsFile.Close()
	w := bufio.NewWriter(docsFile)

	inner, leaf := bptree.OrdersFor(4, 8) // key: uint32 virtual_id; value: uint64 offset, fixed 8 bytes
	tree := bptree.New[uint32, uint64](inner, leaf, bptree.Uint32Codec{}, offsetCodec{})

	var offset uint64
	for _, g := range groups {
		for _, item := range g.Items {
			doc := document{GroupTitle: g.Title, Item: item.ToXtreamItem()}
			line, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("xtreamstore: encode document: %w", err)
			}
			line = append(line, '\n')

			tree.Insert(item.VirtualID, offset)
			n, err := w.Write(line)
			if err != nil {
				return fmt.Errorf("xtreamstore: write document: %w", err)
			}
			offset += uint64(n)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("xtreamstore: flush docs file: %w", err)
	}
	if err := docsFile.Sync(); err != nil {
		return fmt.Errorf("xtreamstore: sync docs file: %w", err)
	}

	if _, err := tree.Serialize(idxPath); err != nil {
		return fmt.Errorf("xtreamstore: serialize index: %w", err)
	}
	return nil
}

// offsetCodec encodes a byte offset as a fixed 8-byte little-endian value.
type offsetCodec struct{}

func (offsetCodec) Encode(v uint64) ([]byte, error) {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b, nil
}

func (offsetCodec) Decode(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("xtreamstore: want 8 bytes for offset, got %d", len(b))
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}
