package bptree

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func newStringValueTree() *Tree[uint32, string] {
	inner, leaf := OrdersFor(4, 64)
	return New[uint32, string](inner, leaf, Uint32Codec{}, StringCodec{})
}

func TestInsertSerializeReopenQuery(t *testing.T) {
	tree := newStringValueTree()
	for i := uint32(0); i <= 500; i++ {
		tree.Insert(i, fmt.Sprintf("Entry %d", i))
	}

	path := filepath.Join(t.TempDir(), "tree.bin")
	size, err := tree.Serialize(path)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if size%BlockSize != 0 {
		t.Fatalf("file length %d is not a multiple of %d", size, BlockSize)
	}

	q, err := OpenTreeQuery[uint32, string](path, Uint32Codec{}, StringCodec{})
	if err != nil {
		t.Fatalf("OpenTreeQuery: %v", err)
	}
	defer q.Close()

	for i := uint32(0); i <= 500; i++ {
		want := fmt.Sprintf("Entry %d", i)
		got, found, err := q.Query(i)
		if err != nil {
			t.Fatalf("Query(%d): %v", i, err)
		}
		if !found || got != want {
			t.Fatalf("Query(%d) = %q, %v; want %q, true", i, got, found, want)
		}
	}
}

func TestQueryMissingKeyReturnsFalse(t *testing.T) {
	tree := newStringValueTree()
	tree.Insert(1, "one")
	tree.Insert(2, "two")

	if _, found := tree.Query(99); found {
		t.Fatalf("Query(99) should not be found in a tree without key 99")
	}
}

func TestInsertAndQueryInMemoryMatchesAcrossKeys(t *testing.T) {
	tree := newStringValueTree()
	want := map[uint32]string{}
	r := rand.New(rand.NewSource(1))
	keys := r.Perm(2000)
	for _, k := range keys {
		v := fmt.Sprintf("val-%d", k)
		tree.Insert(uint32(k), v)
		want[uint32(k)] = v
	}
	for k, v := range want {
		got, found := tree.Query(k)
		if !found || got != v {
			t.Fatalf("Query(%d) = %q, %v; want %q, true", k, got, found, v)
		}
	}
	if _, found := tree.Query(999999); found {
		t.Fatalf("Query(999999) should not be found")
	}
}

func TestDuplicateKeyInsertReplacesInPlace(t *testing.T) {
	tree := newStringValueTree()
	tree.Insert(1, "first")
	tree.Insert(1, "second")

	got, found := tree.Query(1)
	if !found || got != "second" {
		t.Fatalf("Query(1) = %q, %v; want %q, true (duplicate insert must replace in place)", got, found, "second")
	}
}

func TestSerializeDeserializeMatchesInMemoryQuery(t *testing.T) {
	tree := newStringValueTree()
	r := rand.New(rand.NewSource(7))
	keys := r.Perm(5000)
	for _, k := range keys {
		tree.Insert(uint32(k), fmt.Sprintf("e%d", k))
	}

	path := filepath.Join(t.TempDir(), "tree.bin")
	size, err := tree.Serialize(path)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if size%BlockSize != 0 {
		t.Fatalf("file length %d not block-aligned", size)
	}

	inner, leaf := OrdersFor(4, 64)
	reopened, err := Deserialize[uint32, string](path, inner, leaf, Uint32Codec{}, StringCodec{})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	for _, k := range keys {
		want, _ := tree.Query(uint32(k))
		got, found := reopened.Query(uint32(k))
		if !found || got != want {
			t.Fatalf("Query(%d) after deserialize = %q, %v; want %q, true", k, got, found, want)
		}
	}
}

func TestOpenTreeQueryRejectsUnalignedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(path, make([]byte, BlockSize+1), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenTreeQuery[uint32, string](path, Uint32Codec{}, StringCodec{}); err != ErrNotBlockAligned {
		t.Fatalf("OpenTreeQuery on unaligned file: got %v, want ErrNotBlockAligned", err)
	}
}
