// Package idstore provides the per-target persistent uuid -> virtual_id
// mapping the virtual-id assignment stage needs (spec.md §4.3 stage 4). It
// is write-side only, consulted while building a fresh generation of a
// target's output artifacts; the B+Tree/document store it feeds is itself
// built wholesale and served read-only (see SPEC_FULL.md §4.3). Grounded on
// the teacher's internal/plex/dvr.go database/sql + modernc.org/sqlite idiom.
package idstore

import (
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is one target's uuid -> virtual_id table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite file at path and ensures its
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("idstore: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS virtual_ids (
	uuid_hex    TEXT PRIMARY KEY,
	virtual_id  INTEGER NOT NULL UNIQUE
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("idstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrAssign returns the virtual_id already associated with uuid, or
// allocates the next available one and persists it. Assignment is
// deterministic for a given (input_id, provider_id, url) triple only insofar
// as the caller always derives the same uuid for that triple (see
// model.Item.GenerateUUID); idstore itself just remembers the first
// assignment for a given uuid.
func (s *Store) GetOrAssign(uuid [32]byte) (uint32, error) {
	key := hex.EncodeToString(uuid[:])

	var existing int64
	err := s.db.QueryRow(`SELECT virtual_id FROM virtual_ids WHERE uuid_hex = ?`, key).Scan(&existing)
	if err == nil {
		return uint32(existing), nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("idstore: lookup %s: %w", key, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("idstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	var maxID sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(virtual_id) FROM virtual_ids`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("idstore: max virtual_id: %w", err)
	}
	next := uint32(1)
	if maxID.Valid {
		next = uint32(maxID.Int64) + 1
	}

	if _, err := tx.Exec(`INSERT INTO virtual_ids (uuid_hex, virtual_id) VALUES (?, ?)`, key, next); err != nil {
		return 0, fmt.Errorf("idstore: insert %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("idstore: commit: %w", err)
	}
	return next, nil
}
