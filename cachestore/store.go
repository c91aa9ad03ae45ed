// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cachestore memoizes a method's reconstructed statement tree in a
// sqlite-backed cache keyed by a content hash of its bytecode, so the CLI
// driver doesn't re-run the structural pipeline over an unchanged class
// file on every invocation.
package cachestore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/javadecompcore/javadecompcore/fast"
)

// Store wraps a sqlite database holding one row per memoized method.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS method_cache (
	key        TEXT PRIMARY KEY,
	class_name TEXT NOT NULL,
	method     TEXT NOT NULL,
	tree_json  BLOB NOT NULL,
	created_at DATETIME NOT NULL
);
`

// Open creates (or reopens) a sqlite-backed store at path. Use ":memory:"
// for a process-local, non-persistent cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cachestore: open %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cachestore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Key derives the cache key for one method: the sha256 of its class name,
// method signature, and raw bytecode, so an edit anywhere in the method
// invalidates only that method's memoized entry.
func Key(className, methodName, descriptor string, code []byte) string {
	h := sha256.New()
	h.Write([]byte(className))
	h.Write([]byte{0})
	h.Write([]byte(methodName))
	h.Write([]byte{0})
	h.Write([]byte(descriptor))
	h.Write([]byte{0})
	h.Write(code)
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the memoized tree for key, or ok=false on a cache miss.
func (s *Store) Lookup(key string) (tree []*fast.Node, ok bool, err error) {
	var blob []byte
	row := s.db.QueryRow(`SELECT tree_json FROM method_cache WHERE key = ?`, key)
	switch err := row.Scan(&blob); err {
	case nil:
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("cachestore: lookup %q: %w", key, err)
	}
	if err := json.Unmarshal(blob, &tree); err != nil {
		return nil, false, fmt.Errorf("cachestore: decode %q: %w", key, err)
	}
	return tree, true, nil
}

// Store memoizes tree under key, replacing any existing entry.
func (s *Store) Store(key, className, methodName string, tree []*fast.Node) error {
	blob, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("cachestore: encode %q: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO method_cache(key, class_name, method, tree_json, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET tree_json = excluded.tree_json, created_at = excluded.created_at`,
		key, className, methodName, blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("cachestore: store %q: %w", key, err)
	}
	return nil
}

// Invalidate removes a memoized entry, if present.
func (s *Store) Invalidate(key string) error {
	_, err := s.db.Exec(`DELETE FROM method_cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("cachestore: invalidate %q: %w", key, err)
	}
	return nil
}

// Len reports how many methods are currently memoized.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM method_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cachestore: count: %w", err)
	}
	return n, nil
}
