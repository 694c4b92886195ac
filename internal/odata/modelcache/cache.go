// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package modelcache stores type-resolution outcomes (navigation source,
// item type, resource type, derived-type constraints) in an embedded badger
// store, keyed by navigation source and link name. The writer engine does
// not read from or write to it: cmd/odata-server opens a Cache, hands it to
// the service handler, and invalidates it on every model reload.
package modelcache

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Entry is one stored type-resolution outcome for a (navigation source,
// link name) pair.
type Entry struct {
	NavigationSource string
	ItemTypeName     string
	ResourceTypeName string
	Constraints      []string
	ResetToRoot      bool
}

// Cache wraps a badger.DB opened in-process; callers own its lifetime and
// must call Close when the server shuts down.
type Cache struct {
	db *badger.DB
}

// Open opens (or creates) a badger store rooted at dir. Pass "" for an
// ephemeral in-memory store, suitable for tests and single-process demos.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("modelcache: opening store: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func key(navigationSource, linkName string) []byte {
	return []byte(navigationSource + "\x00" + linkName)
}

// Get returns a previously stored Entry for the given key, if any.
func (c *Cache) Get(navigationSource, linkName string) (Entry, bool) {
	var entry Entry
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(navigationSource, linkName))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return Entry{}, false
	}
	return entry, found
}

// Put stores (or overwrites) the resolution outcome for navigationSource/linkName.
func (c *Cache) Put(navigationSource, linkName string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(navigationSource, linkName), raw)
	})
}

// Invalidate drops every cached entry, used after a model hot reload swaps
// in a new schema.
func (c *Cache) Invalidate() error {
	return c.db.DropAll()
}
