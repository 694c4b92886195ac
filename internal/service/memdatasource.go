// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package service

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDataSource is a DataSource backed by an in-process map, the
// reference data store for demos and tests. A real deployment swaps this
// for whatever actually holds the data; the service layer only depends on
// the DataSource interface.
type MemoryDataSource struct {
	mu   sync.RWMutex
	sets map[string][]ResourceRow
}

// NewMemoryDataSource returns an empty store.
func NewMemoryDataSource() *MemoryDataSource {
	return &MemoryDataSource{sets: map[string][]ResourceRow{}}
}

// Seed replaces the rows held for navigationSourceName.
func (m *MemoryDataSource) Seed(navigationSourceName string, rows []ResourceRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[navigationSourceName] = rows
}

func (m *MemoryDataSource) Resources(ctx context.Context, navigationSourceName string) ([]ResourceRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ResourceRow(nil), m.sets[navigationSourceName]...), nil
}

func (m *MemoryDataSource) Resource(ctx context.Context, navigationSourceName, key string) (ResourceRow, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.sets[navigationSourceName] {
		if row.Key == key {
			return row, true, nil
		}
	}
	return ResourceRow{}, false, nil
}

func keyString(v any) string {
	return fmt.Sprint(v)
}
