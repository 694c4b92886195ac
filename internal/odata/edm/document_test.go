// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package edm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `
entity_types:
  - name: Customer
    keys: [ID]
    properties:
      - {name: ID, type: Edm.Int32}
      - {name: Name, type: Edm.String}
    navigation_properties:
      - {name: Orders, type: Order, is_collection: true}
  - name: Order
    keys: [ID]
    properties:
      - {name: ID, type: Edm.Int32}
    navigation_properties:
      - {name: Customer, type: Customer}
entity_sets:
  - name: Customers
    entity_type: Customer
    navigation_property_bindings:
      Orders: Orders
  - name: Orders
    entity_type: Order
    navigation_property_bindings:
      Customer: Customers
`

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	m, err := LoadDocument(path)
	require.NoError(t, err)

	es, ok := m.FindEntitySet("Customers")
	require.True(t, ok)
	assert.Equal(t, "Customer", es.EntityType.Name)

	np, ok := m.FindNavigationProperty("Customer", "Orders")
	require.True(t, ok)
	assert.True(t, np.Type.IsCollection)

	target, ok := m.NavigationTarget("Customers", np)
	require.True(t, ok)
	assert.Equal(t, "Orders", target)
}

func TestLoadDocumentUnknownEntityType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entity_sets:\n  - name: Widgets\n    entity_type: Widget\n"), 0o644))

	_, err := LoadDocument(path)
	assert.Error(t, err)
}
