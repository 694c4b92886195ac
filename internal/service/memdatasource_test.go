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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"
)

func TestMemoryDataSourceSeedAndLookup(t *testing.T) {
	ds := NewMemoryDataSource()
	ds.Seed("Customers", []ResourceRow{
		{Key: "1", TypeName: "Customer", Properties: map[string]any{"Name": "Contoso"}},
		{Key: "2", TypeName: "Customer", Properties: map[string]any{"Name": "Fabrikam"}},
	})

	rows, err := ds.Resources(context.Background(), "Customers")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	row, ok, err := ds.Resource(context.Background(), "Customers", "2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fabrikam", row.Properties["Name"])

	_, ok, err = ds.Resource(context.Background(), "Customers", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDataSourceUnknownSetIsEmpty(t *testing.T) {
	ds := NewMemoryDataSource()
	rows, err := ds.Resources(context.Background(), "Nonexistent")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestIsAPIUsageOrSchemaError(t *testing.T) {
	schemaErr := odataerrors.New(odataerrors.KindCountInRequest, "$count is not supported on this request")
	assert.True(t, isAPIUsageOrSchemaError(schemaErr))
	assert.False(t, isAPIUsageOrSchemaError(errors.New("boom")))
}
