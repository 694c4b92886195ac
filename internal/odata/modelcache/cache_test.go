// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package modelcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissReturnsNotFound(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("Customers", "Orders")
	assert.False(t, ok)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	defer c.Close()

	entry := Entry{
		NavigationSource: "Orders",
		ItemTypeName:     "Order",
		ResourceTypeName: "Order",
		Constraints:      []string{"PriorityOrder"},
		ResetToRoot:      true,
	}
	require.NoError(t, c.Put("Customers", "Orders", entry))

	got, ok := c.Get("Customers", "Orders")
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestInvalidateDropsEverything(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put("Customers", "Orders", Entry{ItemTypeName: "Order"}))
	require.NoError(t, c.Invalidate())

	_, ok := c.Get("Customers", "Orders")
	assert.False(t, ok)
}
