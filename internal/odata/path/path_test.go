// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootString(t *testing.T) {
	p := Root("Customers")
	assert.Equal(t, "Customers", p.String())
	assert.False(t, p.Empty())
}

func TestEmptyPath(t *testing.T) {
	var p *Path
	assert.True(t, p.Empty())
	assert.Equal(t, "", p.String())
}

func TestKeyAndNavigation(t *testing.T) {
	p := Root("Customers").WithKey("1").WithNavigation("Orders").WithKey("10")
	assert.Equal(t, "Customers(1)/Orders(10)", p.String())
}

func TestTypeCastAndProperty(t *testing.T) {
	p := Root("Customers").WithKey("1").WithTypeCast("Model.VipCustomer").WithProperty("BillingAddress")
	assert.Equal(t, "Customers(1)/Model.VipCustomer/BillingAddress", p.String())
}

func TestAppendDoesNotMutateParent(t *testing.T) {
	base := Root("Customers").WithKey("1")
	child := base.WithNavigation("Orders")

	assert.Equal(t, "Customers(1)", base.String())
	assert.Equal(t, "Customers(1)/Orders", child.String())
	assert.Len(t, base.Segments, 2)
	assert.Len(t, child.Segments, 3)
}

func TestResetToRoot(t *testing.T) {
	nested := Root("Customers").WithKey("1").WithNavigation("Orders")
	reset := ResetToRoot("Orders")
	assert.Equal(t, "Orders", reset.String())
	assert.NotEqual(t, nested.String(), reset.String())
}
