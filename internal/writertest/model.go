// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package writertest

import "github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"

// SampleModel returns a small Customers/Orders model shared by the writer
// and odatajson tests and the odata-inspect demo: Customer has a collection
// navigation to Order, Order has a single-valued navigation back to
// Customer, and Order carries a
// BillingAddress complex property.
func SampleModel() *edm.InMemoryModel {
	b := edm.NewBuilder()
	b.AddComplexType(&edm.ComplexType{
		Name: "Address",
		Properties: []edm.Property{
			{Name: "Street", Type: edm.TypeRef{Name: "Edm.String"}},
			{Name: "City", Type: edm.TypeRef{Name: "Edm.String"}},
		},
	}, "")
	b.AddEntityType(&edm.EntityType{
		Name: "Order",
		Keys: []string{"ID"},
		Properties: []edm.Property{
			{Name: "ID", Type: edm.TypeRef{Name: "Edm.Int32"}},
			{Name: "Amount", Type: edm.TypeRef{Name: "Edm.Decimal"}},
			{Name: "BillingAddress", Type: edm.TypeRef{Name: "Address"}},
		},
		NavigationProperties: []edm.NavigationProperty{
			{Name: "Customer", Type: edm.TypeRef{Name: "Customer"}},
		},
	}, "")
	b.AddEntityType(&edm.EntityType{
		Name: "Customer",
		Keys: []string{"ID"},
		Properties: []edm.Property{
			{Name: "ID", Type: edm.TypeRef{Name: "Edm.Int32"}},
			{Name: "Name", Type: edm.TypeRef{Name: "Edm.String"}},
		},
		NavigationProperties: []edm.NavigationProperty{
			{Name: "Orders", Type: edm.TypeRef{Name: "Order", IsCollection: true}},
		},
	}, "")
	b.AddEntitySet(&edm.EntitySet{
		Name:       "Customers",
		EntityType: mustEntityType(b, "Customer"),
		NavigationPropertyBindings: map[string]string{
			"Orders": "Orders",
		},
	})
	b.AddEntitySet(&edm.EntitySet{
		Name:       "Orders",
		EntityType: mustEntityType(b, "Order"),
		NavigationPropertyBindings: map[string]string{
			"Customer": "Customers",
		},
	})
	return b.Build()
}

func mustEntityType(b *edm.Builder, name string) *edm.EntityType {
	et, ok := b.Build().FindEntityType(name)
	if !ok {
		panic("writertest: missing entity type " + name)
	}
	return et
}
