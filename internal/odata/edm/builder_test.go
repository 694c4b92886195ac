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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleModel() *InMemoryModel {
	b := NewBuilder()
	b.AddEntityType(&EntityType{
		Name: "Animal",
		Keys: []string{"ID"},
		Properties: []Property{
			{Name: "ID", Type: TypeRef{Name: "Edm.Int32"}},
		},
	}, "")
	b.AddEntityType(&EntityType{
		Name: "Dog",
		Properties: []Property{
			{Name: "Breed", Type: TypeRef{Name: "Edm.String"}},
		},
		NavigationProperties: []NavigationProperty{
			{Name: "Owner", Type: TypeRef{Name: "Person"}},
		},
	}, "Animal")
	b.AddEntityType(&EntityType{Name: "Person", Keys: []string{"ID"}}, "")
	b.AddEntitySet(&EntitySet{
		Name:       "Animals",
		EntityType: mustType(b, "Animal"),
		NavigationPropertyBindings: map[string]string{
			"Owner": "People",
		},
	})
	b.AddEntitySet(&EntitySet{Name: "People", EntityType: mustType(b, "Person")})
	b.AddDerivedTypeConstraint("Animal", "", "Dog")
	return b.Build()
}

func mustType(b *Builder, name string) *EntityType {
	et, _ := b.model.entityTypes[name]
	return et
}

func TestFindEntityTypeInheritsBaseProperties(t *testing.T) {
	m := buildSampleModel()
	dog, ok := m.FindEntityType("Dog")
	require.True(t, ok)
	assert.Equal(t, "Animal", dog.BaseType.Name)
}

func TestFindPropertyWalksInheritanceChain(t *testing.T) {
	m := buildSampleModel()
	p, ok := m.FindProperty("Dog", "ID")
	require.True(t, ok)
	assert.Equal(t, "Edm.Int32", p.Type.Name)

	_, ok = m.FindProperty("Dog", "Nonexistent")
	assert.False(t, ok)
}

func TestFindNavigationPropertyInheritance(t *testing.T) {
	m := buildSampleModel()
	np, ok := m.FindNavigationProperty("Dog", "Owner")
	require.True(t, ok)
	assert.Equal(t, "Person", np.Type.Name)
}

func TestNavigationTargetResolvesBinding(t *testing.T) {
	m := buildSampleModel()
	np, _ := m.FindNavigationProperty("Dog", "Owner")
	target, ok := m.NavigationTarget("Animals", np)
	require.True(t, ok)
	assert.Equal(t, "People", target)
}

func TestIsAssignableFrom(t *testing.T) {
	m := buildSampleModel()
	assert.True(t, m.IsAssignableFrom("Animal", "Dog"))
	assert.True(t, m.IsAssignableFrom("Animal", "Animal"))
	assert.False(t, m.IsAssignableFrom("Dog", "Animal"))
}

func TestElementTypeUnwrapsCollection(t *testing.T) {
	m := buildSampleModel()
	elem, isCollection := m.ElementType("Collection(Dog)")
	assert.True(t, isCollection)
	assert.Equal(t, "Dog", elem)

	elem, isCollection = m.ElementType("Dog")
	assert.False(t, isCollection)
	assert.Equal(t, "Dog", elem)
}

func TestDerivedTypeConstraints(t *testing.T) {
	m := buildSampleModel()
	allowed, ok := m.DerivedTypeConstraints("Animal", "")
	require.True(t, ok)
	assert.Equal(t, []string{"Dog"}, allowed)

	_, ok = m.DerivedTypeConstraints("Person", "")
	assert.False(t, ok)
}
