// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package edm is a minimal, read-only Entity Data Model the writer engine
// consults through the Model interface. It is deliberately narrow: entity
// and complex types, navigation properties, entity sets and singletons, and
// derived-type constraints — just enough surface for spec-accurate type
// resolution, nothing a real EDM/CSDL parser would also need.
package edm

// TypeRef names a property or navigation property's declared type. For
// collection-valued navigation and structural properties, IsCollection is
// true and Name is the element type.
type TypeRef struct {
	Name         string
	IsCollection bool
}

// Property is a structural (non-navigation) property of an entity or
// complex type.
type Property struct {
	Name     string
	Type     TypeRef
	Nullable bool
}

// ReferentialConstraint binds a dependent property to a principal key
// property across a navigation property.
type ReferentialConstraint struct {
	DependentProperty string
	PrincipalProperty string
}

// NavigationProperty is a navigation (relationship) property of an entity
// type, pointing at another entity type either singly or as a collection.
type NavigationProperty struct {
	Name                   string
	Type                   TypeRef
	Partner                string
	ContainsTarget         bool
	ReferentialConstraints []ReferentialConstraint
}

// EntityType describes a structured, key-bearing type. BaseType, when set,
// establishes the inheritance chain IsAssignableFrom walks.
type EntityType struct {
	Name                 string
	BaseType             *EntityType
	Keys                 []string
	Properties           []Property
	NavigationProperties []NavigationProperty
	OpenType             bool
}

// ComplexType describes a structured type without keys or navigation.
type ComplexType struct {
	Name       string
	BaseType   *ComplexType
	Properties []Property
}

// EntitySet is a top-level or contained collection of entities of one
// entity type, with navigation-property bindings resolving where each of
// its navigation properties points.
type EntitySet struct {
	Name                       string
	EntityType                 *EntityType
	NavigationPropertyBindings map[string]string // binding path -> target set/singleton name
}

// Singleton is a top-level single entity, analogous to an EntitySet of
// cardinality one.
type Singleton struct {
	Name       string
	EntityType *EntityType
}

// Model is the read-only schema surface the writer engine queries. It is
// supplied by the caller and never mutated by the engine.
type Model interface {
	FindEntitySet(name string) (*EntitySet, bool)
	FindSingleton(name string) (*Singleton, bool)
	FindEntityType(name string) (*EntityType, bool)
	FindComplexType(name string) (*ComplexType, bool)

	// FindProperty looks up a structural property declared on the named
	// entity or complex type, including inherited properties.
	FindProperty(structuredTypeName, propertyName string) (Property, bool)

	// FindNavigationProperty looks up a navigation property declared on the
	// named entity type, including inherited navigation properties.
	FindNavigationProperty(structuredTypeName, propertyName string) (NavigationProperty, bool)

	// NavigationTarget resolves a navigation source name and a navigation
	// property to the navigation source it is bound to.
	NavigationTarget(sourceName string, navProp NavigationProperty) (targetName string, ok bool)

	// ElementType resolves a (possibly collection) type name to its element
	// type name and whether the named type was itself a collection.
	ElementType(typeName string) (elementTypeName string, isCollection bool)

	// DerivedTypeConstraints returns the permitted sub-type names declared
	// on a navigation property, structural property, or navigation source,
	// identified by owner type name + member name (member may be "" for a
	// navigation source's own constraint).
	DerivedTypeConstraints(structuredTypeName, memberName string) ([]string, bool)

	// IsAssignableFrom reports whether derivedTypeName is baseTypeName or a
	// (possibly transitive) sub-type of it.
	IsAssignableFrom(baseTypeName, derivedTypeName string) bool
}
