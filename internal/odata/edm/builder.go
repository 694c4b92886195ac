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

import "fmt"

// InMemoryModel is a concrete, immutable-after-Build Model implementation
// good enough to describe a small OData service. Construct it with Builder.
type InMemoryModel struct {
	entityTypes  map[string]*EntityType
	complexTypes map[string]*ComplexType
	entitySets   map[string]*EntitySet
	singletons   map[string]*Singleton

	// derivedConstraints maps "OwnerType.member" (member may be empty) to
	// the set of permitted derived type names.
	derivedConstraints map[string][]string
}

// Builder assembles an InMemoryModel incrementally. It is not safe for
// concurrent use; build the model once, then share the result freely.
type Builder struct {
	model *InMemoryModel
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{model: &InMemoryModel{
		entityTypes:        map[string]*EntityType{},
		complexTypes:       map[string]*ComplexType{},
		entitySets:         map[string]*EntitySet{},
		singletons:         map[string]*Singleton{},
		derivedConstraints: map[string][]string{},
	}}
}

// AddEntityType registers an entity type. BaseTypeName, when non-empty, must
// already have been registered.
func (b *Builder) AddEntityType(et *EntityType, baseTypeName string) *Builder {
	if baseTypeName != "" {
		if base, ok := b.model.entityTypes[baseTypeName]; ok {
			et.BaseType = base
		}
	}
	b.model.entityTypes[et.Name] = et
	return b
}

// AddComplexType registers a complex type.
func (b *Builder) AddComplexType(ct *ComplexType, baseTypeName string) *Builder {
	if baseTypeName != "" {
		if base, ok := b.model.complexTypes[baseTypeName]; ok {
			ct.BaseType = base
		}
	}
	b.model.complexTypes[ct.Name] = ct
	return b
}

// AddEntitySet registers an entity set.
func (b *Builder) AddEntitySet(es *EntitySet) *Builder {
	if es.NavigationPropertyBindings == nil {
		es.NavigationPropertyBindings = map[string]string{}
	}
	b.model.entitySets[es.Name] = es
	return b
}

// AddSingleton registers a singleton.
func (b *Builder) AddSingleton(s *Singleton) *Builder {
	b.model.singletons[s.Name] = s
	return b
}

// AddDerivedTypeConstraint restricts member (or, when member is "", the
// navigation source itself named by ownerType) to the given sub-type names.
func (b *Builder) AddDerivedTypeConstraint(ownerType, member string, allowed ...string) *Builder {
	b.model.derivedConstraints[constraintKey(ownerType, member)] = allowed
	return b
}

// Build finalizes the model. It is safe to call Build multiple times; each
// call returns the same underlying model with whatever has been registered
// so far.
func (b *Builder) Build() *InMemoryModel {
	return b.model
}

func constraintKey(ownerType, member string) string {
	return fmt.Sprintf("%s.%s", ownerType, member)
}

func (m *InMemoryModel) FindEntitySet(name string) (*EntitySet, bool) {
	es, ok := m.entitySets[name]
	return es, ok
}

func (m *InMemoryModel) FindSingleton(name string) (*Singleton, bool) {
	s, ok := m.singletons[name]
	return s, ok
}

func (m *InMemoryModel) FindEntityType(name string) (*EntityType, bool) {
	et, ok := m.entityTypes[name]
	return et, ok
}

func (m *InMemoryModel) FindComplexType(name string) (*ComplexType, bool) {
	ct, ok := m.complexTypes[name]
	return ct, ok
}

func (m *InMemoryModel) FindProperty(structuredTypeName, propertyName string) (Property, bool) {
	if et, ok := m.entityTypes[structuredTypeName]; ok {
		for t := et; t != nil; t = t.BaseType {
			for _, p := range t.Properties {
				if p.Name == propertyName {
					return p, true
				}
			}
		}
		return Property{}, false
	}
	if ct, ok := m.complexTypes[structuredTypeName]; ok {
		for t := ct; t != nil; t = t.BaseType {
			for _, p := range t.Properties {
				if p.Name == propertyName {
					return p, true
				}
			}
		}
	}
	return Property{}, false
}

func (m *InMemoryModel) FindNavigationProperty(structuredTypeName, propertyName string) (NavigationProperty, bool) {
	et, ok := m.entityTypes[structuredTypeName]
	if !ok {
		return NavigationProperty{}, false
	}
	for t := et; t != nil; t = t.BaseType {
		for _, np := range t.NavigationProperties {
			if np.Name == propertyName {
				return np, true
			}
		}
	}
	return NavigationProperty{}, false
}

func (m *InMemoryModel) NavigationTarget(sourceName string, navProp NavigationProperty) (string, bool) {
	if es, ok := m.entitySets[sourceName]; ok {
		target, ok := es.NavigationPropertyBindings[navProp.Name]
		return target, ok
	}
	if s, ok := m.singletons[sourceName]; ok {
		_ = s
		// Singletons may also carry bindings in a fuller model; absent here,
		// fall through to "not found" so callers apply their own default.
	}
	return "", false
}

func (m *InMemoryModel) ElementType(typeName string) (string, bool) {
	// Collection-typed names are represented as "Collection(X)" per OData
	// convention; anything else is already an element type.
	const prefix = "Collection("
	if len(typeName) > len(prefix)+1 && typeName[:len(prefix)] == prefix && typeName[len(typeName)-1] == ')' {
		return typeName[len(prefix) : len(typeName)-1], true
	}
	return typeName, false
}

func (m *InMemoryModel) DerivedTypeConstraints(structuredTypeName, memberName string) ([]string, bool) {
	allowed, ok := m.derivedConstraints[constraintKey(structuredTypeName, memberName)]
	return allowed, ok
}

func (m *InMemoryModel) IsAssignableFrom(baseTypeName, derivedTypeName string) bool {
	if baseTypeName == derivedTypeName {
		return true
	}
	if et, ok := m.entityTypes[derivedTypeName]; ok {
		for t := et.BaseType; t != nil; t = t.BaseType {
			if t.Name == baseTypeName {
				return true
			}
		}
		return false
	}
	if ct, ok := m.complexTypes[derivedTypeName]; ok {
		for t := ct.BaseType; t != nil; t = t.BaseType {
			if t.Name == baseTypeName {
				return true
			}
		}
	}
	return false
}
