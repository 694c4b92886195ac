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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a model file: a thin, declarative
// surface over Builder, so the model a deployment serves can be edited and
// hot-reloaded without a recompile.
type document struct {
	EntityTypes []struct {
		Name         string `yaml:"name"`
		BaseType     string `yaml:"base_type"`
		Keys         []string `yaml:"keys"`
		OpenType     bool   `yaml:"open_type"`
		Properties   []struct {
			Name         string `yaml:"name"`
			Type         string `yaml:"type"`
			IsCollection bool   `yaml:"is_collection"`
			Nullable     bool   `yaml:"nullable"`
		} `yaml:"properties"`
		NavigationProperties []struct {
			Name           string `yaml:"name"`
			Type           string `yaml:"type"`
			IsCollection   bool   `yaml:"is_collection"`
			Partner        string `yaml:"partner"`
			ContainsTarget bool   `yaml:"contains_target"`
		} `yaml:"navigation_properties"`
	} `yaml:"entity_types"`

	ComplexTypes []struct {
		Name       string `yaml:"name"`
		BaseType   string `yaml:"base_type"`
		Properties []struct {
			Name         string `yaml:"name"`
			Type         string `yaml:"type"`
			IsCollection bool   `yaml:"is_collection"`
			Nullable     bool   `yaml:"nullable"`
		} `yaml:"properties"`
	} `yaml:"complex_types"`

	EntitySets []struct {
		Name                       string            `yaml:"name"`
		EntityType                 string            `yaml:"entity_type"`
		NavigationPropertyBindings map[string]string `yaml:"navigation_property_bindings"`
	} `yaml:"entity_sets"`

	Singletons []struct {
		Name       string `yaml:"name"`
		EntityType string `yaml:"entity_type"`
	} `yaml:"singletons"`

	DerivedTypeConstraints []struct {
		OwnerType string   `yaml:"owner_type"`
		Member    string   `yaml:"member"`
		Allowed   []string `yaml:"allowed"`
	} `yaml:"derived_type_constraints"`
}

// LoadDocument parses a YAML model document at path into an InMemoryModel.
// Entity and complex types must appear before anything that references them
// as a base type, same as CSDL's own forward-reference-free ordering.
func LoadDocument(path string) (*InMemoryModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("edm: reading %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("edm: parsing %s: %w", path, err)
	}

	b := NewBuilder()
	for _, et := range doc.EntityTypes {
		entityType := &EntityType{Name: et.Name, Keys: et.Keys, OpenType: et.OpenType}
		for _, p := range et.Properties {
			entityType.Properties = append(entityType.Properties, Property{
				Name:     p.Name,
				Type:     TypeRef{Name: p.Type, IsCollection: p.IsCollection},
				Nullable: p.Nullable,
			})
		}
		for _, np := range et.NavigationProperties {
			entityType.NavigationProperties = append(entityType.NavigationProperties, NavigationProperty{
				Name:           np.Name,
				Type:           TypeRef{Name: np.Type, IsCollection: np.IsCollection},
				Partner:        np.Partner,
				ContainsTarget: np.ContainsTarget,
			})
		}
		b.AddEntityType(entityType, et.BaseType)
	}
	for _, ct := range doc.ComplexTypes {
		complexType := &ComplexType{Name: ct.Name}
		for _, p := range ct.Properties {
			complexType.Properties = append(complexType.Properties, Property{
				Name:     p.Name,
				Type:     TypeRef{Name: p.Type, IsCollection: p.IsCollection},
				Nullable: p.Nullable,
			})
		}
		b.AddComplexType(complexType, ct.BaseType)
	}
	for _, es := range doc.EntitySets {
		entityType, ok := b.model.entityTypes[es.EntityType]
		if !ok {
			return nil, fmt.Errorf("edm: entity set %s: unknown entity type %s", es.Name, es.EntityType)
		}
		b.AddEntitySet(&EntitySet{
			Name:                       es.Name,
			EntityType:                 entityType,
			NavigationPropertyBindings: es.NavigationPropertyBindings,
		})
	}
	for _, s := range doc.Singletons {
		entityType, ok := b.model.entityTypes[s.EntityType]
		if !ok {
			return nil, fmt.Errorf("edm: singleton %s: unknown entity type %s", s.Name, s.EntityType)
		}
		b.AddSingleton(&Singleton{Name: s.Name, EntityType: entityType})
	}
	for _, c := range doc.DerivedTypeConstraints {
		b.AddDerivedTypeConstraint(c.OwnerType, c.Member, c.Allowed...)
	}
	return b.Build(), nil
}
