// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package writer

import (
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"
)

// boundContext is the outcome of resolving a scope's navigation source, item
// type, and effective resource type, per the type-resolution rules applied
// on every push: a declared type name, when present, must be assignable to
// the contextually expected type and must satisfy any derived-type
// constraint in force at that position; an absent declared type name falls
// back to the expected type unchanged.
type boundContext struct {
	NavigationSource string
	ItemTypeName     string
	ResourceTypeName string
	Constraints      []string
}

// resolveRoot resolves the writer's top-level navigation source: an entity
// set or a singleton, named navigationSourceName. itemTypeNameHint lets a
// caller bind to a derived entity type at the root when the set itself is
// declared with a base type.
func resolveRoot(model edm.Model, navigationSourceName, itemTypeNameHint string) (boundContext, error) {
	if es, ok := model.FindEntitySet(navigationSourceName); ok {
		itemType := es.EntityType.Name
		resourceType := itemType
		if itemTypeNameHint != "" {
			resourceType = itemTypeNameHint
		}
		constraints, _ := model.DerivedTypeConstraints(navigationSourceName, "")
		if err := checkAssignable(model, itemType, resourceType, constraints); err != nil {
			return boundContext{}, err
		}
		return boundContext{NavigationSource: navigationSourceName, ItemTypeName: itemType, ResourceTypeName: resourceType, Constraints: constraints}, nil
	}
	if s, ok := model.FindSingleton(navigationSourceName); ok {
		itemType := s.EntityType.Name
		resourceType := itemType
		if itemTypeNameHint != "" {
			resourceType = itemTypeNameHint
		}
		constraints, _ := model.DerivedTypeConstraints(navigationSourceName, "")
		if err := checkAssignable(model, itemType, resourceType, constraints); err != nil {
			return boundContext{}, err
		}
		return boundContext{NavigationSource: navigationSourceName, ItemTypeName: itemType, ResourceTypeName: resourceType, Constraints: constraints}, nil
	}
	return boundContext{}, odataerrors.Newf(odataerrors.KindTypeNameNotFound, navigationSourceName)
}

// resolveNestedLink resolves the navigation source, item type, and
// constraint set a NestedResourceInfo named linkName binds to, given the
// enclosing resource's resolved type.
func resolveNestedLink(model edm.Model, parentNavSource, parentResourceType, linkName string) (boundContext, bool, error) {
	navProp, ok := model.FindNavigationProperty(parentResourceType, linkName)
	if !ok {
		// Not every declared link is a navigation property (it may be a
		// complex-typed structural property written as a nested resource
		// info). Structural properties are not resolved: the caller binds
		// the link with an empty navigation source, item type and
		// constraint set.
		return boundContext{}, false, nil
	}
	itemType, _ := model.ElementType(navProp.Type.Name)
	targetSource, hasBinding := model.NavigationTarget(parentNavSource, navProp)
	navSource := parentNavSource
	resetToRoot := false
	if hasBinding {
		navSource = targetSource
		resetToRoot = true
	}
	constraints, _ := model.DerivedTypeConstraints(parentResourceType, linkName)
	return boundContext{NavigationSource: navSource, ItemTypeName: itemType, ResourceTypeName: itemType, Constraints: constraints}, resetToRoot, nil
}

// resolveDeclaredType applies a caller-declared concrete type name (e.g.
// from ResourceInfo.TypeName) against an already-resolved expected item
// type and constraint set, per the assignability and derived-type-
// constraint checks every structured write performs.
func resolveDeclaredType(model edm.Model, expectedItemType, declaredTypeName string, constraints []string) (string, error) {
	resourceType := expectedItemType
	if declaredTypeName != "" {
		resourceType = declaredTypeName
	}
	if err := checkAssignable(model, expectedItemType, resourceType, constraints); err != nil {
		return "", err
	}
	return resourceType, nil
}

func checkAssignable(model edm.Model, expectedType, actualType string, constraints []string) error {
	if actualType != expectedType && !model.IsAssignableFrom(expectedType, actualType) {
		return odataerrors.Newf(odataerrors.KindIncompatibleResourceTypes, actualType, expectedType)
	}
	if len(constraints) == 0 {
		return nil
	}
	for _, allowed := range constraints {
		if allowed == actualType || model.IsAssignableFrom(allowed, actualType) {
			return nil
		}
	}
	return odataerrors.Newf(odataerrors.KindDerivedTypeConstraint, actualType)
}
