// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import "github.com/AntiGuideAkquinet/odata.net/internal/odata/path"

// ResourceInfo is the payload item carried by a Resource or DeletedResource
// scope: the caller-supplied fields the back-end needs to emit the resource.
type ResourceInfo struct {
	TypeName            string // caller-declared concrete type, "" if inherited from context
	ID                  string // OData "Id" (edit link), used for delta identity
	Properties          map[string]any
	SerializationInfo   *SerializationInfo
	IsTransientDeleted  bool   // DeletedResource reason: "deleted" vs "changed"
	ETag                string
}

// SerializationInfo carries legacy, best-effort hints about navigation
// source and expected type, parsed from a relative URI when present.
// Resolution failures here are swallowed, per spec.md's documented legacy
// compatibility note — never promoted to a fatal error.
type SerializationInfo struct {
	NavigationSourceName       string
	NavigationSourceEntityType string
	ExpectedTypeName           string
}

// ResourceSetInfo is the payload item carried by a ResourceSet or
// DeltaResourceSet scope.
type ResourceSetInfo struct {
	TypeName     string // declared element type name, "" if untyped
	Count        *int64
	NextPageLink string
	DeltaLink    string
}

// NestedLinkInfo is the payload item carried by a NestedResourceInfo or
// NestedResourceInfoWithContent scope.
type NestedLinkInfo struct {
	Name         string
	IsCollection bool
	Url          string
}

// PropertyInfo is the payload item carried by a Property scope.
type PropertyInfo struct {
	Name string
}

// PrimitiveInfo is the payload item carried by a transient Primitive scope.
type PrimitiveInfo struct {
	Value any
}

// DuplicateChecker tracks which property and annotation names have already
// been written on the enclosing resource, so a second write to the same
// name (outside of complex-typed links, handled at property granularity) is
// caught before it reaches the back-end.
type DuplicateChecker struct {
	seenProperties  map[string]bool
	seenAnnotations map[string]bool
}

// NewDuplicateChecker returns an empty checker.
func NewDuplicateChecker() *DuplicateChecker {
	return &DuplicateChecker{seenProperties: map[string]bool{}, seenAnnotations: map[string]bool{}}
}

// MarkProperty records name as written and reports whether it was already
// present.
func (c *DuplicateChecker) MarkProperty(name string) (alreadyWritten bool) {
	if c.seenProperties[name] {
		return true
	}
	c.seenProperties[name] = true
	return false
}

// MarkAnnotation records an annotation name (e.g. "Nav@odata.type") and
// reports whether it was already present.
func (c *DuplicateChecker) MarkAnnotation(name string) (alreadyWritten bool) {
	if c.seenAnnotations[name] {
		return true
	}
	c.seenAnnotations[name] = true
	return false
}

// ResourceSetValidator enforces that every resource written into one
// resource set resolves to the same element type (spec.md invariant 4, in
// its stronger "exactly one type observed" form used by untyped sets that
// still want internal consistency once a first type is seen).
type ResourceSetValidator struct {
	observedTypeName string
}

// Observe records typeName as the type of a resource written into the set
// and reports whether it matches every resource observed so far.
func (v *ResourceSetValidator) Observe(typeName string) bool {
	if v.observedTypeName == "" {
		v.observedTypeName = typeName
		return true
	}
	return v.observedTypeName == typeName
}

// Scope is one entry on the writer's nesting stack. It is a single tagged
// struct rather than a family of interface implementations: every field
// below is owned by exactly one or two State values (noted per field), the
// stack stores Scopes by value in a slice, and the engine is single
// threaded, so no interior locking is needed for the mutable fields.
type Scope struct {
	State State

	// Payload items. Exactly one of these (or none, for Start/Completed
	// scopes) is meaningful for a given State; a Property scope carries
	// PropertyTag.
	Resource    *ResourceInfo
	ResourceSet *ResourceSetInfo
	NestedLink  *NestedLinkInfo
	PropertyTag *PropertyInfo
	Primitive   *PrimitiveInfo

	// Bound context, computed by the type resolver on push (spec.md §4.4).
	NavigationSource        string
	ItemTypeName            string // the item's declared type, structured or primitive
	ResourceTypeName        string // concrete resolved resource type, when structured
	ResourceTypeFromMeta    string // Resource/DeletedResource only: declared type at the enclosing scope
	DerivedTypeConstraints  []string
	Path                    *path.Path
	Selected                *Selection
	SkipWriting             bool
	EnableDelta             bool

	// Resource/DeletedResource only.
	Duplicates   *DuplicateChecker
	TypeContext  string // cached formatted "NavigationSource/ResourceType" for hooks that want it

	// ResourceSet/DeltaResourceSet only.
	ResourceCount int
	SetValidator  *ResourceSetValidator

	// NestedResourceInfo/NestedResourceInfoWithContent only: index into the
	// stack slice of the resource scope that owns this link, used to clone
	// state on promotion (spec.md §9 design note: index, not pointer, to
	// avoid dangling references across stack mutation).
	OwnerResourceIndex int

	// Property only.
	ValueWritten bool

	// Stream/String only: set true once the sub-writer signals disposal.
	SubWriterDisposed bool
}

// IsStructured reports whether the scope's resource type denotes a
// structured (entity or complex) type rather than a primitive.
func (s *Scope) IsStructured() bool {
	return s.ResourceTypeName != ""
}
