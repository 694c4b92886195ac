// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package path builds and mirrors the OData resource path as the writer
// descends through nested scopes: entity-set/singleton roots, key segments,
// type casts, structural and navigation property segments, and the
// containment-navigation reset rule for contained entity sets.
package path

import (
	"fmt"
	"strings"
)

// SegmentKind discriminates the handful of segment shapes a writer-composed
// path can contain. Query-option segments ($select, $expand, ...) are out of
// scope; the engine only appends segments, never parses a caller-supplied
// URI beyond key-segment construction.
type SegmentKind int

const (
	SegmentRoot SegmentKind = iota
	SegmentKey
	SegmentTypeCast
	SegmentProperty
	SegmentNavigation
)

// Segment is one element of a composed path.
type Segment struct {
	Kind  SegmentKind
	Value string // entity-set/singleton name, key literal, type name, or property name
}

// Path is an ordered, immutable-once-built sequence of segments; its first
// segment names the navigation source it is rooted at. Each push operation
// on the scope stack produces a new Path derived from its parent's.
type Path struct {
	Segments []Segment
}

// Empty reports whether the path carries no segments yet (the Start scope).
func (p *Path) Empty() bool {
	return p == nil || len(p.Segments) == 0
}

// Root returns a new Path naming an entity-set or singleton root.
func Root(navigationSourceName string) *Path {
	return &Path{Segments: []Segment{{Kind: SegmentRoot, Value: navigationSourceName}}}
}

// WithKey appends a key segment built from an ordered list of key/value
// pairs (already formatted as OData key literals by the caller).
func (p *Path) WithKey(keyLiteral string) *Path {
	return p.append(Segment{Kind: SegmentKey, Value: keyLiteral})
}

// WithTypeCast appends a type-cast segment for typeName.
func (p *Path) WithTypeCast(typeName string) *Path {
	return p.append(Segment{Kind: SegmentTypeCast, Value: typeName})
}

// WithProperty appends a structural property segment.
func (p *Path) WithProperty(name string) *Path {
	return p.append(Segment{Kind: SegmentProperty, Value: name})
}

// WithNavigation appends a navigation-property segment.
func (p *Path) WithNavigation(name string) *Path {
	return p.append(Segment{Kind: SegmentNavigation, Value: name})
}

// ResetToRoot returns a fresh root path, used when a navigation targets an
// entity set or singleton (the path no longer descends from the prior
// resource, per the entity-set/singleton navigation reset rule).
func ResetToRoot(navigationSourceName string) *Path {
	return Root(navigationSourceName)
}

func (p *Path) append(seg Segment) *Path {
	base := p
	if base == nil {
		base = &Path{}
	}
	out := make([]Segment, len(base.Segments), len(base.Segments)+1)
	copy(out, base.Segments)
	out = append(out, seg)
	return &Path{Segments: out}
}

// String renders the path in OData URI style, e.g. Customers(1)/Orders(10).
func (p *Path) String() string {
	if p.Empty() {
		return ""
	}
	var b strings.Builder
	for _, seg := range p.Segments {
		switch seg.Kind {
		case SegmentRoot:
			b.WriteString(seg.Value)
		case SegmentKey:
			fmt.Fprintf(&b, "(%s)", seg.Value)
		case SegmentTypeCast:
			b.WriteString("/")
			b.WriteString(seg.Value)
		case SegmentProperty, SegmentNavigation:
			b.WriteString("/")
			b.WriteString(seg.Value)
		}
	}
	return b.String()
}
