// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package deltafeed helps a $delta live feed decide what changed between
// two snapshots of a resource set's canonical JSON representation. Each
// snapshot is one entity per line, keyed by the entity's id up to the first
// tab; the line-level delta is rendered as a unified diff and parsed back
// with go-diff into a structured representation of what changed.
package deltafeed

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ChangeKind classifies one line-level change between two snapshots.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
)

// Change is one line that differs between the previous and current
// snapshot, identified by its entity id.
type Change struct {
	Kind ChangeKind
	ID   string
	Line string
}

// Diff compares two newline-delimited, one-entity-id-per-line snapshots,
// returning the added/removed lines and the unified-diff FileDiff go-diff
// parsed them back out of.
func Diff(previous, current string) ([]Change, *diff.FileDiff, error) {
	changes := lineChanges(previous, current)
	unified := renderUnified(changes)
	fd, err := diff.ParseFileDiff([]byte(unified))
	if err != nil {
		return nil, nil, fmt.Errorf("deltafeed: parsing rendered diff: %w", err)
	}
	return changes, fd, nil
}

func lineChanges(previous, current string) []Change {
	prevLines := splitNonEmpty(previous)
	curLines := splitNonEmpty(current)
	prevSet := toSet(prevLines)
	curSet := toSet(curLines)

	var changes []Change
	for _, line := range curLines {
		if !prevSet[line] {
			changes = append(changes, Change{Kind: Added, ID: entityID(line), Line: line})
		}
	}
	for _, line := range prevLines {
		if !curSet[line] {
			changes = append(changes, Change{Kind: Removed, ID: entityID(line), Line: line})
		}
	}
	return changes
}

// renderUnified builds a minimal, syntactically valid single-hunk unified
// diff from changes, suitable for diff.ParseFileDiff to round-trip.
func renderUnified(changes []Change) string {
	var b strings.Builder
	b.WriteString("--- a/snapshot\n")
	b.WriteString("+++ b/snapshot\n")
	added, removed := 0, 0
	for _, c := range changes {
		if c.Kind == Added {
			added++
		} else {
			removed++
		}
	}
	fmt.Fprintf(&b, "@@ -0,%d +0,%d @@\n", removed, added)
	for _, c := range changes {
		if c.Kind == Removed {
			b.WriteString("-" + c.Line + "\n")
		} else {
			b.WriteString("+" + c.Line + "\n")
		}
	}
	return b.String()
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func toSet(lines []string) map[string]bool {
	set := make(map[string]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	return set
}

func entityID(line string) string {
	if idx := strings.IndexByte(line, '\t'); idx >= 0 {
		return line[:idx]
	}
	return line
}
