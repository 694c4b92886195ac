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

// Selection is a node in the client-requested projection tree ($select /
// $expand), mirroring the resource shape one nesting level at a time. A nil
// Selection means "everything is selected" (no projection was requested).
type Selection struct {
	// AllSelected is true when this node (and everything below it, absent a
	// more specific child entry) should be written.
	AllSelected bool
	// Children maps a link (navigation or structural property) name to the
	// sub-tree describing what is selected below it.
	Children map[string]*Selection
}

// Descend returns the selection sub-tree reached by following linkName, and
// whether that link is selected at all. A nil receiver (no projection in
// effect) always selects everything.
func (s *Selection) Descend(linkName string) (*Selection, bool) {
	if s == nil {
		return nil, true
	}
	if child, ok := s.Children[linkName]; ok {
		return child, true
	}
	return nil, s.AllSelected
}
