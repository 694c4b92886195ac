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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_ParentAndGrandparentAreNilWhenShallow(t *testing.T) {
	s := NewStack(Scope{State: Start})
	assert.Nil(t, s.Parent())
	assert.Nil(t, s.Grandparent())

	s.Push(Scope{State: ResourceSet})
	require.NotNil(t, s.Parent())
	assert.Equal(t, Start, s.Parent().State)
	assert.Nil(t, s.Grandparent())

	s.Push(Scope{State: Resource})
	require.NotNil(t, s.Grandparent())
	assert.Equal(t, Start, s.Grandparent().State)
}

func TestStack_PushPopRoundTrip(t *testing.T) {
	s := NewStack(Scope{State: Start})
	s.Push(Scope{State: Resource})
	assert.Equal(t, 2, s.Depth())
	popped := s.Pop()
	assert.Equal(t, Resource, popped.State)
	assert.Equal(t, 1, s.Depth())
}

func TestStack_ReplaceRootWithCompleted(t *testing.T) {
	s := NewStack(Scope{State: Start})
	s.ReplaceRootWithCompleted()
	assert.Equal(t, Completed, s.Top().State)
}

func TestStack_ResourceNestingDepthCountsOnlyResourceScopes(t *testing.T) {
	s := NewStack(Scope{State: Start})
	s.Push(Scope{State: ResourceSet})
	s.Push(Scope{State: Resource})
	s.Push(Scope{State: NestedResourceInfo})
	s.Push(Scope{State: NestedResourceInfoWithContent})
	s.Push(Scope{State: Resource})
	assert.Equal(t, 2, s.ResourceNestingDepth())
}

func TestStack_IsTopLevelAtDepthTwo(t *testing.T) {
	s := NewStack(Scope{State: Start})
	assert.False(t, s.IsTopLevel())
	s.Push(Scope{State: Resource})
	assert.True(t, s.IsTopLevel())
	s.Push(Scope{State: Property})
	assert.False(t, s.IsTopLevel())
}
