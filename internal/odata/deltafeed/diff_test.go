// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package deltafeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffNoChanges(t *testing.T) {
	snapshot := "1\tContoso\n2\tFabrikam\n"
	changes, fd, err := Diff(snapshot, snapshot)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.NotNil(t, fd)
}

func TestDiffDetectsAddedAndRemoved(t *testing.T) {
	previous := "1\tContoso\n2\tFabrikam\n"
	current := "1\tContoso\n3\tWingtip\n"

	changes, fd, err := Diff(previous, current)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	var added, removed []Change
	for _, c := range changes {
		if c.Kind == Added {
			added = append(added, c)
		} else {
			removed = append(removed, c)
		}
	}
	require.Len(t, added, 1)
	require.Len(t, removed, 1)
	assert.Equal(t, "3", added[0].ID)
	assert.Equal(t, "2", removed[0].ID)
	assert.NotNil(t, fd)
}

func TestEntityIDWithoutTab(t *testing.T) {
	changes, _, err := Diff("", "no-tab-here\n")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "no-tab-here", changes[0].ID)
}
