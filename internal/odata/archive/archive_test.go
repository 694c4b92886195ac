// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingCredentialsFile(t *testing.T) {
	_, err := Open(context.Background(), "bucket", "prefix/", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOpenRejectsMalformedCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := Open(context.Background(), "bucket", "prefix/", path)
	assert.Error(t, err)
}

func TestTimeoutContextBoundsDuration(t *testing.T) {
	ctx, cancel := timeoutContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), deadline, 2*time.Second)
}

func TestReadFileBytesSurfacesUnderlyingError(t *testing.T) {
	_, err := readFileBytes(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
