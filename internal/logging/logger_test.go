// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutFilePath(t *testing.T) {
	logger, err := New(Config{Level: slog.LevelInfo})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewWithFilePathTeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: slog.LevelInfo, FilePath: path, JSON: true})
	require.NoError(t, err)
	logger.Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNewRejectsUnwritableFilePath(t *testing.T) {
	_, err := New(Config{FilePath: "/nonexistent/dir/out.log"})
	assert.Error(t, err)
}

func TestWithErrorIncludesKindAndRequestID(t *testing.T) {
	attrs := WithError("invalid-state-transition", "req-1", errors.New("boom"))
	assert.Contains(t, attrs, "error_kind")
	assert.Contains(t, attrs, "invalid-state-transition")
	assert.Contains(t, attrs, "req-1")
}
