// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesNestingDepthDefault(t *testing.T) {
	modelPath := writeConfig(t, "placeholder model file")
	path := writeConfig(t, `
listen_addr: "127.0.0.1:8080"
model_path: "`+modelPath+`"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxResourceNestingDepth)
}

func TestLoadRejectsMissingListenAddr(t *testing.T) {
	modelPath := writeConfig(t, "placeholder model file")
	path := writeConfig(t, `
model_path: "`+modelPath+`"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnreadableModelPath(t *testing.T) {
	path := writeConfig(t, `
listen_addr: "127.0.0.1:8080"
model_path: "/nonexistent/model.yaml"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
