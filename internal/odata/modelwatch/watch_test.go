// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package modelwatch

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestNewLoadsInitialModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	calls := 0
	loader := func(p string) (*edm.InMemoryModel, error) {
		calls++
		return edm.NewBuilder().Build(), nil
	}
	w, err := New(path, loader, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NotNil(t, w.Model())
}

func TestReloadOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	reloaded := make(chan *edm.InMemoryModel, 1)
	loader := func(p string) (*edm.InMemoryModel, error) {
		b := edm.NewBuilder()
		raw, _ := os.ReadFile(p)
		b.AddEntityType(&edm.EntityType{Name: string(raw)}, "")
		return b.Build(), nil
	}
	w, err := New(path, loader, discardLogger())
	require.NoError(t, err)
	w.OnReload = func(m *edm.InMemoryModel) { reloaded <- m }
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case m := <-reloaded:
		_, ok := m.FindEntityType("v2")
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestLoadErrorReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	loader := func(p string) (*edm.InMemoryModel, error) {
		return nil, os.ErrNotExist
	}
	_, err := New(path, loader, discardLogger())
	assert.Error(t, err)
}
