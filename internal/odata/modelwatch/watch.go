// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package modelwatch hot-reloads the EDM model document from disk: an
// fsnotify watcher on the model file triggers a reparse, and a successful
// reparse is published via an atomic pointer swap, so readers never see a
// half-built model. A ModelView reads the current snapshot on every call, so
// a writer holding one sees a reload even in the middle of a payload.
package modelwatch

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"
)

// Loader parses a model document at path into a Model.
type Loader func(path string) (*edm.InMemoryModel, error)

// Watcher holds the current model behind an atomic.Pointer and republishes
// it whenever the backing file changes.
type Watcher struct {
	path    string
	load    Loader
	current atomic.Pointer[edm.InMemoryModel]
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	// OnReload, when set, is called after each successful reload.
	OnReload func(*edm.InMemoryModel)
}

// New loads the model once, synchronously, then returns a Watcher primed
// with it. Call Start to begin watching for further changes.
func New(path string, load Loader, logger *slog.Logger) (*Watcher, error) {
	m, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("modelwatch: initial load of %s: %w", path, err)
	}
	w := &Watcher{path: path, load: load, logger: logger}
	w.current.Store(m)
	return w, nil
}

// Model returns the current model snapshot. Safe for concurrent use.
func (w *Watcher) Model() *edm.InMemoryModel {
	return w.current.Load()
}

// Start begins watching the model file for writes, reloading and
// atomically publishing a new snapshot on each one. A reload that fails to
// parse is logged and the previous snapshot is kept in place.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("modelwatch: creating watcher: %w", err)
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return fmt.Errorf("modelwatch: watching %s: %w", w.path, err)
	}
	w.watcher = fw
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			m, err := w.load(w.path)
			if err != nil {
				w.logger.Error("model reload failed", "path", w.path, "error", err)
				continue
			}
			w.current.Store(m)
			w.logger.Info("model reloaded", "path", w.path)
			if w.OnReload != nil {
				w.OnReload(m)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("model watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

// ModelView adapts a Watcher to edm.Model, dispatching every call to
// whichever snapshot is current at call time. A Writer built against a
// ModelView therefore always consults the latest reloaded model, not the one
// in effect when the writer was constructed.
type ModelView struct {
	*Watcher
}

func (v ModelView) FindEntitySet(name string) (*edm.EntitySet, bool) {
	return v.Model().FindEntitySet(name)
}

func (v ModelView) FindSingleton(name string) (*edm.Singleton, bool) {
	return v.Model().FindSingleton(name)
}

func (v ModelView) FindEntityType(name string) (*edm.EntityType, bool) {
	return v.Model().FindEntityType(name)
}

func (v ModelView) FindComplexType(name string) (*edm.ComplexType, bool) {
	return v.Model().FindComplexType(name)
}

func (v ModelView) FindProperty(structuredTypeName, propertyName string) (edm.Property, bool) {
	return v.Model().FindProperty(structuredTypeName, propertyName)
}

func (v ModelView) FindNavigationProperty(structuredTypeName, propertyName string) (edm.NavigationProperty, bool) {
	return v.Model().FindNavigationProperty(structuredTypeName, propertyName)
}

func (v ModelView) NavigationTarget(sourceName string, navProp edm.NavigationProperty) (string, bool) {
	return v.Model().NavigationTarget(sourceName, navProp)
}

func (v ModelView) ElementType(typeName string) (string, bool) {
	return v.Model().ElementType(typeName)
}

func (v ModelView) DerivedTypeConstraints(structuredTypeName, memberName string) ([]string, bool) {
	return v.Model().DerivedTypeConstraints(structuredTypeName, memberName)
}

func (v ModelView) IsAssignableFrom(baseTypeName, derivedTypeName string) bool {
	return v.Model().IsAssignableFrom(baseTypeName, derivedTypeName)
}

var _ edm.Model = ModelView{}
