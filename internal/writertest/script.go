// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package writertest provides a recording fake writer.Hooks back-end and a
// shared sample model, so tests can assert on the sequence of hook
// invocations a scenario produces without standing up odatajson or an HTTP
// server.
package writertest

import (
	"context"
	"io"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/writer"
)

var _ writer.Hooks = (*Recorder)(nil)

// Event is one recorded call into the fake Hooks implementation.
type Event struct {
	Name string
	Type string // the scope's resolved ResourceTypeName, when applicable
	Link string // the nested link name, when applicable
	URL  string
}

// Recorder is a writer.Hooks implementation that records every call it
// receives and otherwise succeeds unconditionally. Tests assert against its
// Events slice after driving a Writer.
type Recorder struct {
	Events []Event
	// Fail, when non-nil, is consulted before each hook call by name; a
	// non-nil return short-circuits the call and is what the writer sees,
	// used to test the exception interceptor.
	Fail func(hookName string) error
}

func (r *Recorder) record(name string, e Event) error {
	if r.Fail != nil {
		if err := r.Fail(name); err != nil {
			return err
		}
	}
	e.Name = name
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) StartPayload(ctx context.Context) error { return r.record("StartPayload", Event{}) }
func (r *Recorder) EndPayload(ctx context.Context) error   { return r.record("EndPayload", Event{}) }

func (r *Recorder) StartResource(ctx context.Context, sc *state.Scope) error {
	return r.record("StartResource", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) EndResource(ctx context.Context, sc *state.Scope) error {
	return r.record("EndResource", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) StartDeletedResource(ctx context.Context, sc *state.Scope) error {
	return r.record("StartDeletedResource", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) EndDeletedResource(ctx context.Context, sc *state.Scope) error {
	return r.record("EndDeletedResource", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) StartResourceSet(ctx context.Context, sc *state.Scope) error {
	return r.record("StartResourceSet", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) EndResourceSet(ctx context.Context, sc *state.Scope) error {
	return r.record("EndResourceSet", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) StartDeltaResourceSet(ctx context.Context, sc *state.Scope) error {
	return r.record("StartDeltaResourceSet", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) EndDeltaResourceSet(ctx context.Context, sc *state.Scope) error {
	return r.record("EndDeltaResourceSet", Event{Type: sc.ResourceTypeName})
}
func (r *Recorder) StartProperty(ctx context.Context, sc *state.Scope) error {
	return r.record("StartProperty", Event{Link: sc.PropertyTag.Name})
}
func (r *Recorder) EndProperty(ctx context.Context, sc *state.Scope) error {
	return r.record("EndProperty", Event{Link: sc.PropertyTag.Name})
}
func (r *Recorder) StartNestedResourceInfoWithContent(ctx context.Context, sc *state.Scope) error {
	return r.record("StartNestedResourceInfoWithContent", Event{Link: sc.NestedLink.Name})
}
func (r *Recorder) EndNestedResourceInfoWithContent(ctx context.Context, sc *state.Scope) error {
	return r.record("EndNestedResourceInfoWithContent", Event{Link: sc.NestedLink.Name})
}
func (r *Recorder) WriteDeferredNestedResourceInfo(ctx context.Context, sc *state.Scope) error {
	return r.record("WriteDeferredNestedResourceInfo", Event{Link: sc.NestedLink.Name, URL: sc.NestedLink.Url})
}
func (r *Recorder) WriteEntityReferenceLink(ctx context.Context, sc *state.Scope, url string) error {
	return r.record("WriteEntityReferenceLink", Event{URL: url})
}
func (r *Recorder) WritePrimitiveValue(ctx context.Context, sc *state.Scope, value any) error {
	return r.record("WritePrimitiveValue", Event{})
}
func (r *Recorder) StartBinaryStream(ctx context.Context, sc *state.Scope) (io.WriteCloser, error) {
	if err := r.record("StartBinaryStream", Event{}); err != nil {
		return nil, err
	}
	return nopWriteCloser{}, nil
}
func (r *Recorder) StartTextWriter(ctx context.Context, sc *state.Scope) (io.WriteCloser, error) {
	if err := r.record("StartTextWriter", Event{}); err != nil {
		return nil, err
	}
	return nopWriteCloser{}, nil
}
func (r *Recorder) WriteDeltaLink(ctx context.Context, sc *state.Scope, kind state.State, url string) error {
	return r.record("WriteDeltaLink", Event{URL: url})
}
func (r *Recorder) Flush(ctx context.Context) error { return r.record("Flush", Event{}) }
func (r *Recorder) PrepareResourceForWrite(ctx context.Context, sc *state.Scope) error {
	return r.record("PrepareResourceForWrite", Event{})
}
func (r *Recorder) PrepareDeletedResourceForWrite(ctx context.Context, sc *state.Scope) error {
	return r.record("PrepareDeletedResourceForWrite", Event{})
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }

// Names returns the Name field of every recorded event, the shape most
// tests assert against.
func (r *Recorder) Names() []string {
	names := make([]string, len(r.Events))
	for i, e := range r.Events {
		names[i] = e.Name
	}
	return names
}
