// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package odatajson implements writer.Hooks for minimal-metadata OData JSON,
// the wire format this service speaks to HTTP clients. It holds one open
// frame per nesting level and never buffers more than the
// currently open object or array in memory.
package odatajson

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/writer"
)

var _ writer.Hooks = (*Writer)(nil)

// frameKind distinguishes the two JSON container shapes a scope can open.
type frameKind int

const (
	frameObject frameKind = iota
	frameArray
)

type frame struct {
	kind        frameKind
	wroteFirst  bool
}

// Writer streams minimal-metadata OData JSON to an underlying io.Writer as
// the engine drives it through writer.Hooks.
type Writer struct {
	out      *bufio.Writer
	frames   []frame
	err      error
	contextURL string
}

// New returns a Writer that serializes to w. contextURL, when non-empty, is
// emitted as "@odata.context" on the outermost object or array.
func New(w io.Writer, contextURL string) *Writer {
	return &Writer{out: bufio.NewWriter(w), contextURL: contextURL}
}

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}

func (w *Writer) top() *frame {
	return &w.frames[len(w.frames)-1]
}

func (w *Writer) beforeValue() {
	if len(w.frames) == 0 {
		return
	}
	f := w.top()
	if f.kind == frameArray {
		if f.wroteFirst {
			w.out.WriteByte(',')
		}
		f.wroteFirst = true
	}
}

func (w *Writer) writeKey(name string) {
	w.beforeValue()
	f := w.top()
	if f.kind == frameObject {
		if f.wroteFirst {
			w.out.WriteByte(',')
		}
		f.wroteFirst = true
		w.out.WriteString(strconv.Quote(name))
		w.out.WriteByte(':')
	}
}

func (w *Writer) pushObject() {
	w.beforeValue()
	w.out.WriteByte('{')
	w.frames = append(w.frames, frame{kind: frameObject})
}

func (w *Writer) pushArray() {
	w.beforeValue()
	w.out.WriteByte('[')
	w.frames = append(w.frames, frame{kind: frameArray})
}

func (w *Writer) popObject() {
	w.out.WriteByte('}')
	w.frames = w.frames[:len(w.frames)-1]
}

func (w *Writer) popArray() {
	w.out.WriteByte(']')
	w.frames = w.frames[:len(w.frames)-1]
}

// StartPayload emits nothing itself; the root resource/resource-set frame
// opens the outermost JSON container.
func (w *Writer) StartPayload(ctx context.Context) error { return nil }

// EndPayload flushes the underlying writer.
func (w *Writer) EndPayload(ctx context.Context) error {
	w.out.Flush()
	return w.err
}

func (w *Writer) Flush(ctx context.Context) error {
	w.out.Flush()
	return w.err
}

func (w *Writer) StartResource(ctx context.Context, sc *state.Scope) error {
	w.writeKeyIfNested(sc)
	w.pushObject()
	if len(w.frames) == 1 && w.contextURL != "" {
		w.writeRawKeyString("@odata.context", w.contextURL)
	}
	if sc.ResourceTypeName != "" && sc.ResourceTypeName != sc.ItemTypeName {
		w.writeRawKeyString("@odata.type", "#"+sc.ResourceTypeName)
	}
	if sc.Resource != nil {
		for name, value := range sc.Resource.Properties {
			w.writeKey(name)
			w.writeJSONValue(value)
		}
	}
	return nil
}

func (w *Writer) EndResource(ctx context.Context, sc *state.Scope) error {
	w.popObject()
	return nil
}

func (w *Writer) StartDeletedResource(ctx context.Context, sc *state.Scope) error {
	w.writeKeyIfNested(sc)
	w.pushObject()
	reason := "deleted"
	if sc.Resource != nil && !sc.Resource.IsTransientDeleted {
		reason = "changed"
	}
	w.writeRawKeyString("@removed", reason)
	if sc.Resource != nil && sc.Resource.ID != "" {
		w.writeRawKeyString("id", sc.Resource.ID)
	}
	return nil
}

func (w *Writer) EndDeletedResource(ctx context.Context, sc *state.Scope) error {
	w.popObject()
	return nil
}

func (w *Writer) StartResourceSet(ctx context.Context, sc *state.Scope) error {
	w.writeKeyIfNestedSet(sc)
	if len(w.frames) == 0 {
		w.pushObject()
		if w.contextURL != "" {
			w.writeRawKeyString("@odata.context", w.contextURL)
		}
		if sc.ResourceSet != nil && sc.ResourceSet.Count != nil {
			w.writeKey("@odata.count")
			w.out.WriteString(strconv.FormatInt(*sc.ResourceSet.Count, 10))
		}
		w.writeKey("value")
	}
	w.pushArray()
	return nil
}

func (w *Writer) EndResourceSet(ctx context.Context, sc *state.Scope) error {
	w.popArray()
	if len(w.frames) == 1 {
		if sc.ResourceSet != nil && sc.ResourceSet.NextPageLink != "" {
			w.writeRawKeyString("@odata.nextLink", sc.ResourceSet.NextPageLink)
		}
		w.popObject()
	}
	return nil
}

func (w *Writer) StartDeltaResourceSet(ctx context.Context, sc *state.Scope) error {
	return w.StartResourceSet(ctx, sc)
}

func (w *Writer) EndDeltaResourceSet(ctx context.Context, sc *state.Scope) error {
	w.popArray()
	if len(w.frames) == 1 {
		if sc.ResourceSet != nil && sc.ResourceSet.DeltaLink != "" {
			w.writeRawKeyString("@odata.deltaLink", sc.ResourceSet.DeltaLink)
		}
		w.popObject()
	}
	return nil
}

func (w *Writer) StartProperty(ctx context.Context, sc *state.Scope) error {
	w.writeKey(sc.PropertyTag.Name)
	return nil
}

func (w *Writer) EndProperty(ctx context.Context, sc *state.Scope) error { return nil }

func (w *Writer) StartNestedResourceInfoWithContent(ctx context.Context, sc *state.Scope) error {
	return nil
}

func (w *Writer) EndNestedResourceInfoWithContent(ctx context.Context, sc *state.Scope) error {
	return nil
}

func (w *Writer) WriteDeferredNestedResourceInfo(ctx context.Context, sc *state.Scope) error {
	name := sc.NestedLink.Name
	w.writeKey(name + "@odata.navigationLink")
	w.writeRawString(sc.NestedLink.Url)
	return nil
}

func (w *Writer) WriteEntityReferenceLink(ctx context.Context, sc *state.Scope, url string) error {
	w.writeKeyIfNested(sc)
	w.pushObject()
	w.writeRawKeyString("@odata.id", url)
	w.popObject()
	return nil
}

func (w *Writer) WritePrimitiveValue(ctx context.Context, sc *state.Scope, value any) error {
	w.beforeValue()
	w.writeJSONValue(value)
	return nil
}

func (w *Writer) StartBinaryStream(ctx context.Context, sc *state.Scope) (io.WriteCloser, error) {
	return nil, fmt.Errorf("odatajson: binary streams are carried out of band via media-entity links, not inline")
}

func (w *Writer) StartTextWriter(ctx context.Context, sc *state.Scope) (io.WriteCloser, error) {
	return &inlineStringWriter{w: w}, nil
}

func (w *Writer) WriteDeltaLink(ctx context.Context, sc *state.Scope, kind state.State, url string) error {
	w.writeKeyIfNestedSet(sc)
	w.pushObject()
	if kind == state.DeltaLink {
		w.writeRawKeyString("@odata.context", url)
	} else {
		w.writeRawKeyString("@odata.removed", url)
	}
	w.popObject()
	return nil
}

func (w *Writer) PrepareResourceForWrite(ctx context.Context, sc *state.Scope) error { return nil }

func (w *Writer) PrepareDeletedResourceForWrite(ctx context.Context, sc *state.Scope) error {
	return nil
}

// writeKeyIfNested emits the link name the caller is about to write a
// resource into, when the enclosing scope is a nested resource info rather
// than a resource set.
func (w *Writer) writeKeyIfNested(sc *state.Scope) {
	if len(w.frames) == 0 {
		return
	}
	if w.top().kind == frameObject && sc.NestedLink != nil {
		w.writeKey(sc.NestedLink.Name)
	}
}

func (w *Writer) writeKeyIfNestedSet(sc *state.Scope) {
	w.writeKeyIfNested(sc)
}

func (w *Writer) writeRawKeyString(key, value string) {
	w.writeKey(key)
	w.writeRawString(value)
}

func (w *Writer) writeRawString(s string) {
	w.out.WriteString(strconv.Quote(s))
}

func (w *Writer) writeJSONValue(value any) {
	if value == nil {
		w.out.WriteString("null")
		return
	}
	switch v := value.(type) {
	case string:
		w.writeRawString(v)
	case bool:
		if v {
			w.out.WriteString("true")
		} else {
			w.out.WriteString("false")
		}
	case int:
		w.out.WriteString(strconv.Itoa(v))
	case int64:
		w.out.WriteString(strconv.FormatInt(v, 10))
	case float64:
		w.out.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		w.writeRawString(fmt.Sprint(v))
	}
}

// inlineStringWriter accumulates a $value string property body and emits it
// as a single JSON string token on Close, since JSON has no mid-stream
// string-append primitive the way XML text nodes do.
type inlineStringWriter struct {
	w   *Writer
	buf []byte
}

func (s *inlineStringWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *inlineStringWriter) Close() error {
	s.w.writeRawString(string(s.buf))
	return nil
}
