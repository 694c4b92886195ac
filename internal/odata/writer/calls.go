// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package writer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/path"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
)

// StartResourceSet begins a resource set scope. Pass info.TypeName to
// declare an element type narrower than the context's expected item type.
func (w *Writer) StartResourceSet(ctx context.Context, info *state.ResourceSetInfo) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSetSync(ctx, info, state.ResourceSet) })
}

// StartResourceSetAsync is the asynchronous twin of StartResourceSet.
func (w *Writer) StartResourceSetAsync(ctx context.Context, info *state.ResourceSetInfo) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSetSync(ctx, info, state.ResourceSet) })
}

// StartDeltaResourceSet begins a delta resource set scope, the only kind
// that may contain DeletedResource children and delta links.
func (w *Writer) StartDeltaResourceSet(ctx context.Context, info *state.ResourceSetInfo) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSetSync(ctx, info, state.DeltaResourceSet) })
}

// StartDeltaResourceSetAsync is the asynchronous twin of StartDeltaResourceSet.
func (w *Writer) StartDeltaResourceSetAsync(ctx context.Context, info *state.ResourceSetInfo) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSetSync(ctx, info, state.DeltaResourceSet) })
}

func (w *Writer) startResourceSetSync(ctx context.Context, info *state.ResourceSetInfo, kind state.State) error {
	if w.opts.IsRequest {
		if info.Count != nil {
			return odataerrors.New0(odataerrors.KindCountInRequest)
		}
		if info.NextPageLink != "" {
			return odataerrors.New0(odataerrors.KindNextLinkInRequest)
		}
		if info.DeltaLink != "" {
			return odataerrors.New0(odataerrors.KindDeltaLinkInRequest)
		}
	}
	top, err := w.promoteIfNeeded(ctx)
	if err != nil {
		return err
	}
	if top.State == state.NestedResourceInfoWithContent && info.DeltaLink != "" {
		return odataerrors.New0(odataerrors.KindDeltaLinkOnExpandedSet)
	}
	if err := w.checkSingleItem(top); err != nil {
		return err
	}
	tctx := w.transitionContext(kind)
	if err := state.Validate(top.State, kind, tctx); err != nil {
		return err
	}
	resourceType, err := resolveDeclaredType(w.model, top.ItemTypeName, info.TypeName, top.DerivedTypeConstraints)
	if err != nil {
		return err
	}
	child := state.Scope{
		State:                  kind,
		ResourceSet:            info,
		NavigationSource:       top.NavigationSource,
		ItemTypeName:           top.ItemTypeName,
		ResourceTypeName:       resourceType,
		DerivedTypeConstraints: top.DerivedTypeConstraints,
		Path:                   top.Path,
		Selected:               top.Selected,
		EnableDelta:            kind == state.DeltaResourceSet,
		SetValidator:           &state.ResourceSetValidator{},
	}
	if kind == state.ResourceSet {
		if err := w.hooks.StartResourceSet(ctx, &child); err != nil {
			return err
		}
	} else {
		if err := w.hooks.StartDeltaResourceSet(ctx, &child); err != nil {
			return err
		}
	}
	w.markChildPushed(top)
	w.stack.Push(child)
	return nil
}

// StartResource begins a single entity or complex-typed resource scope.
func (w *Writer) StartResource(ctx context.Context, info *state.ResourceInfo) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSync(ctx, info, false) })
}

// StartResourceAsync is the asynchronous twin of StartResource.
func (w *Writer) StartResourceAsync(ctx context.Context, info *state.ResourceInfo) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSync(ctx, info, false) })
}

// StartDeletedResource begins a deleted-resource scope, legal directly inside
// a delta resource set, as the top-level item of a writer created for a
// single resource, or, from OData 4.01 on, inside a nested resource info with
// content.
func (w *Writer) StartDeletedResource(ctx context.Context, info *state.ResourceInfo) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSync(ctx, info, true) })
}

// StartDeletedResourceAsync is the asynchronous twin of StartDeletedResource.
func (w *Writer) StartDeletedResourceAsync(ctx context.Context, info *state.ResourceInfo) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startResourceSync(ctx, info, true) })
}

func (w *Writer) startResourceSync(ctx context.Context, info *state.ResourceInfo, deleted bool) error {
	top, err := w.promoteIfNeeded(ctx)
	if err != nil {
		return err
	}
	kind := state.Resource
	if deleted {
		kind = state.DeletedResource
	}
	tctx := w.transitionContext(kind)
	if err := state.Validate(top.State, kind, tctx); err != nil {
		return err
	}
	if err := w.checkSingleItem(top); err != nil {
		return err
	}
	if err := w.checkNestingDepth(); err != nil {
		return err
	}
	if top.ResourceSet != nil && !top.SetValidator.Observe(info.TypeName) {
		return odataerrors.Newf(odataerrors.KindIncompatibleResourceTypes, info.TypeName, top.ItemTypeName)
	}
	resourceType, err := resolveDeclaredType(w.model, top.ItemTypeName, info.TypeName, top.DerivedTypeConstraints)
	if err != nil {
		return err
	}
	if deleted && top.State == state.DeltaResourceSet {
		if err := w.checkDeltaResourceKey(resourceType, info); err != nil {
			return err
		}
	}
	childPath := top.Path
	if resourceType != top.ItemTypeName {
		childPath = childPath.WithTypeCast(resourceType)
	}
	if literal, ok := formatKeyLiteral(w.model, resourceType, info.Properties); ok {
		childPath = childPath.WithKey(literal)
	}
	child := state.Scope{
		State:                  kind,
		Resource:               info,
		NavigationSource:       top.NavigationSource,
		ItemTypeName:           top.ItemTypeName,
		ResourceTypeName:       resourceType,
		DerivedTypeConstraints: top.DerivedTypeConstraints,
		Path:                   childPath,
		Selected:               top.Selected,
		Duplicates:             state.NewDuplicateChecker(),
	}
	if deleted {
		if err := w.hooks.PrepareDeletedResourceForWrite(ctx, &child); err != nil {
			return err
		}
		if err := w.hooks.StartDeletedResource(ctx, &child); err != nil {
			return err
		}
	} else {
		if err := w.hooks.PrepareResourceForWrite(ctx, &child); err != nil {
			return err
		}
		if err := w.hooks.StartResource(ctx, &child); err != nil {
			return err
		}
	}
	w.markChildPushed(top)
	w.stack.Push(child)
	return nil
}

// checkDeltaResourceKey enforces that a deleted resource directly inside a
// delta resource set carries an identity: either the legacy ID field, or
// every key property its resolved entity type declares. When the model has
// no key information for resourceType, it falls back to requiring any
// identifying data at all.
func (w *Writer) checkDeltaResourceKey(resourceType string, info *state.ResourceInfo) error {
	if info.ID != "" {
		return nil
	}
	et, ok := w.model.FindEntityType(resourceType)
	if !ok || len(et.Keys) == 0 {
		if len(info.Properties) == 0 {
			return odataerrors.New0(odataerrors.KindDeltaResourceWithoutIDOrKey)
		}
		return nil
	}
	for _, key := range et.Keys {
		if _, ok := info.Properties[key]; !ok {
			return odataerrors.New0(odataerrors.KindDeltaResourceWithoutIDOrKey)
		}
	}
	return nil
}

// formatKeyLiteral builds the OData key-literal segment for resourceType
// from properties, using the model's declared key properties. It returns
// false when the type has no declared keys or any key property is absent,
// in which case the caller leaves the path without a key segment.
func formatKeyLiteral(model edm.Model, resourceType string, properties map[string]any) (string, bool) {
	et, ok := model.FindEntityType(resourceType)
	if !ok || len(et.Keys) == 0 {
		return "", false
	}
	named := len(et.Keys) > 1
	parts := make([]string, 0, len(et.Keys))
	for _, key := range et.Keys {
		v, ok := properties[key]
		if !ok {
			return "", false
		}
		lit := formatKeyValue(v)
		if named {
			lit = fmt.Sprintf("%s=%s", key, lit)
		}
		parts = append(parts, lit)
	}
	return strings.Join(parts, ","), true
}

// formatKeyValue renders a single key value as an OData key literal.
// Strings are single-quoted per URI key-literal syntax; everything else
// uses its default formatting (numbers, bools, and the common other
// primitive key types all round-trip through %v correctly).
func formatKeyValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("'%s'", s)
	}
	return fmt.Sprintf("%v", v)
}

// StartNestedResourceInfo begins a navigation or complex-property link
// scope, legal only directly inside a Resource or DeletedResource. Ending
// the scope without ever pushing content through it writes a deferred link;
// pushing a Resource, ResourceSet, DeltaResourceSet, or primitive through it
// first promotes it to a nested resource info with content.
func (w *Writer) StartNestedResourceInfo(ctx context.Context, link *state.NestedLinkInfo) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startNestedResourceInfoSync(ctx, link) })
}

// StartNestedResourceInfoAsync is the asynchronous twin of StartNestedResourceInfo.
func (w *Writer) StartNestedResourceInfoAsync(ctx context.Context, link *state.NestedLinkInfo) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startNestedResourceInfoSync(ctx, link) })
}

func (w *Writer) startNestedResourceInfoSync(ctx context.Context, link *state.NestedLinkInfo) error {
	top := w.stack.Top()
	if !state.IsResourceOrDeleted(top.State) {
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, top.State, state.NestedResourceInfo)
	}
	if err := state.Validate(top.State, state.NestedResourceInfo, w.transitionContext(state.NestedResourceInfo)); err != nil {
		return err
	}
	if top.Duplicates.MarkProperty(link.Name) {
		return odataerrors.Newf(odataerrors.KindPropertyValueWritten, link.Name)
	}
	ownerIndex := w.stack.Depth() - 1
	bound, resetToRoot, err := resolveNestedLink(w.model, top.NavigationSource, top.ResourceTypeName, link.Name)
	if err != nil {
		return err
	}
	childPath := top.Path
	if resetToRoot {
		childPath = path.ResetToRoot(bound.NavigationSource)
	} else {
		childPath = childPath.WithNavigation(link.Name)
	}
	selected, _ := top.Selected.Descend(link.Name)
	child := state.Scope{
		State:                  state.NestedResourceInfo,
		NestedLink:             link,
		NavigationSource:       bound.NavigationSource,
		ItemTypeName:           bound.ItemTypeName,
		ResourceTypeName:       bound.ItemTypeName,
		DerivedTypeConstraints: bound.Constraints,
		Path:                   childPath,
		Selected:               selected,
		OwnerResourceIndex:     ownerIndex,
	}
	w.stack.Push(child)
	return nil
}

// promoteIfNeeded turns a deferred NestedResourceInfo into one with content
// on first use. It returns the (possibly just-promoted) top scope; the
// single-item rule for non-collection links is left to checkSingleItem.
func (w *Writer) promoteIfNeeded(ctx context.Context) (*state.Scope, error) {
	top := w.stack.Top()
	if top.State == state.NestedResourceInfo {
		tctx := w.transitionContext(state.NestedResourceInfoWithContent)
		if err := state.Validate(top.State, state.NestedResourceInfoWithContent, tctx); err != nil {
			return nil, err
		}
		if err := w.hooks.StartNestedResourceInfoWithContent(ctx, top); err != nil {
			return nil, err
		}
		top.State = state.NestedResourceInfoWithContent
	}
	return top, nil
}

func (w *Writer) markChildPushed(scopeAboutToGainAChild *state.Scope) {
	if scopeAboutToGainAChild.State == state.NestedResourceInfoWithContent {
		if !scopeAboutToGainAChild.NestedLink.IsCollection && scopeAboutToGainAChild.ResourceCount >= 1 {
			return // caller already validated via checkSingleItem before calling this
		}
		scopeAboutToGainAChild.ResourceCount++
	}
}

func (w *Writer) checkSingleItem(top *state.Scope) error {
	if top.State == state.NestedResourceInfoWithContent && !top.NestedLink.IsCollection && top.ResourceCount >= 1 {
		return odataerrors.Newf(odataerrors.KindMultipleItemsInSingleLink, top.NestedLink.Name)
	}
	return nil
}

// StartProperty begins a top-level (non-structural-nested) property scope,
// whose value is supplied by one of WritePrimitiveValue, CreateBinaryWriteStream,
// or CreateTextWriter.
func (w *Writer) StartProperty(ctx context.Context, info *state.PropertyInfo) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startPropertySync(ctx, info) })
}

// StartPropertyAsync is the asynchronous twin of StartProperty.
func (w *Writer) StartPropertyAsync(ctx context.Context, info *state.PropertyInfo) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.startPropertySync(ctx, info) })
}

func (w *Writer) startPropertySync(ctx context.Context, info *state.PropertyInfo) error {
	top := w.stack.Top()
	if !state.IsResourceOrDeleted(top.State) {
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, top.State, state.Property)
	}
	if top.Duplicates.MarkProperty(info.Name) {
		return odataerrors.Newf(odataerrors.KindPropertyValueWritten, info.Name)
	}
	child := state.Scope{
		State:       state.Property,
		PropertyTag: info,
		Path:        top.Path.WithProperty(info.Name),
	}
	if err := w.hooks.StartProperty(ctx, &child); err != nil {
		return err
	}
	w.stack.Push(child)
	return nil
}

// WritePrimitiveValue writes a primitive (or null) value into the currently
// open Property scope, as an element of an untyped resource set, or as
// content of a nested resource info (promoting it to one with content).
func (w *Writer) WritePrimitiveValue(ctx context.Context, value any) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writePrimitiveSync(ctx, value) })
}

// WritePrimitiveValueAsync is the asynchronous twin of WritePrimitiveValue.
func (w *Writer) WritePrimitiveValueAsync(ctx context.Context, value any) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writePrimitiveSync(ctx, value) })
}

func (w *Writer) writePrimitiveSync(ctx context.Context, value any) error {
	top, err := w.promoteIfNeeded(ctx)
	if err != nil {
		return err
	}
	switch top.State {
	case state.Property:
		if top.ValueWritten {
			return odataerrors.Newf(odataerrors.KindPropertyValueWritten, top.PropertyTag.Name)
		}
		if err := w.hooks.WritePrimitiveValue(ctx, top, value); err != nil {
			return err
		}
		top.ValueWritten = true
		return nil
	case state.NestedResourceInfoWithContent, state.ResourceSet:
		if err := state.Validate(top.State, state.Primitive, w.transitionContext(state.Primitive)); err != nil {
			return err
		}
		if err := w.checkSingleItem(top); err != nil {
			return err
		}
		if err := w.hooks.WritePrimitiveValue(ctx, top, value); err != nil {
			return err
		}
		w.markChildPushed(top)
		return nil
	default:
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, top.State, state.Primitive)
	}
}

// WriteEntityReferenceLink writes an entity-reference-link URL as content of
// the currently open nested resource info, promoting it to one with content
// on first use. A non-collection link accepts at most one item. The writer
// does not check whether the payload is a request or a response.
func (w *Writer) WriteEntityReferenceLink(ctx context.Context, url string) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writeEntityReferenceLinkSync(ctx, url) })
}

// WriteEntityReferenceLinkAsync is the asynchronous twin of WriteEntityReferenceLink.
func (w *Writer) WriteEntityReferenceLinkAsync(ctx context.Context, url string) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writeEntityReferenceLinkSync(ctx, url) })
}

func (w *Writer) writeEntityReferenceLinkSync(ctx context.Context, url string) error {
	top, err := w.promoteIfNeeded(ctx)
	if err != nil {
		return err
	}
	if top.State != state.NestedResourceInfoWithContent {
		return odataerrors.New0(odataerrors.KindRefLinkWithoutNestedLink)
	}
	if err := w.checkSingleItem(top); err != nil {
		return err
	}
	if err := w.hooks.WriteEntityReferenceLink(ctx, top, url); err != nil {
		return err
	}
	top.ResourceCount++
	return nil
}

// WriteDeltaLink writes a $deltaLink item directly inside a delta resource
// set, within the first three nesting levels.
func (w *Writer) WriteDeltaLink(ctx context.Context, url string) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writeDeltaLinkItem(ctx, state.DeltaLink, url) })
}

// WriteDeltaLinkAsync is the asynchronous twin of WriteDeltaLink.
func (w *Writer) WriteDeltaLinkAsync(ctx context.Context, url string) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writeDeltaLinkItem(ctx, state.DeltaLink, url) })
}

// WriteDeltaDeletedLink writes a $deletedLink item directly inside a delta
// resource set.
func (w *Writer) WriteDeltaDeletedLink(ctx context.Context, url string) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writeDeltaLinkItem(ctx, state.DeltaDeletedLink, url) })
}

// WriteDeltaDeletedLinkAsync is the asynchronous twin of WriteDeltaDeletedLink.
func (w *Writer) WriteDeltaDeletedLinkAsync(ctx context.Context, url string) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.writeDeltaLinkItem(ctx, state.DeltaDeletedLink, url) })
}

func (w *Writer) writeDeltaLinkItem(ctx context.Context, kind state.State, url string) error {
	if w.opts.IsRequest {
		return odataerrors.New0(odataerrors.KindDeltaLinkInRequest)
	}
	top := w.stack.Top()
	tctx := w.transitionContext(kind)
	if err := state.Validate(top.State, kind, tctx); err != nil {
		return err
	}
	return w.hooks.WriteDeltaLink(ctx, top, kind, url)
}

// subWriter tracks an open binary or character stream so the driver can
// refuse all other calls until it is disposed. resumeState is the scope
// state the stream's owning scope returns to on disposal: Property for a
// stream inside a property value, or ResourceSet for a binary stream
// written directly as an untyped resource set's element.
type subWriter struct {
	sink        io.WriteCloser
	isText      bool
	resumeState state.State
}

// CreateBinaryWriteStream returns an io.WriteCloser for a binary stream
// property value. No other Writer method may be called until it is closed.
func (w *Writer) CreateBinaryWriteStream(ctx context.Context) (io.WriteCloser, error) {
	if err := w.checkMode(false); err != nil {
		return nil, err
	}
	var sink io.WriteCloser
	err := w.intercept(func() error {
		var e error
		sink, e = w.createStreamSync(ctx, false)
		return e
	})
	return sink, err
}

// CreateTextWriter returns an io.WriteCloser for a character (string)
// stream property value.
func (w *Writer) CreateTextWriter(ctx context.Context) (io.WriteCloser, error) {
	if err := w.checkMode(false); err != nil {
		return nil, err
	}
	var sink io.WriteCloser
	err := w.intercept(func() error {
		var e error
		sink, e = w.createStreamSync(ctx, true)
		return e
	})
	return sink, err
}

func (w *Writer) createStreamSync(ctx context.Context, text bool) (io.WriteCloser, error) {
	top := w.stack.Top()
	untypedSet := top.State == state.ResourceSet && top.ResourceSet != nil && top.ResourceSet.TypeName == ""
	switch {
	case top.State == state.Property:
		if top.ValueWritten {
			return nil, odataerrors.Newf(odataerrors.KindPropertyValueWritten, top.PropertyTag.Name)
		}
	case !text && untypedSet:
		if err := w.checkSingleItem(top); err != nil {
			return nil, err
		}
	default:
		return nil, odataerrors.Newf(odataerrors.KindInvalidStateTransition, top.State, state.Stream)
	}
	resumeState := top.State
	var raw io.WriteCloser
	var err error
	nextState := state.Stream
	if text {
		nextState = state.String
		raw, err = w.hooks.StartTextWriter(ctx, top)
	} else {
		raw, err = w.hooks.StartBinaryStream(ctx, top)
	}
	if err != nil {
		return nil, err
	}
	top.State = nextState
	sw := &subWriter{sink: raw, isText: text, resumeState: resumeState}
	w.openSubWriter = sw
	return &disposingWriteCloser{w: w, sw: sw}, nil
}

// disposingWriteCloser clears the Writer's open-sub-writer guard and returns
// the owning scope from Stream/String to its prior state when the caller
// closes it.
type disposingWriteCloser struct {
	w  *Writer
	sw *subWriter
}

func (d *disposingWriteCloser) Write(p []byte) (int, error) {
	return d.sw.sink.Write(p)
}

func (d *disposingWriteCloser) Close() error {
	err := d.sw.sink.Close()
	top := d.w.stack.Top()
	top.SubWriterDisposed = true
	top.State = d.sw.resumeState
	if d.sw.resumeState == state.Property {
		top.ValueWritten = true
	} else {
		d.w.markChildPushed(top)
	}
	d.w.openSubWriter = nil
	return err
}
