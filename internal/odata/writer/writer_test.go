// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package writer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/writer"
	"github.com/AntiGuideAkquinet/odata.net/internal/writertest"
)

func newTestWriter(t *testing.T, forSet bool) (*writer.Writer, *writertest.Recorder) {
	t.Helper()
	rec := &writertest.Recorder{}
	w, err := writer.New(writer.Options{
		Model: writertest.SampleModel(),
		Hooks: rec,
	}, "Customers", forSet, "")
	require.NoError(t, err)
	return w, rec
}

func TestWriter_SingleResourceWithProperty(t *testing.T) {
	ctx := context.Background()
	w, rec := newTestWriter(t, false)

	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.StartProperty(ctx, &state.PropertyInfo{Name: "Name"}))
	require.NoError(t, w.WritePrimitiveValue(ctx, "Contoso"))
	require.NoError(t, w.End(ctx)) // Property
	require.NoError(t, w.End(ctx)) // Resource

	assert.Equal(t, []string{
		"PrepareResourceForWrite", "StartResource",
		"StartProperty", "WritePrimitiveValue", "EndProperty",
		"EndResource", "EndPayload",
	}, rec.Names())
}

func TestWriter_ResourceSetOfResources(t *testing.T) {
	ctx := context.Background()
	w, rec := newTestWriter(t, true)

	require.NoError(t, w.StartResourceSet(ctx, &state.ResourceSetInfo{}))
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.End(ctx))
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.End(ctx))
	require.NoError(t, w.End(ctx)) // ResourceSet

	assert.Equal(t, []string{
		"StartResourceSet",
		"PrepareResourceForWrite", "StartResource", "EndResource",
		"PrepareResourceForWrite", "StartResource", "EndResource",
		"EndResourceSet", "EndPayload",
	}, rec.Names())
}

func TestWriter_NestedExpandedNavigation(t *testing.T) {
	ctx := context.Background()
	w, rec := newTestWriter(t, false)

	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.StartNestedResourceInfo(ctx, &state.NestedLinkInfo{Name: "Orders", IsCollection: true}))
	require.NoError(t, w.StartResourceSet(ctx, &state.ResourceSetInfo{}))
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Order"}))
	require.NoError(t, w.End(ctx)) // Order resource
	require.NoError(t, w.End(ctx)) // Orders set
	require.NoError(t, w.End(ctx)) // Orders nested link with content
	require.NoError(t, w.End(ctx)) // Customer resource

	assert.Equal(t, []string{
		"PrepareResourceForWrite", "StartResource",
		"StartNestedResourceInfoWithContent",
		"StartResourceSet",
		"PrepareResourceForWrite", "StartResource", "EndResource",
		"EndResourceSet",
		"EndNestedResourceInfoWithContent",
		"EndResource",
		"EndPayload",
	}, rec.Names())
}

func TestWriter_DeferredNestedLinkNeverPromoted(t *testing.T) {
	ctx := context.Background()
	w, rec := newTestWriter(t, false)

	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.StartNestedResourceInfo(ctx, &state.NestedLinkInfo{Name: "Orders", IsCollection: true, Url: "Customers(1)/Orders"}))
	require.NoError(t, w.End(ctx)) // deferred link, never promoted
	require.NoError(t, w.End(ctx)) // Customer resource

	assert.Equal(t, []string{
		"PrepareResourceForWrite", "StartResource",
		"WriteDeferredNestedResourceInfo",
		"EndResource",
		"EndPayload",
	}, rec.Names())
}

func TestWriter_SecondItemOnSingleValuedLinkFails(t *testing.T) {
	ctx := context.Background()
	w, err := writer.New(writer.Options{Model: writertest.SampleModel(), Hooks: &writertest.Recorder{}}, "Orders", false, "")
	require.NoError(t, err)

	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Order"}))
	require.NoError(t, w.StartNestedResourceInfo(ctx, &state.NestedLinkInfo{Name: "Customer", IsCollection: false}))
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.End(ctx)) // Customer resource
	err = w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"})
	assert.True(t, odataerrors.Of(err, odataerrors.KindMultipleItemsInSingleLink))
}

func TestWriter_DuplicatePropertyNameRejected(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWriter(t, false)

	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.StartProperty(ctx, &state.PropertyInfo{Name: "Name"}))
	require.NoError(t, w.WritePrimitiveValue(ctx, "Contoso"))
	require.NoError(t, w.End(ctx))
	err := w.StartProperty(ctx, &state.PropertyInfo{Name: "Name"})
	assert.True(t, odataerrors.Of(err, odataerrors.KindPropertyValueWritten))
}

func TestWriter_IncompatibleDeclaredTypeRejected(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWriter(t, false)

	err := w.StartResource(ctx, &state.ResourceInfo{TypeName: "Order"})
	assert.True(t, odataerrors.Of(err, odataerrors.KindIncompatibleResourceTypes))
}

func TestWriter_ExceptionMovesWriterToErrorState(t *testing.T) {
	ctx := context.Background()
	rec := &writertest.Recorder{Fail: func(hook string) error {
		if hook == "StartResource" {
			return assert.AnError
		}
		return nil
	}}
	w, err := writer.New(writer.Options{Model: writertest.SampleModel(), Hooks: rec}, "Customers", false, "")
	require.NoError(t, err)

	err = w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"})
	assert.ErrorIs(t, err, assert.AnError)

	err = w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"})
	assert.True(t, odataerrors.Of(err, odataerrors.KindInvalidTransitionFromError))
}

func TestWriter_SyncCallOnAsyncWriterRejected(t *testing.T) {
	ctx := context.Background()
	rec := &writertest.Recorder{}
	w, err := writer.NewAsync(writer.Options{Model: writertest.SampleModel(), Hooks: rec}, "Customers", false, "")
	require.NoError(t, err)

	err = w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"})
	assert.True(t, odataerrors.Of(err, odataerrors.KindSyncCallOnAsyncWriter))

	require.NoError(t, w.StartResourceAsync(ctx, &state.ResourceInfo{TypeName: "Customer"}))
}

func TestWriter_CountOnRequestPayloadRejected(t *testing.T) {
	ctx := context.Background()
	rec := &writertest.Recorder{}
	w, err := writer.New(writer.Options{Model: writertest.SampleModel(), Hooks: rec, IsRequest: true}, "Customers", true, "")
	require.NoError(t, err)

	count := int64(5)
	err = w.StartResourceSet(ctx, &state.ResourceSetInfo{Count: &count})
	assert.True(t, odataerrors.Of(err, odataerrors.KindCountInRequest))
}

func TestWriter_DeltaResourceSetWithDeletedResourceAndDeltaLink(t *testing.T) {
	ctx := context.Background()
	w, rec := newTestWriter(t, true)

	require.NoError(t, w.StartDeltaResourceSet(ctx, &state.ResourceSetInfo{}))
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer", ID: "Customers(1)"}))
	require.NoError(t, w.End(ctx))
	require.NoError(t, w.StartDeletedResource(ctx, &state.ResourceInfo{TypeName: "Customer", ID: "Customers(2)"}))
	require.NoError(t, w.End(ctx))
	require.NoError(t, w.WriteDeltaLink(ctx, "Customers?$deltatoken=abc"))
	require.NoError(t, w.End(ctx)) // delta resource set

	assert.Equal(t, []string{
		"StartDeltaResourceSet",
		"PrepareResourceForWrite", "StartResource", "EndResource",
		"PrepareDeletedResourceForWrite", "StartDeletedResource", "EndDeletedResource",
		"WriteDeltaLink",
		"EndDeltaResourceSet",
		"EndPayload",
	}, rec.Names())
}

func TestWriter_CreateTextWriterBlocksOtherCallsUntilDisposed(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWriter(t, false)

	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{TypeName: "Customer"}))
	require.NoError(t, w.StartProperty(ctx, &state.PropertyInfo{Name: "Name"}))
	sw, err := w.CreateTextWriter(ctx)
	require.NoError(t, err)

	_, err = sw.Write([]byte("Contoso"))
	require.NoError(t, err)

	err = w.StartProperty(ctx, &state.PropertyInfo{Name: "Name"})
	assert.True(t, odataerrors.Of(err, odataerrors.KindStreamNotDisposed))

	require.NoError(t, sw.Close())
	require.NoError(t, w.End(ctx)) // Property
	require.NoError(t, w.End(ctx)) // Resource
}
