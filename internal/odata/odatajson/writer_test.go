// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package odatajson_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odatajson"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/writer"
	"github.com/AntiGuideAkquinet/odata.net/internal/writertest"
)

func TestWriterEmitsSingleResource(t *testing.T) {
	var buf bytes.Buffer
	back := odatajson.New(&buf, "$metadata#Customers/$entity")
	w, err := writer.New(writer.Options{Model: writertest.SampleModel(), Hooks: back}, "Customers", false, "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{
		Properties: map[string]any{"ID": 1, "Name": "Contoso"},
	}))
	require.NoError(t, w.End(ctx))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "$metadata#Customers/$entity", out["@odata.context"])
	require.Equal(t, "Contoso", out["Name"])
	require.Equal(t, float64(1), out["ID"])
}

func TestWriterEmitsResourceSetWithCount(t *testing.T) {
	var buf bytes.Buffer
	back := odatajson.New(&buf, "$metadata#Customers")
	w, err := writer.New(writer.Options{Model: writertest.SampleModel(), Hooks: back}, "Customers", true, "")
	require.NoError(t, err)

	ctx := context.Background()
	count := int64(1)
	require.NoError(t, w.StartResourceSet(ctx, &state.ResourceSetInfo{Count: &count}))
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{Properties: map[string]any{"ID": 1}}))
	require.NoError(t, w.End(ctx))
	require.NoError(t, w.End(ctx))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, float64(1), out["@odata.count"])
	value, ok := out["value"].([]any)
	require.True(t, ok)
	require.Len(t, value, 1)
}

func TestWriterEmitsDeferredNestedLink(t *testing.T) {
	var buf bytes.Buffer
	back := odatajson.New(&buf, "")
	w, err := writer.New(writer.Options{Model: writertest.SampleModel(), Hooks: back}, "Customers", false, "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.StartResource(ctx, &state.ResourceInfo{Properties: map[string]any{"ID": 1}}))
	require.NoError(t, w.StartNestedResourceInfo(ctx, &state.NestedLinkInfo{
		Name: "Orders", IsCollection: true, Url: "Customers(1)/Orders",
	}))
	require.NoError(t, w.End(ctx))
	require.NoError(t, w.End(ctx))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "Customers(1)/Orders", out["Orders@odata.navigationLink"])
}
