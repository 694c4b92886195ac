// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/writer"
	"github.com/AntiGuideAkquinet/odata.net/internal/writertest"
)

// runDemoScript drives a small Customers/Orders scenario through a real
// Writer bound to the sample model: two customers, the second expanded with
// its Orders, one Order carrying a deferred Customer link.
func runDemoScript(ctx context.Context, rec *writertest.Recorder) error {
	model := writertest.SampleModel()
	w, err := writer.New(writer.Options{Model: model, Hooks: rec}, "Customers", true, "")
	if err != nil {
		return err
	}

	count := int64(2)
	if err := w.StartResourceSet(ctx, &state.ResourceSetInfo{Count: &count}); err != nil {
		return err
	}

	if err := w.StartResource(ctx, &state.ResourceInfo{
		Properties: map[string]any{"ID": 1, "Name": "Contoso"},
	}); err != nil {
		return err
	}
	if err := w.End(ctx); err != nil { // end first Customer
		return err
	}

	if err := w.StartResource(ctx, &state.ResourceInfo{
		Properties: map[string]any{"ID": 2, "Name": "Fabrikam"},
	}); err != nil {
		return err
	}
	if err := w.StartNestedResourceInfo(ctx, &state.NestedLinkInfo{Name: "Orders", IsCollection: true}); err != nil {
		return err
	}
	if err := w.StartResourceSet(ctx, &state.ResourceSetInfo{}); err != nil {
		return err
	}
	if err := w.StartResource(ctx, &state.ResourceInfo{
		Properties: map[string]any{"ID": 100, "Amount": 42.5},
	}); err != nil {
		return err
	}
	if err := w.StartNestedResourceInfo(ctx, &state.NestedLinkInfo{Name: "Customer", Url: "Customers(2)"}); err != nil {
		return err
	}
	if err := w.End(ctx); err != nil { // end deferred Customer link
		return err
	}
	if err := w.End(ctx); err != nil { // end Order
		return err
	}
	if err := w.End(ctx); err != nil { // end Orders set
		return err
	}
	if err := w.End(ctx); err != nil { // end Orders nested link with content
		return err
	}
	if err := w.End(ctx); err != nil { // end second Customer
		return err
	}
	return w.End(ctx) // end Customers set
}
