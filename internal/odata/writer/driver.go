// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package writer implements the push-based, stateful OData payload writer
// engine: a scope stack driven by Start/End calls, validated against a
// fixed state-transition table, that delegates every observable effect to
// an injected Hooks back-end. The engine never buffers or serializes a
// payload itself; it only tracks shape and sequencing.
package writer

import (
	"context"
	"fmt"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/path"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
)

// DefaultMaxResourceNestingDepth bounds how many Resource/DeletedResource
// scopes may be nested before StartResource or StartDeletedResource refuses
// to push another one.
const DefaultMaxResourceNestingDepth = 64

// Options configures a Writer at construction time.
type Options struct {
	Model                   edm.Model
	Hooks                   Hooks
	IsRequest               bool
	Version                 state.ODataVersion
	MaxResourceNestingDepth int
	Listener                Listener
	Messages                odataerrors.Messages
}

func (o *Options) fillDefaults() {
	if o.MaxResourceNestingDepth <= 0 {
		o.MaxResourceNestingDepth = DefaultMaxResourceNestingDepth
	}
	if o.Listener == nil {
		o.Listener = NopListener{}
	}
	if o.Messages == nil {
		o.Messages = odataerrors.DefaultMessages
	}
}

// Writer is the OData payload writer engine. A single Writer instance is
// bound at construction to exactly one root navigation source and to either
// synchronous or asynchronous call discipline; neither may change for the
// life of the instance.
type Writer struct {
	opts  Options
	hooks Hooks
	model edm.Model
	stack *state.Stack
	async bool

	disposed bool
	forSet   bool

	// openSubWriter is non-nil while a binary or character stream created by
	// CreateBinaryWriteStream/CreateTextWriter has not yet been disposed; no
	// other method may be called on the Writer until it closes.
	openSubWriter *subWriter
}

// New constructs a Writer for synchronous use, bound to navigationSourceName
// (an entity set or singleton declared in opts.Model). forSet selects
// whether the writer expects a top-level resource set (true) or a single
// top-level resource (false). itemTypeNameHint optionally binds the root to
// a derived entity type.
func New(opts Options, navigationSourceName string, forSet bool, itemTypeNameHint string) (*Writer, error) {
	return newWriter(opts, navigationSourceName, forSet, itemTypeNameHint, false)
}

// NewAsync constructs a Writer for asynchronous use. See New for the other
// parameters.
func NewAsync(opts Options, navigationSourceName string, forSet bool, itemTypeNameHint string) (*Writer, error) {
	return newWriter(opts, navigationSourceName, forSet, itemTypeNameHint, true)
}

func newWriter(opts Options, navigationSourceName string, forSet bool, itemTypeNameHint string, async bool) (*Writer, error) {
	opts.fillDefaults()
	bound, err := resolveRoot(opts.Model, navigationSourceName, itemTypeNameHint)
	if err != nil {
		return nil, err
	}
	root := state.Scope{
		State:                  state.Start,
		NavigationSource:       bound.NavigationSource,
		ItemTypeName:           bound.ResourceTypeName,
		ResourceTypeName:       "",
		DerivedTypeConstraints: bound.Constraints,
		Path:                   path.Root(bound.NavigationSource),
	}
	w := &Writer{
		opts:  opts,
		hooks: opts.Hooks,
		model: opts.Model,
		stack: state.NewStack(root),
		async: async,
		forSet: forSet,
	}
	return w, nil
}

func (w *Writer) checkMode(wantAsync bool) error {
	if w.disposed {
		return odataerrors.New0(odataerrors.KindWriterDisposed)
	}
	if wantAsync && !w.async {
		return odataerrors.New0(odataerrors.KindAsyncCallOnSyncWriter)
	}
	if !wantAsync && w.async {
		return odataerrors.New0(odataerrors.KindSyncCallOnAsyncWriter)
	}
	if w.openSubWriter != nil {
		return odataerrors.New0(odataerrors.KindStreamNotDisposed)
	}
	return nil
}

// intercept runs fn and, on failure, moves the writer to the Error state
// before returning the error, per the exception interceptor contract every
// public entry point shares. The listener is notified only on the first move
// into Error; a failure while already in Error is returned without notifying
// it again.
func (w *Writer) intercept(fn func() error) error {
	if err := fn(); err != nil {
		if w.stack.Depth() > 0 {
			alreadyInError := w.stack.Top().State == state.Error
			w.stack.SetError()
			if alreadyInError {
				return err
			}
		}
		w.opts.Listener.OnException(err)
		return err
	}
	return nil
}

func (w *Writer) transitionContext(next state.State) state.TransitionContext {
	top := w.stack.Top()
	ctx := state.TransitionContext{
		IsRequest:               w.opts.IsRequest,
		Version:                 w.opts.Version,
		ResourceNestingDepth:    w.stack.ResourceNestingDepth(),
		MaxResourceNestingDepth: w.opts.MaxResourceNestingDepth,
		StackDepthBeforePush:    w.stack.Depth(),
		WriterCreatedForSet:     w.forSet,
	}
	if top.State == state.ResourceSet || top.State == state.DeltaResourceSet {
		ctx.ParentSetIsTyped = top.ResourceSet != nil && top.ResourceSet.TypeName != ""
	}
	if top.NestedLink != nil {
		ctx.NestedLinkIsCollection = top.NestedLink.IsCollection
	}
	return ctx
}

func (w *Writer) checkNestingDepth() error {
	depth := w.stack.ResourceNestingDepth()
	if depth >= w.opts.MaxResourceNestingDepth {
		return odataerrors.Newf(odataerrors.KindMaxNestingDepthExceeded, depth+1, w.opts.MaxResourceNestingDepth)
	}
	return nil
}

// End closes whichever scope is currently open, invoking the matching
// EndXxx hook and popping the stack. Ending the outermost scope replaces the
// stack's root with Completed and notifies the listener, per spec.md §4.7.
func (w *Writer) End(ctx context.Context) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.endSync(ctx) })
}

// EndAsync is the asynchronous twin of End.
func (w *Writer) EndAsync(ctx context.Context) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.endSync(ctx) })
}

func (w *Writer) endSync(ctx context.Context) error {
	top := w.stack.Top()
	switch top.State {
	case state.Resource:
		if err := w.hooks.EndResource(ctx, top); err != nil {
			return err
		}
	case state.DeletedResource:
		if err := w.hooks.EndDeletedResource(ctx, top); err != nil {
			return err
		}
	case state.ResourceSet:
		if err := w.hooks.EndResourceSet(ctx, top); err != nil {
			return err
		}
	case state.DeltaResourceSet:
		if err := w.hooks.EndDeltaResourceSet(ctx, top); err != nil {
			return err
		}
	case state.NestedResourceInfoWithContent:
		if err := w.hooks.EndNestedResourceInfoWithContent(ctx, top); err != nil {
			return err
		}
	case state.NestedResourceInfo:
		// Ended without ever receiving content: a deferred link, which a
		// request payload may never contain.
		if w.opts.IsRequest {
			return odataerrors.New0(odataerrors.KindDeferredLinkInRequest)
		}
		if err := w.hooks.WriteDeferredNestedResourceInfo(ctx, top); err != nil {
			return err
		}
	case state.Property:
		if err := w.hooks.EndProperty(ctx, top); err != nil {
			return err
		}
	default:
		return odataerrors.Newf(odataerrors.KindWriteEndInInvalidState, top.State)
	}

	if w.stack.Depth() == 1 {
		return odataerrors.Newf(odataerrors.KindWriteEndInInvalidState, top.State)
	}
	w.stack.Pop()
	if w.stack.Depth() == 1 {
		w.stack.ReplaceRootWithCompleted()
		if err := w.hooks.EndPayload(ctx); err != nil {
			return err
		}
		w.opts.Listener.OnCompleted()
	}
	return nil
}

// Flush delegates to the back-end's Flush hook.
func (w *Writer) Flush(ctx context.Context) error {
	if err := w.checkMode(false); err != nil {
		return err
	}
	return w.intercept(func() error { return w.hooks.Flush(ctx) })
}

// FlushAsync is the asynchronous twin of Flush.
func (w *Writer) FlushAsync(ctx context.Context) error {
	if err := w.checkMode(true); err != nil {
		return err
	}
	return w.intercept(func() error { return w.hooks.Flush(ctx) })
}

func (w *Writer) requireState(want state.State) error {
	if w.stack.Top().State != want {
		return fmt.Errorf("odata: internal: expected top scope %v, got %v", want, w.stack.Top().State)
	}
	return nil
}
