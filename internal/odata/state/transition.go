// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import "github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"

// ODataVersion distinguishes the two protocol revisions this engine cares
// about: whether a DeletedResource may contain a NestedResourceInfo, and
// whether NestedResourceInfoWithContent may directly hold a
// DeltaResourceSet or DeletedResource.
type ODataVersion int

const (
	V4 ODataVersion = iota
	V401
)

// TransitionContext carries the contextual facts the pure State->State table
// in spec.md §4.2 needs beyond the two states themselves: whether this is a
// request or response payload, the protocol version, whether the set being
// entered/left is declared with an element type, the cardinality of the
// nested link being promoted, and the current resource nesting depth.
type TransitionContext struct {
	IsRequest               bool
	Version                 ODataVersion
	ParentSetIsTyped        bool
	NestedLinkIsCollection  bool
	ResourceNestingDepth    int
	MaxResourceNestingDepth int
	StackDepthBeforePush    int
	WriterCreatedForSet     bool // true if the writer was constructed for a resource set, false for a single resource
}

// Validate checks whether transitioning from current to next is legal under
// ctx, per the transition table in spec.md §4.2. It does not perform schema
// (type-compatibility) checks; those live in the writer's type resolver,
// which has access to the EDM model this package intentionally does not.
func Validate(current, next State, ctx TransitionContext) error {
	if current == Error {
		if next == Error {
			return nil
		}
		return odataerrors.New0(odataerrors.KindInvalidTransitionFromError)
	}
	if current == Completed {
		return odataerrors.New0(odataerrors.KindInvalidTransitionFromDone)
	}

	switch current {
	case Start:
		return validateFromStart(next, ctx)
	case Resource, DeletedResource:
		return validateFromResource(current, next, ctx)
	case ResourceSet:
		return validateFromResourceSet(next, ctx)
	case DeltaResourceSet:
		return validateFromDeltaResourceSet(next, ctx)
	case NestedResourceInfo:
		if next != NestedResourceInfoWithContent {
			return odataerrors.Newf(odataerrors.KindInvalidStateTransition, current, next)
		}
		return nil
	case NestedResourceInfoWithContent:
		return validateFromNestedWithContent(next, ctx)
	case Property:
		switch next {
		case Stream, String, Primitive:
			return nil
		default:
			return odataerrors.Newf(odataerrors.KindInvalidStateTransition, current, next)
		}
	case Stream, String:
		// Only the matching sub-writer disposal may leave this state; the
		// driver handles that path directly and never calls Validate for it.
		return odataerrors.New0(odataerrors.KindStreamNotDisposed)
	case DeltaLink, DeltaDeletedLink:
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, current, next)
	case Primitive:
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, current, next)
	default:
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, current, next)
	}
}

func validateFromStart(next State, ctx TransitionContext) error {
	switch next {
	case ResourceSet, DeltaResourceSet:
		if !ctx.WriterCreatedForSet {
			return odataerrors.New0(odataerrors.KindInvalidTransitionFromStart)
		}
		return nil
	case Resource, DeletedResource:
		if ctx.WriterCreatedForSet {
			return odataerrors.New0(odataerrors.KindInvalidTransitionFromStart)
		}
		return nil
	default:
		return odataerrors.New0(odataerrors.KindInvalidTransitionFromStart)
	}
}

func validateFromResource(current, next State, ctx TransitionContext) error {
	if current == DeletedResource && next == NestedResourceInfo && ctx.Version == V4 {
		return odataerrors.New0(odataerrors.KindInvalidTransitionFrom40Del)
	}
	switch next {
	case NestedResourceInfo, Property:
		return nil
	default:
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, current, next)
	}
}

func validateFromResourceSet(next State, ctx TransitionContext) error {
	if ctx.ParentSetIsTyped {
		if next == Resource {
			return nil
		}
		return odataerrors.New0(odataerrors.KindInvalidTransitionFromSet)
	}
	switch next {
	case Resource, Primitive, Stream, String, ResourceSet:
		return nil
	default:
		return odataerrors.New0(odataerrors.KindInvalidTransitionFromSet)
	}
}

func validateFromDeltaResourceSet(next State, ctx TransitionContext) error {
	switch next {
	case Resource, DeletedResource:
		return nil
	case DeltaLink, DeltaDeletedLink:
		if ctx.StackDepthBeforePush < 3 {
			return nil
		}
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, DeltaResourceSet, next)
	default:
		return odataerrors.Newf(odataerrors.KindInvalidStateTransition, DeltaResourceSet, next)
	}
}

func validateFromNestedWithContent(next State, ctx TransitionContext) error {
	switch next {
	case ResourceSet, Resource, Primitive:
		return nil
	case DeltaResourceSet, DeletedResource:
		if ctx.Version == V401 {
			return nil
		}
		return odataerrors.New0(odataerrors.KindInvalidTransitionFromLink)
	default:
		return odataerrors.New0(odataerrors.KindInvalidTransitionFromLink)
	}
}
