// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package odataerrors defines the single error type the writer engine
// surfaces to callers, plus the closed set of error kinds drawn from the
// transition, structural, schema, payload-shape, and API-usage taxonomies.
package odataerrors

import (
	"errors"
	"fmt"
)

// Kind identifies one error category from the engine's fixed taxonomy.
type Kind string

const (
	// Transition errors.
	KindInvalidStateTransition       Kind = "invalid-state-transition"
	KindInvalidTransitionFromStart   Kind = "invalid-transition-from-start"
	KindInvalidTransitionFromSet     Kind = "invalid-transition-from-resource-set"
	KindInvalidTransitionFromLink    Kind = "invalid-transition-from-expanded-link"
	KindInvalidTransitionFromDone    Kind = "invalid-transition-from-completed"
	KindInvalidTransitionFromError   Kind = "invalid-transition-from-error"
	KindInvalidTransitionFromNull    Kind = "invalid-transition-from-null-resource"
	KindInvalidTransitionFrom40Del   Kind = "invalid-transition-from-4.0-deleted-resource"

	// Structural errors.
	KindMultipleItemsInSingleLink Kind = "multiple-items-in-non-collection-nested-resource-info"
	KindRefLinkWithoutNestedLink  Kind = "entity-reference-link-without-nested-link"
	KindDeferredLinkInRequest     Kind = "deferred-link-in-request"
	KindPropertyValueWritten      Kind = "property-value-already-written"
	KindStreamNotDisposed         Kind = "stream-not-disposed"
	KindWriteEndInInvalidState    Kind = "write-end-in-invalid-state"

	// Schema errors.
	KindIncompatibleResourceTypes    Kind = "incompatible-resource-types"
	KindDerivedTypeConstraint        Kind = "derived-type-constraint-violated"
	KindTypeNameNotFound             Kind = "type-name-not-found"

	// Payload-shape errors.
	KindCountInRequest              Kind = "count-in-request"
	KindNextLinkInRequest           Kind = "next-link-in-request"
	KindDeltaLinkInRequest          Kind = "delta-link-in-request"
	KindDeltaLinkOnExpandedSet      Kind = "delta-link-on-expanded-set"
	KindDeltaResourceWithoutIDOrKey Kind = "delta-resource-without-id-or-key"
	KindContainmentWithoutPath      Kind = "containment-without-path"
	KindMaxNestingDepthExceeded     Kind = "max-nesting-depth-exceeded"

	// API-usage errors.
	KindSyncCallOnAsyncWriter Kind = "sync-call-on-async-writer"
	KindAsyncCallOnSyncWriter Kind = "async-call-on-sync-writer"
	KindWriterDisposed        Kind = "writer-disposed"
)

// Error is the single domain-specific error type the writer returns. It
// always carries a Kind from the taxonomy above plus a human-readable
// message, and optionally wraps an underlying cause (e.g. a failed hook).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New builds an Error of the given kind using a message produced by the
// message table (see Messages). Callers should prefer the
// package-level constructors below over calling New directly.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause,
// typically a failure raised from inside a back-end hook.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("odata: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("odata: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, odataerrors.New(odataerrors.KindPropertyValueWritten, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// Of reports whether err is an *Error of the given kind, walking the
// standard Unwrap chain.
func Of(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
