// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package odataerrors

import "fmt"

// Messages formats the error text for a Kind. The writer engine builds its
// errors through New0 and Newf, which always use DefaultMessages; a Messages
// value set in writer.Options is stored but not consulted when errors are
// built. No call site formats a Kind's message inline.
type Messages interface {
	Format(kind Kind, args ...any) string
}

// DefaultMessages is the built-in English message table.
var DefaultMessages Messages = defaultMessages{}

type defaultMessages struct{}

var templates = map[Kind]string{
	KindInvalidStateTransition:       "cannot transition from state %v to state %v",
	KindInvalidTransitionFromStart:   "the writer is in the Start state; only a top-level resource or resource set can be written here",
	KindInvalidTransitionFromSet:     "a resource set scope only accepts resources (or, when untyped, primitives/sets/streams/strings)",
	KindInvalidTransitionFromLink:    "a nested resource info with content only accepts a resource set, resource, or primitive (and, from OData 4.01, a delta resource set or deleted resource)",
	KindInvalidTransitionFromDone:    "the writer has completed; no further calls are permitted",
	KindInvalidTransitionFromError:   "the writer is in the Error state; no further calls are permitted",
	KindInvalidTransitionFromNull:    "cannot write into a scope that represents a null resource",
	KindInvalidTransitionFrom40Del:   "a deleted resource cannot contain a nested resource info below OData 4.01",
	KindMultipleItemsInSingleLink:    "multiple items in non-collection nested resource info %q",
	KindRefLinkWithoutNestedLink:     "an entity reference link can only be written inside a nested resource info",
	KindDeferredLinkInRequest:        "a deferred (non-expanded) nested resource info is not allowed in a request payload",
	KindPropertyValueWritten:         "a value has already been written for property %q",
	KindStreamNotDisposed:            "the current binary or character stream must be disposed before the writer can continue",
	KindWriteEndInInvalidState:       "end cannot be called while the writer is in state %v",
	KindIncompatibleResourceTypes:    "resource type %q is not assignable to the expected type %q",
	KindDerivedTypeConstraint:        "type %q is not permitted by the derived-type constraints at this position",
	KindTypeNameNotFound:             "type %q was not found in the model",
	KindCountInRequest:               "a count cannot be written on a request payload",
	KindNextLinkInRequest:            "a next-page link cannot be written on a request payload",
	KindDeltaLinkInRequest:           "a delta link cannot be written on a request payload",
	KindDeltaLinkOnExpandedSet:       "a delta link cannot be written on an expanded resource set",
	KindDeltaResourceWithoutIDOrKey:  "a top-level delta resource must have an Id or carry all key properties of %q",
	KindContainmentWithoutPath:       "a contained entity set requires a non-empty enclosing path",
	KindMaxNestingDepthExceeded:      "resource nesting depth %d exceeds the configured maximum %d",
	KindSyncCallOnAsyncWriter:        "a synchronous method was called on a writer constructed for asynchronous use",
	KindAsyncCallOnSyncWriter:        "an asynchronous method was called on a writer constructed for synchronous use",
	KindWriterDisposed:               "the writer has been disposed",
}

func (defaultMessages) Format(kind Kind, args ...any) string {
	tmpl, ok := templates[kind]
	if !ok {
		return fmt.Sprintf("unrecognized error %v", kind)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// New0 constructs an Error using DefaultMessages with no format arguments.
func New0(kind Kind) *Error {
	return New(kind, DefaultMessages.Format(kind))
}

// Newf constructs an Error using DefaultMessages with format arguments.
func Newf(kind Kind, args ...any) *Error {
	return New(kind, DefaultMessages.Format(kind, args...))
}
