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
	"io"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
)

// Hooks is the back-end contract the writer drives. The engine itself never
// emits a byte; every observable effect of a write call happens through one
// of these methods. Each hook has a single form, called by Writers built
// with New and with NewAsync alike; there are no separate synchronous and
// asynchronous hook methods. Calling a Writer method of the wrong family
// (sync on an async Writer or the reverse) is an API-usage error the driver
// raises before any hook is reached.
//
// Implementations are not expected to be reentrant; the engine is single
// threaded by contract (spec.md invariant on concurrent access) and never
// calls two hook methods concurrently on the same Writer.
type Hooks interface {
	StartPayload(ctx context.Context) error
	EndPayload(ctx context.Context) error

	StartResource(ctx context.Context, sc *state.Scope) error
	EndResource(ctx context.Context, sc *state.Scope) error

	StartResourceSet(ctx context.Context, sc *state.Scope) error
	EndResourceSet(ctx context.Context, sc *state.Scope) error

	StartDeltaResourceSet(ctx context.Context, sc *state.Scope) error
	EndDeltaResourceSet(ctx context.Context, sc *state.Scope) error

	StartDeletedResource(ctx context.Context, sc *state.Scope) error
	EndDeletedResource(ctx context.Context, sc *state.Scope) error

	StartProperty(ctx context.Context, sc *state.Scope) error
	EndProperty(ctx context.Context, sc *state.Scope) error

	StartNestedResourceInfoWithContent(ctx context.Context, sc *state.Scope) error
	EndNestedResourceInfoWithContent(ctx context.Context, sc *state.Scope) error
	WriteDeferredNestedResourceInfo(ctx context.Context, sc *state.Scope) error
	WriteEntityReferenceLink(ctx context.Context, sc *state.Scope, url string) error

	WritePrimitiveValue(ctx context.Context, sc *state.Scope, value any) error

	StartBinaryStream(ctx context.Context, sc *state.Scope) (io.WriteCloser, error)
	StartTextWriter(ctx context.Context, sc *state.Scope) (io.WriteCloser, error)

	WriteDeltaLink(ctx context.Context, sc *state.Scope, kind state.State, url string) error

	Flush(ctx context.Context) error

	// PrepareResourceForWrite and PrepareDeletedResourceForWrite give the
	// back-end a chance to observe (and, for serialization-info recovery,
	// adjust) a resource's bound type context before StartResource or
	// StartDeletedResource is invoked. Most back-ends implement these as a
	// no-op.
	PrepareResourceForWrite(ctx context.Context, sc *state.Scope) error
	PrepareDeletedResourceForWrite(ctx context.Context, sc *state.Scope) error
}
