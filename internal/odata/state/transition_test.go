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

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"
)

func TestValidate_StartToResourceSet_RequiresWriterCreatedForSet(t *testing.T) {
	err := Validate(Start, ResourceSet, TransitionContext{WriterCreatedForSet: true})
	assert.NoError(t, err)

	err = Validate(Start, ResourceSet, TransitionContext{WriterCreatedForSet: false})
	assert.True(t, odataerrors.Of(err, odataerrors.KindInvalidTransitionFromStart))
}

func TestValidate_StartToResource_RequiresWriterNotCreatedForSet(t *testing.T) {
	assert.NoError(t, Validate(Start, Resource, TransitionContext{WriterCreatedForSet: false}))
	assert.Error(t, Validate(Start, Resource, TransitionContext{WriterCreatedForSet: true}))
}

func TestValidate_ResourceToNestedResourceInfo(t *testing.T) {
	assert.NoError(t, Validate(Resource, NestedResourceInfo, TransitionContext{}))
	assert.NoError(t, Validate(Resource, Property, TransitionContext{}))
	assert.Error(t, Validate(Resource, ResourceSet, TransitionContext{}))
}

func TestValidate_DeletedResourceToNestedResourceInfo_RejectedBelow401(t *testing.T) {
	err := Validate(DeletedResource, NestedResourceInfo, TransitionContext{Version: V4})
	assert.True(t, odataerrors.Of(err, odataerrors.KindInvalidTransitionFrom40Del))

	assert.NoError(t, Validate(DeletedResource, NestedResourceInfo, TransitionContext{Version: V401}))
}

func TestValidate_TypedResourceSetOnlyAcceptsResource(t *testing.T) {
	assert.NoError(t, Validate(ResourceSet, Resource, TransitionContext{ParentSetIsTyped: true}))
	assert.Error(t, Validate(ResourceSet, Primitive, TransitionContext{ParentSetIsTyped: true}))
}

func TestValidate_UntypedResourceSetAcceptsPrimitivesAndNestedSets(t *testing.T) {
	assert.NoError(t, Validate(ResourceSet, Primitive, TransitionContext{}))
	assert.NoError(t, Validate(ResourceSet, Stream, TransitionContext{}))
	assert.NoError(t, Validate(ResourceSet, ResourceSet, TransitionContext{}))
}

func TestValidate_DeltaLinkOnlyWithinFirstThreeLevels(t *testing.T) {
	assert.NoError(t, Validate(DeltaResourceSet, DeltaLink, TransitionContext{StackDepthBeforePush: 2}))
	assert.Error(t, Validate(DeltaResourceSet, DeltaLink, TransitionContext{StackDepthBeforePush: 3}))
}

func TestValidate_NestedWithContentAllowsDeltaSetOnlyAt401(t *testing.T) {
	assert.Error(t, Validate(NestedResourceInfoWithContent, DeltaResourceSet, TransitionContext{Version: V4}))
	assert.NoError(t, Validate(NestedResourceInfoWithContent, DeltaResourceSet, TransitionContext{Version: V401}))
}

func TestValidate_TerminalStatesRejectEverythingButErrorToError(t *testing.T) {
	assert.Error(t, Validate(Completed, Resource, TransitionContext{}))
	assert.NoError(t, Validate(Error, Error, TransitionContext{}))
	assert.Error(t, Validate(Error, Resource, TransitionContext{}))
}
