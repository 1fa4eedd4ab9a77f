// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reconcile

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/extract"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/proposal"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

func ptr(id scene.ObjectID) *scene.ObjectID { return &id }

func translated(x, y, z float64) scene.Transform {
	tr := scene.IdentityTransform()
	tr.Position = mgl64.Vec3{x, y, z}
	return tr
}

func snapshotOf(t *testing.T, host scene.Host) *scene.Snapshot {
	t.Helper()
	snap, err := extract.Extract(host)
	require.NoError(t, err)
	return snap
}

// Reversing a chain root->C->B->A into root->A->B->C must order the plan by
// target depth: A first (depth 1), then B, then C.
func TestCompute_ReversedChain_OrderedByTargetDepth(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "root", Kind: scene.KindEmpty, Local: scene.IdentityTransform()},
		scene.HostObject{ID: "c", Kind: scene.KindEmpty, Parent: ptr("root"), Local: scene.IdentityTransform()},
		scene.HostObject{ID: "b", Kind: scene.KindEmpty, Parent: ptr("c"), Local: scene.IdentityTransform()},
		scene.HostObject{ID: "a", Kind: scene.KindEmpty, Parent: ptr("b"), Local: scene.IdentityTransform()},
	)
	snap := snapshotOf(t, host)

	validated := proposal.Validated{Entries: []proposal.Entry{
		{Object: "a", Parent: ptr("root")},
		{Object: "b", Parent: ptr("a")},
		{Object: "c", Parent: ptr("b")},
	}}
	plan, err := Compute(snap, validated)
	require.NoError(t, err)
	require.Len(t, plan.Ops, 3)
	assert.Equal(t, scene.ObjectID("a"), plan.Ops[0].Object)
	assert.Equal(t, scene.ObjectID("b"), plan.Ops[1].Object)
	assert.Equal(t, scene.ObjectID("c"), plan.Ops[2].Object)
}

func TestCompute_SkipsUnmovedObjects(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "root", Kind: scene.KindEmpty, Local: scene.IdentityTransform()},
		scene.HostObject{ID: "a", Kind: scene.KindGeometry, Parent: ptr("root"), Local: scene.IdentityTransform()},
		scene.HostObject{ID: "b", Kind: scene.KindGeometry, Local: scene.IdentityTransform()},
	)
	snap := snapshotOf(t, host)

	// a already sits under root; only b actually moves.
	validated := proposal.Validated{Entries: []proposal.Entry{
		{Object: "a", Parent: ptr("root")},
		{Object: "b", Parent: ptr("root")},
	}}
	plan, err := Compute(snap, validated)
	require.NoError(t, err)
	require.Len(t, plan.Ops, 1)
	assert.Equal(t, scene.ObjectID("b"), plan.Ops[0].Object)
}

// The worked translation case: object at world (1,2,3) re-parented under an
// object at world (1,0,0) gets local position (0,2,3).
func TestCompute_LocalTransformPreservesWorld(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "anchor", Kind: scene.KindEmpty, Local: translated(1, 0, 0)},
		scene.HostObject{ID: "obj", Kind: scene.KindGeometry, Local: translated(1, 2, 3)},
	)
	snap := snapshotOf(t, host)

	validated := proposal.Validated{Entries: []proposal.Entry{
		{Object: "obj", Parent: ptr("anchor")},
	}}
	plan, err := Compute(snap, validated)
	require.NoError(t, err)
	require.Len(t, plan.Ops, 1)
	assert.True(t, plan.Ops[0].NewLocal.Position.ApproxEqualThreshold(mgl64.Vec3{0, 2, 3}, 1e-9),
		"got %v", plan.Ops[0].NewLocal.Position)
}

func TestCompute_MoveToRoot_KeepsWorldAsLocal(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "group", Kind: scene.KindEmpty, Local: translated(5, 0, 0)},
		scene.HostObject{ID: "obj", Kind: scene.KindGeometry, Parent: ptr("group"), Local: translated(0, 1, 0)},
	)
	snap := snapshotOf(t, host)

	plan, err := Compute(snap, proposal.Validated{Entries: []proposal.Entry{
		{Object: "obj", Parent: nil},
	}})
	require.NoError(t, err)
	require.Len(t, plan.Ops, 1)
	assert.Nil(t, plan.Ops[0].NewParent)
	assert.True(t, plan.Ops[0].NewLocal.Position.ApproxEqualThreshold(mgl64.Vec3{5, 1, 0}, 1e-9))
}

func TestCompute_EmptyValidatedSet(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "a", Kind: scene.KindGeometry, Local: scene.IdentityTransform()},
	)
	snap := snapshotOf(t, host)
	plan, err := Compute(snap, proposal.Validated{})
	require.NoError(t, err)
	assert.Empty(t, plan.Ops)
}

func TestCompute_DepthTiesBrokenByID(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "group", Kind: scene.KindEmpty, Local: scene.IdentityTransform()},
		scene.HostObject{ID: "z", Kind: scene.KindGeometry, Local: scene.IdentityTransform()},
		scene.HostObject{ID: "a", Kind: scene.KindGeometry, Local: scene.IdentityTransform()},
	)
	snap := snapshotOf(t, host)
	plan, err := Compute(snap, proposal.Validated{Entries: []proposal.Entry{
		{Object: "z", Parent: ptr("group")},
		{Object: "a", Parent: ptr("group")},
	}})
	require.NoError(t, err)
	require.Len(t, plan.Ops, 2)
	assert.Equal(t, scene.ObjectID("a"), plan.Ops[0].Object)
	assert.Equal(t, scene.ObjectID("z"), plan.Ops[1].Object)
}
