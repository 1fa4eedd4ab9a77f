// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

func ptr(id scene.ObjectID) *scene.ObjectID { return &id }

func translated(x, y, z float64) scene.Transform {
	tr := scene.IdentityTransform()
	tr.Position = mgl64.Vec3{x, y, z}
	return tr
}

// brokenHost fails enumeration; the other Host methods are never reached.
type brokenHost struct{ err error }

func (h *brokenHost) Objects() ([]scene.HostObject, error) { return nil, h.err }
func (h *brokenHost) Exists(scene.ObjectID) bool           { return false }
func (h *brokenHost) SetParentAndLocal(scene.ObjectID, *scene.ObjectID, scene.Transform) error {
	return errors.New("not implemented")
}

// cyclicHost hands back a hierarchy a sane editor would never hold, to make
// sure the extractor refuses it rather than looping.
type cyclicHost struct{}

func (h *cyclicHost) Objects() ([]scene.HostObject, error) {
	return []scene.HostObject{
		{ID: "a", Kind: scene.KindEmpty, Parent: ptr("b"), Local: scene.IdentityTransform()},
		{ID: "b", Kind: scene.KindEmpty, Parent: ptr("a"), Local: scene.IdentityTransform()},
	}, nil
}
func (h *cyclicHost) Exists(scene.ObjectID) bool { return true }
func (h *cyclicHost) SetParentAndLocal(scene.ObjectID, *scene.ObjectID, scene.Transform) error {
	return nil
}

func TestExtract_ComposesWorldTransforms(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "root", Name: "Root", Kind: scene.KindEmpty, Local: translated(1, 0, 0)},
		scene.HostObject{ID: "child", Name: "Child", Kind: scene.KindGeometry,
			Parent: ptr("root"), Local: translated(0, 2, 0)},
	)
	snap, err := Extract(host)
	require.NoError(t, err)
	require.Len(t, snap.Objects, 2)

	child := snap.Record("child")
	require.NotNil(t, child)
	assert.True(t, child.World.Position.ApproxEqualThreshold(mgl64.Vec3{1, 2, 0}, 1e-9),
		"child world must compose through the parent chain, got %v", child.World.Position)
	assert.Equal(t, scene.KindGeometry, child.Kind)
	require.NotNil(t, snap.Edges["child"])
	assert.Equal(t, scene.ObjectID("root"), *snap.Edges["child"])
}

func TestExtract_PreservesAttributes(t *testing.T) {
	host := scene.NewMemScene(
		scene.HostObject{ID: "mesh", Kind: scene.KindGeometry, Local: scene.IdentityTransform(),
			Geometry: &scene.GeometryAttrs{VertexCount: 8, FaceCount: 6,
				Dimensions: [3]float64{1, 1, 1}, Materials: []string{"wood"}}},
		scene.HostObject{ID: "lamp", Kind: scene.KindLight, Local: scene.IdentityTransform(),
			Light: &scene.LightAttrs{LightType: "point", Energy: 100}},
	)
	snap, err := Extract(host)
	require.NoError(t, err)

	mesh := snap.Record("mesh")
	require.NotNil(t, mesh.Geometry)
	assert.Equal(t, 8, mesh.Geometry.VertexCount)
	assert.Equal(t, []string{"wood"}, mesh.Geometry.Materials)

	lamp := snap.Record("lamp")
	require.NotNil(t, lamp.Light)
	assert.Equal(t, "point", lamp.Light.LightType)
}

func TestExtract_UnreadableHost(t *testing.T) {
	_, err := Extract(&brokenHost{err: errors.New("editor gone")})
	assert.ErrorIs(t, err, ErrSceneUnreadable)
}

func TestExtract_CorruptScene_Cycle(t *testing.T) {
	_, err := Extract(&cyclicHost{})
	assert.ErrorIs(t, err, ErrCorruptScene)
}

func TestExtract_EmptyScene(t *testing.T) {
	snap, err := Extract(scene.NewMemScene())
	require.NoError(t, err)
	assert.Empty(t, snap.Objects)
}
