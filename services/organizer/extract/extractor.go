// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extract builds immutable scene snapshots from a live Host.
//
// The extractor is defensive about its input: it re-derives every world
// transform from the local transform chain instead of trusting host caches,
// and it refuses to snapshot a scene whose hierarchy already contains a cycle.
package extract

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

var (
	// ErrSceneUnreadable indicates the host failed to enumerate objects.
	// Fatal: the run aborts before any mutation.
	ErrSceneUnreadable = errors.New("extract: scene unreadable")

	// ErrCorruptScene indicates the live hierarchy contains a cycle or a
	// dangling parent reference. Fatal: the scene is never touched.
	ErrCorruptScene = errors.New("extract: corrupt scene hierarchy")
)

// Extract walks the live scene once and produces a snapshot with one record
// per visible object. World transforms are composed root-down from the local
// chain recorded at enumeration time.
func Extract(host scene.Host) (*scene.Snapshot, error) {
	hostObjects, err := host.Objects()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSceneUnreadable, err)
	}

	byID := make(map[scene.ObjectID]*scene.HostObject, len(hostObjects))
	edges := make(map[scene.ObjectID]*scene.ObjectID, len(hostObjects))
	for i := range hostObjects {
		obj := &hostObjects[i]
		if _, dup := byID[obj.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate object id %q", ErrCorruptScene, obj.ID)
		}
		byID[obj.ID] = obj
		edges[obj.ID] = obj.Parent
	}
	if err := scene.ValidateForest(edges); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptScene, err)
	}

	// The forest is valid, so world composition by memoized recursion over
	// parent chains terminates.
	worlds := make(map[scene.ObjectID]scene.Transform, len(hostObjects))
	var worldOf func(id scene.ObjectID) scene.Transform
	worldOf = func(id scene.ObjectID) scene.Transform {
		if w, ok := worlds[id]; ok {
			return w
		}
		obj := byID[id]
		w := obj.Local
		if obj.Parent != nil {
			w = worldOf(*obj.Parent).Mul(obj.Local)
		}
		worlds[id] = w
		return w
	}

	snap := &scene.Snapshot{
		Objects: make([]scene.ObjectRecord, 0, len(hostObjects)),
		Edges:   edges,
	}
	for i := range hostObjects {
		obj := &hostObjects[i]
		snap.Objects = append(snap.Objects, scene.ObjectRecord{
			ID:       obj.ID,
			Name:     obj.Name,
			Kind:     obj.Kind,
			World:    worldOf(obj.ID),
			Parent:   obj.Parent,
			Geometry: obj.Geometry,
			Light:    obj.Light,
			Camera:   obj.Camera,
		})
	}

	slog.Debug("scene snapshot extracted", "objects", len(snap.Objects))
	return snap, nil
}
