// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scene defines the object model shared by every organizer component:
// object records, immutable scene snapshots, and the narrow Host boundary
// through which the live scene is read and mutated.
//
// A snapshot is a value object. Once built by the extractor it is handed
// read-only to the validator and reconciler; nothing in this package mutates
// a snapshot after construction.
package scene

import (
	"fmt"
)

// ObjectID identifies a scene object within a single snapshot. IDs are stable
// for the duration of one run and are never reused across runs.
type ObjectID string

// ObjectKind classifies a scene object.
type ObjectKind int

const (
	// KindGeometry is a mesh-bearing object.
	KindGeometry ObjectKind = iota

	// KindLight is a light source.
	KindLight

	// KindCamera is a camera.
	KindCamera

	// KindEmpty is a transform-only grouping object.
	KindEmpty
)

// String returns the wire name for the kind.
func (k ObjectKind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindLight:
		return "light"
	case KindCamera:
		return "camera"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// ParseObjectKind converts a wire name back into an ObjectKind.
func ParseObjectKind(s string) (ObjectKind, error) {
	switch s {
	case "geometry", "mesh":
		return KindGeometry, nil
	case "light":
		return KindLight, nil
	case "camera":
		return KindCamera, nil
	case "empty", "group":
		return KindEmpty, nil
	default:
		return KindEmpty, fmt.Errorf("scene: unknown object kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ObjectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ObjectKind) UnmarshalText(b []byte) error {
	kind, err := ParseObjectKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// GeometryAttrs carries mesh statistics for reporting and prompt context.
// Hierarchy logic never reads these.
type GeometryAttrs struct {
	VertexCount int        `json:"vertex_count"`
	FaceCount   int        `json:"face_count"`
	Dimensions  [3]float64 `json:"dimensions,omitempty"`
	Materials   []string   `json:"materials,omitempty"`
}

// LightAttrs carries light parameters.
type LightAttrs struct {
	LightType string     `json:"light_type"`
	Color     [3]float64 `json:"color"`
	Energy    float64    `json:"energy"`
}

// CameraAttrs carries camera parameters.
type CameraAttrs struct {
	Lens        float64 `json:"lens"`
	SensorWidth float64 `json:"sensor_width"`
	ClipStart   float64 `json:"clip_start"`
	ClipEnd     float64 `json:"clip_end"`
}

// ObjectRecord is one object's flat description inside a snapshot.
//
// World is always expressed in absolute (root) space, independent of the
// object's current parenting. It is the single source of truth the reconciler
// preserves across re-parenting.
type ObjectRecord struct {
	ID     ObjectID   `json:"id"`
	Name   string     `json:"name"`
	Kind   ObjectKind `json:"kind"`
	World  Transform  `json:"world"`
	Parent *ObjectID  `json:"parent,omitempty"`

	Geometry *GeometryAttrs `json:"geometry,omitempty"`
	Light    *LightAttrs    `json:"light,omitempty"`
	Camera   *CameraAttrs   `json:"camera,omitempty"`
}

// Snapshot is an immutable description of the scene at extraction time.
type Snapshot struct {
	// Objects holds one record per visible object, in host enumeration order.
	Objects []ObjectRecord `json:"objects"`

	// Edges maps every object to its parent (nil for roots). Edges always
	// form a forest; ValidateForest enforces this at construction.
	Edges map[ObjectID]*ObjectID `json:"edges"`
}

// KnownIDs returns the set of ids present in the snapshot.
func (s *Snapshot) KnownIDs() map[ObjectID]bool {
	known := make(map[ObjectID]bool, len(s.Objects))
	for i := range s.Objects {
		known[s.Objects[i].ID] = true
	}
	return known
}

// Record returns the record for id, or nil if the snapshot does not contain it.
func (s *Snapshot) Record(id ObjectID) *ObjectRecord {
	for i := range s.Objects {
		if s.Objects[i].ID == id {
			return &s.Objects[i]
		}
	}
	return nil
}

// ValidateForest checks that Edges forms a valid forest: every non-nil parent
// exists as a key, and no object is its own ancestor.
func (s *Snapshot) ValidateForest() error {
	return ValidateForest(s.Edges)
}

// ValidateForest checks an arbitrary parent map for forest shape.
func ValidateForest(edges map[ObjectID]*ObjectID) error {
	for id, parent := range edges {
		if parent == nil {
			continue
		}
		if _, ok := edges[*parent]; !ok {
			return fmt.Errorf("scene: object %q has dangling parent %q", id, *parent)
		}
	}
	for id := range edges {
		seen := map[ObjectID]bool{id: true}
		cur := edges[id]
		for cur != nil {
			if seen[*cur] {
				return fmt.Errorf("scene: cycle through object %q", *cur)
			}
			seen[*cur] = true
			cur = edges[*cur]
		}
	}
	return nil
}

// Depth returns the number of ancestors of id in edges. The caller must have
// verified the map is a forest; a cycle would not terminate.
func Depth(edges map[ObjectID]*ObjectID, id ObjectID) int {
	depth := 0
	for cur := edges[id]; cur != nil; cur = edges[*cur] {
		depth++
	}
	return depth
}
