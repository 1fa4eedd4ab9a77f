// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scene

// HostObject is one object as enumerated by the host scene. Local is the
// transform relative to the object's current parent (or to root when
// unparented); the engine composes world transforms itself rather than
// trusting any host-side cache.
type HostObject struct {
	ID     ObjectID
	Name   string
	Kind   ObjectKind
	Parent *ObjectID
	Local  Transform

	Geometry *GeometryAttrs
	Light    *LightAttrs
	Camera   *CameraAttrs
}

// Host is the boundary to the live scene. The engine holds no references into
// host memory; every apply step resolves ids fresh through this interface.
//
// Implementations must make SetParentAndLocal a single observable step: an
// observer never sees the new parent with the old local transform.
type Host interface {
	// Objects enumerates every visible object. The returned slice is owned
	// by the caller. An error means the scene is unreadable, not that the
	// data is unusual.
	Objects() ([]HostObject, error)

	// Exists reports whether id still resolves to a live object.
	Exists(id ObjectID) bool

	// SetParentAndLocal re-parents id and replaces its local transform
	// atomically. A nil parent moves the object to the scene root.
	SetParentAndLocal(id ObjectID, parent *ObjectID, local Transform) error
}
