// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
)

// fileObject is the on-disk shape of one object in a scene file. Rotation is
// a wxyz quaternion; omitted transform fields default to identity.
type fileObject struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Kind     string   `json:"kind"`
	Parent   string   `json:"parent,omitempty"`
	Position []float64 `json:"position,omitempty"`
	Rotation []float64 `json:"rotation,omitempty"`
	Scale    []float64 `json:"scale,omitempty"`

	Geometry *GeometryAttrs `json:"geometry,omitempty"`
	Light    *LightAttrs    `json:"light,omitempty"`
	Camera   *CameraAttrs   `json:"camera,omitempty"`
}

type fileScene struct {
	Name    string       `json:"name,omitempty"`
	Objects []fileObject `json:"objects"`
}

// LoadFile reads a JSON scene file into a MemScene.
func LoadFile(path string) (*MemScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: reading %s: %w", path, err)
	}
	var fs fileScene
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("scene: parsing %s: %w", path, err)
	}

	objects := make([]HostObject, 0, len(fs.Objects))
	for _, fo := range fs.Objects {
		if fo.ID == "" {
			return nil, fmt.Errorf("scene: %s: object with empty id", path)
		}
		kind, err := ParseObjectKind(fo.Kind)
		if err != nil {
			return nil, fmt.Errorf("scene: %s: object %q: %w", path, fo.ID, err)
		}
		local := IdentityTransform()
		if len(fo.Position) == 3 {
			local.Position = mgl64.Vec3{fo.Position[0], fo.Position[1], fo.Position[2]}
		}
		if len(fo.Rotation) == 4 {
			local.Rotation = mgl64.Quat{
				W: fo.Rotation[0],
				V: mgl64.Vec3{fo.Rotation[1], fo.Rotation[2], fo.Rotation[3]},
			}.Normalize()
		}
		if len(fo.Scale) == 3 {
			local.Scale = mgl64.Vec3{fo.Scale[0], fo.Scale[1], fo.Scale[2]}
		}
		name := fo.Name
		if name == "" {
			name = fo.ID
		}
		obj := HostObject{
			ID:       ObjectID(fo.ID),
			Name:     name,
			Kind:     kind,
			Local:    local,
			Geometry: fo.Geometry,
			Light:    fo.Light,
			Camera:   fo.Camera,
		}
		if fo.Parent != "" {
			parent := ObjectID(fo.Parent)
			obj.Parent = &parent
		}
		objects = append(objects, obj)
	}
	return NewMemScene(objects...), nil
}

// SaveFile writes the scene back out in the same JSON shape, preserving
// enumeration order.
func (s *MemScene) SaveFile(path string) error {
	hostObjects, err := s.Objects()
	if err != nil {
		return err
	}
	fs := fileScene{Objects: make([]fileObject, 0, len(hostObjects))}
	for _, obj := range hostObjects {
		fo := fileObject{
			ID:   string(obj.ID),
			Name: obj.Name,
			Kind: obj.Kind.String(),
			Position: []float64{
				obj.Local.Position.X(), obj.Local.Position.Y(), obj.Local.Position.Z(),
			},
			Rotation: []float64{
				obj.Local.Rotation.W,
				obj.Local.Rotation.V.X(), obj.Local.Rotation.V.Y(), obj.Local.Rotation.V.Z(),
			},
			Scale: []float64{
				obj.Local.Scale.X(), obj.Local.Scale.Y(), obj.Local.Scale.Z(),
			},
			Geometry: obj.Geometry,
			Light:    obj.Light,
			Camera:   obj.Camera,
		}
		if obj.Parent != nil {
			fo.Parent = string(*obj.Parent)
		}
		fs.Objects = append(fs.Objects, fo)
	}
	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
