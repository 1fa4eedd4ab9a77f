// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// promptObject is the per-object payload sent to the backend. World
// transforms are omitted for prompt economy; they never influence hierarchy
// reasoning.
type promptObject struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Parent string `json:"parent,omitempty"`

	Geometry *scene.GeometryAttrs `json:"geometry,omitempty"`
	Light    *scene.LightAttrs    `json:"light,omitempty"`
	Camera   *scene.CameraAttrs   `json:"camera,omitempty"`
}

const promptHeader = `Analyze the following 3D scene and propose a better object hierarchy.

1. Scene Context Analysis:
   - Identify the overall theme and scene type (architectural, environment, props, technical).
   - Group objects that belong together spatially or semantically.

2. Hierarchy Rules:
   - Every entry maps an object id to the id of its proposed parent.
   - Use an empty string for objects that should sit at the scene root.
   - Only reference object ids that appear in the scene data below.
   - Prefer parenting under "empty" grouping objects where they exist.
   - Omit objects whose current parent is already appropriate.

Respond with exactly one JSON object in this schema and nothing else:

{
  "hierarchy": {
    "object_id": "parent_object_id",
    "other_object_id": ""
  }
}

Scene Data:
`

// BuildPrompt serializes the snapshot into the organization prompt.
func BuildPrompt(snap *scene.Snapshot) (string, error) {
	objects := make([]promptObject, 0, len(snap.Objects))
	for i := range snap.Objects {
		rec := &snap.Objects[i]
		po := promptObject{
			ID:       string(rec.ID),
			Name:     rec.Name,
			Kind:     rec.Kind.String(),
			Geometry: rec.Geometry,
			Light:    rec.Light,
			Camera:   rec.Camera,
		}
		if rec.Parent != nil {
			po.Parent = string(*rec.Parent)
		}
		objects = append(objects, po)
	}
	data, err := json.MarshalIndent(map[string]any{"objects": objects}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("backend: serializing scene data: %w", err)
	}

	var b strings.Builder
	b.Grow(len(promptHeader) + len(data))
	b.WriteString(promptHeader)
	b.Write(data)
	return b.String(), nil
}
