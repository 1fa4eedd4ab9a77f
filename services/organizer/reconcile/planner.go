// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package reconcile turns a validated proposal into an ordered re-parent
// plan and applies it against the live scene.
//
// The reconciler is the only component permitted to mutate the scene.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/proposal"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// Op is one re-parent operation: assign NewParent and NewLocal to Object as
// a single host step. NewLocal is precomputed so the object's world pose is
// unchanged by the operation.
type Op struct {
	Object    scene.ObjectID  `json:"object"`
	NewParent *scene.ObjectID `json:"new_parent,omitempty"`
	NewLocal  scene.Transform `json:"new_local"`
}

// Plan is the ordered sequence of operations for one apply pass. Ephemeral:
// it is derived from one snapshot and discarded after apply.
type Plan struct {
	Ops []Op `json:"ops"`
}

// Compute derives the minimal plan that moves the snapshot's hierarchy to
// the validated target forest.
//
// Operations are ordered by increasing depth in the target forest, so every
// object's new parent has already reached its own final position (or is the
// root) by the time the object moves. Since the target forest is acyclic by
// construction, this ordering also never passes through a transient cycle.
//
// Each operation's new local transform is inverse(parent world) * object
// world, both taken from the snapshot. Parent worlds are unchanged by the
// plan (re-parenting preserves world poses), so snapshot values remain valid
// for every operation in the pass.
func Compute(snap *scene.Snapshot, validated proposal.Validated) (Plan, error) {
	// Target forest: current edges overlaid with accepted edits. Duplicate
	// entries for one object collapse to the last accepted edit.
	target := make(map[scene.ObjectID]*scene.ObjectID, len(snap.Edges))
	for id, parent := range snap.Edges {
		target[id] = parent
	}
	for _, entry := range validated.Entries {
		target[entry.Object] = entry.Parent
	}
	if err := scene.ValidateForest(target); err != nil {
		// Validation guarantees this never happens; a failure here means
		// the caller handed an unvalidated proposal.
		return Plan{}, fmt.Errorf("reconcile: target is not a forest: %w", err)
	}

	var moved []scene.ObjectID
	for id, newParent := range target {
		if !sameParent(snap.Edges[id], newParent) {
			moved = append(moved, id)
		}
	}

	// Shallow targets first; ties broken by id for deterministic plans.
	depths := make(map[scene.ObjectID]int, len(moved))
	for _, id := range moved {
		depths[id] = scene.Depth(target, id)
	}
	sort.Slice(moved, func(i, j int) bool {
		if depths[moved[i]] != depths[moved[j]] {
			return depths[moved[i]] < depths[moved[j]]
		}
		return moved[i] < moved[j]
	})

	plan := Plan{Ops: make([]Op, 0, len(moved))}
	for _, id := range moved {
		record := snap.Record(id)
		if record == nil {
			return Plan{}, fmt.Errorf("reconcile: no snapshot record for %q", id)
		}
		newParent := target[id]
		var parentWorld *scene.Transform
		if newParent != nil {
			parentRecord := snap.Record(*newParent)
			if parentRecord == nil {
				return Plan{}, fmt.Errorf("reconcile: no snapshot record for parent %q", *newParent)
			}
			parentWorld = &parentRecord.World
		}
		plan.Ops = append(plan.Ops, Op{
			Object:    id,
			NewParent: newParent,
			NewLocal:  record.World.RelativeTo(parentWorld),
		})
	}
	return plan, nil
}

func sameParent(a, b *scene.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
