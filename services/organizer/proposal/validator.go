// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package proposal

import (
	"fmt"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// WarningKind classifies why a proposal entry was dropped.
type WarningKind int

const (
	// WarnUnknownObject: the entry's object id is not in the snapshot.
	WarnUnknownObject WarningKind = iota

	// WarnUnknownParent: the proposed parent id is not in the snapshot.
	// The object keeps its current parent.
	WarnUnknownParent

	// WarnSelfParent: the entry proposed parenting an object to itself.
	WarnSelfParent

	// WarnCycleRejected: accepting the entry would close a cycle in the
	// target forest.
	WarnCycleRejected

	// WarnMalformedResponse: the backend response carried no decodable
	// proposal at all; the run proceeds with zero edits.
	WarnMalformedResponse
)

// String returns the warning kind's wire name.
func (k WarningKind) String() string {
	switch k {
	case WarnUnknownObject:
		return "unknown_object"
	case WarnUnknownParent:
		return "unknown_parent"
	case WarnSelfParent:
		return "self_parent"
	case WarnCycleRejected:
		return "cycle_rejected"
	case WarnMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Warning records one dropped entry. Warnings are ordered by the proposal
// entry that produced them.
type Warning struct {
	Kind   WarningKind    `json:"kind"`
	Object scene.ObjectID `json:"object,omitempty"`
	Parent scene.ObjectID `json:"parent,omitempty"`
	Detail string         `json:"detail,omitempty"`
}

func (w Warning) String() string {
	if w.Detail != "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
	return w.Kind.String()
}

// Validated is the subset of proposal entries guaranteed to overlay onto the
// snapshot's current edges as a valid forest: every referenced id exists, no
// object parents itself, and no entry closes a cycle.
type Validated struct {
	Entries []Entry
}

// Validate applies the per-entry validation rules against the snapshot's
// known ids and current edges. One bad entry never invalidates the rest.
//
// Cycle checking is incremental in proposal order: each entry is tested
// against current edges overlaid with the edits accepted so far, so the
// first offender of a would-be cycle is dropped and later entries are
// re-evaluated against the reduced graph.
func Validate(p Proposal, snap *scene.Snapshot) (Validated, []Warning) {
	var warnings []Warning
	if p.Malformed {
		warnings = append(warnings, Warning{
			Kind:   WarnMalformedResponse,
			Detail: "backend response carried no decodable proposal",
		})
		return Validated{}, warnings
	}

	known := snap.KnownIDs()

	// Working forest: current edges overlaid with accepted edits.
	working := make(map[scene.ObjectID]*scene.ObjectID, len(snap.Edges))
	for id, parent := range snap.Edges {
		working[id] = parent
	}

	var accepted []Entry
	for _, entry := range p.Entries {
		if !known[entry.Object] {
			warnings = append(warnings, Warning{
				Kind:   WarnUnknownObject,
				Object: entry.Object,
				Detail: fmt.Sprintf("object %q is not in the snapshot", entry.Object),
			})
			continue
		}
		if entry.Parent != nil && !known[*entry.Parent] {
			warnings = append(warnings, Warning{
				Kind:   WarnUnknownParent,
				Object: entry.Object,
				Parent: *entry.Parent,
				Detail: fmt.Sprintf("parent %q of object %q is not in the snapshot", *entry.Parent, entry.Object),
			})
			continue
		}
		if entry.Parent != nil && *entry.Parent == entry.Object {
			warnings = append(warnings, Warning{
				Kind:   WarnSelfParent,
				Object: entry.Object,
				Detail: fmt.Sprintf("object %q proposed as its own parent", entry.Object),
			})
			continue
		}
		if entry.Parent != nil && closesCycle(working, entry.Object, *entry.Parent) {
			warnings = append(warnings, Warning{
				Kind:   WarnCycleRejected,
				Object: entry.Object,
				Parent: *entry.Parent,
				Detail: fmt.Sprintf("parenting %q under %q would create a cycle", entry.Object, *entry.Parent),
			})
			continue
		}
		working[entry.Object] = entry.Parent
		accepted = append(accepted, entry)
	}

	return Validated{Entries: accepted}, warnings
}

// closesCycle reports whether parenting object under parent would make
// object its own ancestor in the working forest.
func closesCycle(edges map[scene.ObjectID]*scene.ObjectID, object, parent scene.ObjectID) bool {
	for cur := &parent; cur != nil; cur = edges[*cur] {
		if *cur == object {
			return true
		}
	}
	return false
}
