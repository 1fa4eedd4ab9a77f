// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scene

import (
	"fmt"
	"sort"
	"sync"
)

// MemScene is an in-memory Host implementation. It backs the file-based CLI
// mode and the test suites; a production host adapter (e.g. a DCC bridge)
// implements the same interface against live editor state.
type MemScene struct {
	mu      sync.Mutex
	objects map[ObjectID]*HostObject
	order   []ObjectID
}

// NewMemScene builds a scene from object definitions. Enumeration order
// follows the order given here.
func NewMemScene(objects ...HostObject) *MemScene {
	s := &MemScene{objects: make(map[ObjectID]*HostObject, len(objects))}
	for i := range objects {
		obj := objects[i]
		if _, dup := s.objects[obj.ID]; dup {
			continue
		}
		s.objects[obj.ID] = &obj
		s.order = append(s.order, obj.ID)
	}
	return s
}

// Objects implements Host.
func (s *MemScene) Objects() ([]HostObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HostObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.objects[id])
	}
	return out, nil
}

// Exists implements Host.
func (s *MemScene) Exists(id ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[id]
	return ok
}

// SetParentAndLocal implements Host.
func (s *MemScene) SetParentAndLocal(id ObjectID, parent *ObjectID, local Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("scene: object %q does not exist", id)
	}
	if parent != nil {
		if _, ok := s.objects[*parent]; !ok {
			return fmt.Errorf("scene: parent %q does not exist", *parent)
		}
		// A real host refuses re-parents that would close a cycle.
		for cur := parent; cur != nil; cur = s.objects[*cur].Parent {
			if *cur == id {
				return fmt.Errorf("scene: parenting %q under %q would create a cycle", id, *parent)
			}
		}
	}
	obj.Parent = parent
	obj.Local = local
	return nil
}

// Remove deletes an object. Used by tests to simulate objects vanishing
// between snapshot and apply.
func (s *MemScene) Remove(id ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		return
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	// Children of a removed object fall back to root.
	for _, obj := range s.objects {
		if obj.Parent != nil && *obj.Parent == id {
			obj.Parent = nil
		}
	}
}

// WorldTransform composes the object's world transform from its local chain.
// Returns an error on unknown ids or a broken parent chain.
func (s *MemScene) WorldTransform(id ObjectID) (Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chain []Transform
	seen := make(map[ObjectID]bool)
	cur := id
	for {
		obj, ok := s.objects[cur]
		if !ok {
			return Transform{}, fmt.Errorf("scene: object %q does not exist", cur)
		}
		if seen[cur] {
			return Transform{}, fmt.Errorf("scene: cycle through object %q", cur)
		}
		seen[cur] = true
		chain = append(chain, obj.Local)
		if obj.Parent == nil {
			break
		}
		cur = *obj.Parent
	}
	world := IdentityTransform()
	for i := len(chain) - 1; i >= 0; i-- {
		world = world.Mul(chain[i])
	}
	return world, nil
}

// Parent returns the current parent of id, if the object exists.
func (s *MemScene) Parent(id ObjectID) (*ObjectID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, false
	}
	return obj.Parent, true
}

// Children returns the ids currently parented under id, sorted for stable
// test assertions.
func (s *MemScene) Children(id ObjectID) []ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ObjectID
	for oid, obj := range s.objects {
		if obj.Parent != nil && *obj.Parent == id {
			out = append(out, oid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
