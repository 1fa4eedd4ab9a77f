// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an affine TRS transform: translation, rotation, and
// (possibly non-uniform) scale. Composition is full affine: the matrix is
// T·R·S and products of transforms are computed through their matrices.
//
// Convention: decomposing a matrix back into TRS assumes the matrix has no
// shear, which holds for any product of TRS matrices the engine produces.
// Scale signs are folded into rotation except for a uniform flip, which is
// assigned to the X scale component (Blender-style).
type Transform struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Quat `json:"rotation"`
	Scale    mgl64.Vec3 `json:"scale"`
}

// IdentityTransform returns the identity transform.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Matrix returns the 4x4 column-major matrix T·R·S.
func (t Transform) Matrix() mgl64.Mat4 {
	translate := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Normalize().Mat4()
	scale := mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

// Mul composes t with child: the result places child inside t's space.
func (t Transform) Mul(child Transform) Transform {
	return FromMatrix(t.Matrix().Mul4(child.Matrix()))
}

// RelativeTo re-expresses t (a world transform) relative to parent (also a
// world transform): result = inverse(parent) * t. Passing a nil parent
// returns t unchanged, since root space is world space.
func (t Transform) RelativeTo(parent *Transform) Transform {
	if parent == nil {
		return t
	}
	return FromMatrix(parent.Matrix().Inv().Mul4(t.Matrix()))
}

// FromMatrix decomposes a shear-free affine matrix into a Transform.
func FromMatrix(m mgl64.Mat4) Transform {
	position := mgl64.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}

	basisX := mgl64.Vec3{m.At(0, 0), m.At(1, 0), m.At(2, 0)}
	basisY := mgl64.Vec3{m.At(0, 1), m.At(1, 1), m.At(2, 1)}
	basisZ := mgl64.Vec3{m.At(0, 2), m.At(1, 2), m.At(2, 2)}

	scale := mgl64.Vec3{basisX.Len(), basisY.Len(), basisZ.Len()}

	// A negative determinant means an odd number of axis flips. Assign the
	// flip to X so the remaining basis is a proper rotation.
	det := m.Det()
	if det < 0 {
		scale[0] = -scale[0]
	}

	rot := mgl64.Ident3()
	if scale.X() != 0 && scale.Y() != 0 && scale.Z() != 0 {
		rx := basisX.Mul(1 / scale.X())
		ry := basisY.Mul(1 / scale.Y())
		rz := basisZ.Mul(1 / scale.Z())
		rot = mgl64.Mat3FromCols(rx, ry, rz)
	}

	return Transform{
		Position: position,
		Rotation: mgl64.Mat4ToQuat(rot.Mat4()).Normalize(),
		Scale:    scale,
	}
}

// ApproxEqual reports whether two transforms agree within eps. Rotations are
// compared up to sign, since q and -q encode the same orientation.
func (t Transform) ApproxEqual(other Transform, eps float64) bool {
	if !t.Position.ApproxEqualThreshold(other.Position, eps) {
		return false
	}
	if !t.Scale.ApproxEqualThreshold(other.Scale, eps) {
		return false
	}
	qa := t.Rotation.Normalize()
	qb := other.Rotation.Normalize()
	dot := qa.Dot(qb)
	return math.Abs(math.Abs(dot)-1) < eps
}
