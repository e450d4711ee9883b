// Package mathx provides the small vector and matrix helpers the simulation
// layers share on top of mgl64.
package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 aliases the mgl64 column vector used for positions, velocities and colors.
type Vec3 = mgl64.Vec3

// Mat4 aliases the mgl64 4x4 matrix used for model and view transforms.
type Mat4 = mgl64.Mat4

// normalizeEpsilon bounds the squared length below which a vector counts as degenerate.
const normalizeEpsilon = 1e-9

// Up is the world up axis used as the fallback for degenerate normals.
var Up = Vec3{0, 1, 0}

// SafeNormalize returns the unit vector for v, or fallback when v is too short
// to normalize without amplifying floating point noise.
func SafeNormalize(v, fallback Vec3) Vec3 {
	lenSq := v.Dot(v)
	if lenSq < normalizeEpsilon {
		return fallback
	}
	return v.Mul(1 / math.Sqrt(lenSq))
}

// Lerp interpolates linearly between a and b by the unclamped factor t.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// ClampMagnitude rescales v so its length never exceeds limit. Non-positive
// limits disable the guard.
func ClampMagnitude(v Vec3, limit float64) Vec3 {
	if !(limit > 0) {
		return v
	}
	lenSq := v.Dot(v)
	if lenSq <= limit*limit {
		return v
	}
	return v.Mul(limit / math.Sqrt(lenSq))
}

// Clamp bounds value into the inclusive [lo, hi] range.
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// WrapDegrees normalizes an angle to the [0, 360) range.
func WrapDegrees(angle float64) float64 {
	//1.- Use math.Mod so the value stays bounded across long simulations.
	wrapped := math.Mod(angle, 360.0)
	if wrapped < 0 {
		wrapped += 360.0
	}
	return wrapped
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

// ModelMatrix composes translate * rotateY * rotateX * scale with angles in degrees,
// matching the transform order renderers expect for simulation bodies.
func ModelMatrix(position Vec3, rotYDeg, rotXDeg float64, scale Vec3) Mat4 {
	m := mgl64.Translate3D(position.X(), position.Y(), position.Z())
	m = m.Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(rotYDeg)))
	m = m.Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(rotXDeg)))
	return m.Mul4(mgl64.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// LookAt builds a view matrix from the camera eye toward the target point.
func LookAt(eye, target Vec3) Mat4 {
	return mgl64.LookAtV(eye, target, Up)
}

// Perspective builds a projection matrix with the vertical field of view in degrees.
func Perspective(fovYDeg, aspect, near, far float64) Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(fovYDeg), aspect, near, far)
}
