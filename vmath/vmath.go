package vmath

import (
	"math"
)

// DistSqXZ returns the squared planar distance between two points.
// Preferred in hot paths to avoid the square root.
func DistSqXZ(a, b Vec3) float64 {
	dx := b.X - a.X
	dz := b.Z - a.Z
	return dx*dx + dz*dz
}

// DistXZ returns the planar distance between two points.
func DistXZ(a, b Vec3) float64 {
	return math.Sqrt(DistSqXZ(a, b))
}

// HeadingXZ returns the facing angle toward (dx, dz) in radians.
func HeadingXZ(dx, dz float64) float64 {
	return math.Atan2(dx, dz)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
