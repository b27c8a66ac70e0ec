package vmath

import (
	"math"
)

// Vec3 is a float64 3D vector. Y is elevation; tactical movement and
// range checks operate on the XZ plane.
type Vec3 struct {
	X, Y, Z float64
}

func Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Scale(v Vec3, s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func MagSq(v Vec3) float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func Mag(v Vec3) float64 {
	return math.Sqrt(MagSq(v))
}

func Normalize(v Vec3) Vec3 {
	mag := Mag(v)
	if mag == 0 {
		return Vec3{}
	}
	inv := 1.0 / mag
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}
