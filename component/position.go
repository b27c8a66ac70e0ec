package component

import (
	"github.com/lixenwraith/skirmish/vmath"
)

// PositionComponent is an entity's location and facing.
// Rotation is the facing angle in radians on the XZ plane.
type PositionComponent struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
}

// Vec returns the position as a vector.
func (p PositionComponent) Vec() vmath.Vec3 {
	return vmath.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// At returns a copy of p moved to v, keeping the facing.
func (p PositionComponent) At(v vmath.Vec3) PositionComponent {
	p.X, p.Y, p.Z = v.X, v.Y, v.Z
	return p
}
