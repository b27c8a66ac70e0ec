package engine

import (
	"math"

	"github.com/lixenwraith/skirmish/core"
)

// CellKey addresses one spatial hash cell by truncated-division
// coordinates on the XZ plane.
type CellKey struct {
	X, Z int32
}

// SpatialHash buckets entities into square cells for broad-phase
// queries. Unlike a dense screen grid the tactical map has no fixed
// extent, so cells are allocated on demand.
type SpatialHash struct {
	cellSize float64
	cells    map[CellKey][]core.Entity
}

// NewSpatialHash creates a grid with the given cell edge length.
func NewSpatialHash(cellSize float64) *SpatialHash {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialHash{
		cellSize: cellSize,
		cells:    make(map[CellKey][]core.Entity),
	}
}

// CellSize returns the cell edge length.
func (g *SpatialHash) CellSize() float64 {
	return g.cellSize
}

// KeyFor maps a world position to its cell.
func (g *SpatialHash) KeyFor(x, z float64) CellKey {
	return CellKey{
		X: int32(math.Floor(x / g.cellSize)),
		Z: int32(math.Floor(z / g.cellSize)),
	}
}

// Insert adds an entity to a cell. Duplicate inserts are ignored.
func (g *SpatialHash) Insert(e core.Entity, key CellKey) {
	bucket := g.cells[key]
	for _, other := range bucket {
		if other == e {
			return
		}
	}
	g.cells[key] = append(bucket, e)
}

// Remove deletes an entity from a cell. Returns false if absent.
func (g *SpatialHash) Remove(e core.Entity, key CellKey) bool {
	bucket, ok := g.cells[key]
	if !ok {
		return false
	}
	for i, other := range bucket {
		if other == e {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(g.cells, key)
			} else {
				g.cells[key] = bucket
			}
			return true
		}
	}
	return false
}

// Move re-buckets an entity between cells.
func (g *SpatialHash) Move(e core.Entity, from, to CellKey) {
	if from == to {
		return
	}
	g.Remove(e, from)
	g.Insert(e, to)
}

// Neighborhood appends every occupant of the 3x3 cell block around key
// to buf and returns it. Cells are visited in a fixed order so results
// are deterministic; callers still narrow-phase by true distance.
func (g *SpatialHash) Neighborhood(key CellKey, buf []core.Entity) []core.Entity {
	for dz := int32(-1); dz <= 1; dz++ {
		for dx := int32(-1); dx <= 1; dx++ {
			buf = append(buf, g.cells[CellKey{X: key.X + dx, Z: key.Z + dz}]...)
		}
	}
	return buf
}

// Len returns the number of occupied cells.
func (g *SpatialHash) Len() int {
	return len(g.cells)
}

// Clear drops every bucket.
func (g *SpatialHash) Clear() {
	g.cells = make(map[CellKey][]core.Entity)
}
