package systems

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/constant"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

// CollisionSystem maintains a spatial hash of registered entities and
// answers circle-overlap queries on the XZ plane. Radii are derived
// from render scale at registration and stay fixed for the entity's
// lifetime.
type CollisionSystem struct {
	world *engine.World
	log   *zap.Logger
	grid  *engine.SpatialHash

	radii  map[core.Entity]float64
	static map[core.Entity]bool
	cells  map[core.Entity]engine.CellKey
}

func NewCollisionSystem(world *engine.World, cellSize float64, log *zap.Logger) *CollisionSystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CollisionSystem{
		world:  world,
		log:    log,
		grid:   engine.NewSpatialHash(cellSize),
		radii:  make(map[core.Entity]float64),
		static: make(map[core.Entity]bool),
		cells:  make(map[core.Entity]engine.CellKey),
	}
	world.OnRemove(func(e core.Entity) {
		s.UnregisterEntity(e)
	})
	return s
}

func (s *CollisionSystem) Priority() int {
	return constant.PriorityCollision
}

// RegisterEntity starts tracking an entity. Static entities are never
// re-bucketed on update. Returns false when the entity has no position.
func (s *CollisionSystem) RegisterEntity(e core.Entity, isStatic bool) bool {
	pos, ok := s.world.Positions.Get(e)
	if !ok {
		return false
	}

	scale := 1.0
	if r, ok := s.world.Renders.Get(e); ok && r.Scale > 0 {
		scale = r.Scale
	}
	radius := 0.5 * scale
	if s.world.Buildings.Has(e) {
		radius *= constant.BuildingRadiusScale
	}
	if radius < constant.MinCollisionRadius {
		radius = constant.MinCollisionRadius
	}

	key := s.grid.KeyFor(pos.X, pos.Z)
	s.grid.Insert(e, key)
	s.radii[e] = radius
	s.static[e] = isStatic
	s.cells[e] = key
	return true
}

// UnregisterEntity stops tracking an entity. False if it was not
// tracked.
func (s *CollisionSystem) UnregisterEntity(e core.Entity) bool {
	key, ok := s.cells[e]
	if !ok {
		return false
	}
	s.grid.Remove(e, key)
	delete(s.radii, e)
	delete(s.static, e)
	delete(s.cells, e)
	return true
}

// Registered reports whether the entity is tracked.
func (s *CollisionSystem) Registered(e core.Entity) bool {
	_, ok := s.cells[e]
	return ok
}

// Radius returns the collision radius assigned at registration.
func (s *CollisionSystem) Radius(e core.Entity) (float64, bool) {
	r, ok := s.radii[e]
	return r, ok
}

// CheckCollision reports whether placing e at candidate would overlap
// any other tracked entity. Untracked entities never collide.
func (s *CollisionSystem) CheckCollision(e core.Entity, candidate vmath.Vec3) bool {
	radius, ok := s.radii[e]
	if !ok {
		return false
	}

	key := s.grid.KeyFor(candidate.X, candidate.Z)
	var buf [64]core.Entity
	for _, other := range s.grid.Neighborhood(key, buf[:0]) {
		if other == e {
			continue
		}
		otherPos, ok := s.world.Positions.Get(other)
		if !ok {
			continue
		}
		minDist := radius + s.radii[other]
		if vmath.DistSqXZ(candidate, otherPos.Vec()) < minDist*minDist {
			return true
		}
	}
	return false
}

// FindNearestValidPosition probes outward from target in an expanding
// spiral and returns the first collision-free spot. When every probe
// collides it falls back to the given fallback position.
func (s *CollisionSystem) FindNearestValidPosition(e core.Entity, target, fallback vmath.Vec3) vmath.Vec3 {
	if !s.CheckCollision(e, target) {
		return target
	}
	radius := s.radii[e]
	if radius <= 0 {
		radius = constant.MinCollisionRadius
	}

	angleStep := constant.FullCircle / float64(constant.MaxPlacementAttempts)
	for i := 1; i <= constant.MaxPlacementAttempts; i++ {
		dist := float64(i) * radius * 2
		angle := float64(i) * angleStep
		candidate := vmath.Vec3{
			X: target.X + math.Sin(angle)*dist,
			Y: target.Y,
			Z: target.Z + math.Cos(angle)*dist,
		}
		if !s.CheckCollision(e, candidate) {
			return candidate
		}
	}
	return fallback
}

// Update re-buckets mobile entities whose cell changed since the last
// tick. Entities that lost their position are dropped from the grid.
func (s *CollisionSystem) Update(_ float64) {
	for _, e := range sortedEntities(s.cells) {
		if s.static[e] {
			continue
		}
		pos, ok := s.world.Positions.Get(e)
		if !ok {
			s.log.Warn("collision entity lost position", zap.Uint64("entity", uint64(e)))
			s.UnregisterEntity(e)
			continue
		}
		key := s.grid.KeyFor(pos.X, pos.Z)
		if prev := s.cells[e]; key != prev {
			s.grid.Move(e, prev, key)
			s.cells[e] = key
		}
	}
}

// --- serialization ---

// CollisionEntry is one tracked entity's serialized record.
type CollisionEntry struct {
	Entity core.Entity `json:"entity"`
	Radius float64     `json:"radius"`
	Static bool        `json:"static"`
}

// CollisionSnapshot is the system's serializable state.
type CollisionSnapshot struct {
	Entries []CollisionEntry `json:"entries"`
}

// Snapshot exports tracked entities in ascending handle order. Cell
// assignments are derivable from positions and are not recorded.
func (s *CollisionSystem) Snapshot() CollisionSnapshot {
	snap := CollisionSnapshot{Entries: make([]CollisionEntry, 0, len(s.cells))}
	for _, e := range sortedEntities(s.cells) {
		snap.Entries = append(snap.Entries, CollisionEntry{
			Entity: e,
			Radius: s.radii[e],
			Static: s.static[e],
		})
	}
	return snap
}

// Restore replaces the tracked set, re-bucketing from current world
// positions. Malformed snapshots are rejected before any state is
// applied.
func (s *CollisionSystem) Restore(snap CollisionSnapshot) error {
	for _, entry := range snap.Entries {
		if !s.world.Positions.Has(entry.Entity) {
			return errors.Errorf("collision: entity %d has no position", entry.Entity)
		}
		if entry.Radius <= 0 {
			return errors.Errorf("collision: entity %d radius %g", entry.Entity, entry.Radius)
		}
	}

	s.grid.Clear()
	s.radii = make(map[core.Entity]float64, len(snap.Entries))
	s.static = make(map[core.Entity]bool, len(snap.Entries))
	s.cells = make(map[core.Entity]engine.CellKey, len(snap.Entries))
	for _, entry := range snap.Entries {
		pos, _ := s.world.Positions.Get(entry.Entity)
		key := s.grid.KeyFor(pos.X, pos.Z)
		s.grid.Insert(entry.Entity, key)
		s.radii[entry.Entity] = entry.Radius
		s.static[entry.Entity] = entry.Static
		s.cells[entry.Entity] = key
	}
	return nil
}
