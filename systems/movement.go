package systems

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/config"
	"github.com/lixenwraith/skirmish/constant"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

// MoveOrder is one tracked movement entry.
type MoveOrder struct {
	Destination vmath.Vec3  `json:"destination"`
	Speed       float64     `json:"speed"`
	Target      core.Entity `json:"target"`
	AttackMove  bool        `json:"attackMove"`
}

// MovementSystem advances tracked entities toward their goals: plain
// waypoints, attack-move sweeps, or stand-off approaches onto a target.
type MovementSystem struct {
	world   *engine.World
	balance *config.Balance
	combat  AttackQuery
	log     *zap.Logger

	orders map[core.Entity]MoveOrder
}

func NewMovementSystem(world *engine.World, balance *config.Balance, log *zap.Logger) *MovementSystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &MovementSystem{
		world:   world,
		balance: balance,
		log:     log,
		orders:  make(map[core.Entity]MoveOrder),
	}
	world.OnRemove(func(e core.Entity) {
		delete(s.orders, e)
	})
	return s
}

// SetAttackQuery wires the combat capability. Movement is constructed
// before combat, so the cycle is closed with a setter.
func (s *MovementSystem) SetAttackQuery(q AttackQuery) {
	s.combat = q
}

func (s *MovementSystem) Priority() int {
	return constant.PriorityMovement
}

// Move orders the entity to a destination. Fails without a position.
func (s *MovementSystem) Move(e core.Entity, dest vmath.Vec3, speed float64) bool {
	return s.order(e, MoveOrder{Destination: dest, Speed: speed})
}

// AttackMove orders a sweep to dest, engaging hostiles found on the way.
func (s *MovementSystem) AttackMove(e core.Entity, dest vmath.Vec3, speed float64) bool {
	return s.order(e, MoveOrder{Destination: dest, Speed: speed, AttackMove: true})
}

// Pursue orders an approach onto a target entity. The destination is
// recomputed every tick as the optimal stand-off position.
func (s *MovementSystem) Pursue(e, target core.Entity, speed float64) bool {
	o := MoveOrder{Speed: speed, Target: target}
	if tpos, ok := s.world.Positions.Get(target); ok {
		o.Destination = tpos.Vec()
	}
	return s.order(e, o)
}

func (s *MovementSystem) order(e core.Entity, o MoveOrder) bool {
	if !s.world.Positions.Has(e) {
		return false
	}
	s.orders[e] = o
	return true
}

// StopEntity drops the tracking entry. Returns false if not tracked.
func (s *MovementSystem) StopEntity(e core.Entity) bool {
	if _, ok := s.orders[e]; !ok {
		return false
	}
	delete(s.orders, e)
	return true
}

// Moving reports whether the entity has an active order.
func (s *MovementSystem) Moving(e core.Entity) bool {
	_, ok := s.orders[e]
	return ok
}

// Order returns the tracked order for an entity.
func (s *MovementSystem) Order(e core.Entity) (MoveOrder, bool) {
	o, ok := s.orders[e]
	return o, ok
}

func (s *MovementSystem) Update(dt float64) {
	for _, e := range sortedEntities(s.orders) {
		pos, ok := s.world.Positions.Get(e)
		if !ok {
			// Position gone since the order was placed
			delete(s.orders, e)
			continue
		}
		o := s.orders[e]

		if o.Target != core.NilEntity {
			if s.combat != nil && s.combat.CanAttack(e, o.Target, true) {
				delete(s.orders, e)
				s.combat.StartAttack(e, o.Target)
				continue
			}
			tpos, ok := s.world.Positions.Get(o.Target)
			if !ok {
				delete(s.orders, e)
				continue
			}
			o.Destination = s.standoff(e, pos.Vec(), tpos.Vec())
		}

		dx := o.Destination.X - pos.X
		dz := o.Destination.Z - pos.Z
		dist := math.Hypot(dx, dz)

		if dist < constant.ArrivalEpsilon {
			s.world.Positions.Add(e, pos.At(o.Destination))
			delete(s.orders, e)
			if o.Target != core.NilEntity && s.combat != nil {
				s.combat.StartAttack(e, o.Target)
			}
			continue
		}

		step := o.Speed * dt
		if step > dist {
			step = dist
		}
		inv := step / dist
		pos.X += dx * inv
		pos.Z += dz * inv
		pos.Rotation = vmath.HeadingXZ(dx, dz)
		s.world.Positions.Add(e, pos)
		s.orders[e] = o

		if o.AttackMove && o.Target == core.NilEntity && s.combat != nil {
			s.engageOnSweep(e, pos.Vec())
		}
	}
}

// standoff computes where an attacker should hold relative to its
// target: ranged units at 80% of attack range, melee at 50%. Inside
// range the current position is held.
func (s *MovementSystem) standoff(e core.Entity, from, target vmath.Vec3) vmath.Vec3 {
	fc, ok := s.world.Factions.Get(e)
	if !ok {
		return target
	}
	attackRange := s.balance.AttackRange(unitTypeOf(s.world, e), fc.AttackType)
	if vmath.DistXZ(from, target) <= attackRange {
		return from
	}
	frac := constant.RangedStandoff
	if fc.AttackType == component.AttackMelee {
		frac = constant.MeleeStandoff
	}
	dir := vmath.Normalize(vmath.Sub(from, target))
	return vmath.Add(target, vmath.Scale(dir, attackRange*frac))
}

// MovementEntry is one serialized tracking entry.
type MovementEntry struct {
	Entity core.Entity `json:"entity"`
	Order  MoveOrder   `json:"order"`
}

// MovementSnapshot is the system's serializable state.
type MovementSnapshot struct {
	Orders []MovementEntry `json:"orders"`
}

// Snapshot exports the tracked-entity map, ascending by handle.
func (s *MovementSystem) Snapshot() MovementSnapshot {
	snap := MovementSnapshot{Orders: make([]MovementEntry, 0, len(s.orders))}
	for _, e := range sortedEntities(s.orders) {
		snap.Orders = append(snap.Orders, MovementEntry{Entity: e, Order: s.orders[e]})
	}
	return snap
}

// Restore replaces the tracked-entity map. Entries referencing entities
// without a position are rejected before any state is applied.
func (s *MovementSystem) Restore(snap MovementSnapshot) error {
	for _, entry := range snap.Orders {
		if !s.world.Positions.Has(entry.Entity) {
			return errors.Errorf("movement: order for entity %#x without position", uint64(entry.Entity))
		}
	}
	s.orders = make(map[core.Entity]MoveOrder, len(snap.Orders))
	for _, entry := range snap.Orders {
		s.orders[entry.Entity] = entry.Order
	}
	return nil
}

// engageOnSweep scans for the nearest hostile within detection radius
// (attack range plus a buffer) and, if it is already attackable, breaks
// off the waypoint and opens fire.
func (s *MovementSystem) engageOnSweep(e core.Entity, from vmath.Vec3) {
	fc, ok := s.world.Factions.Get(e)
	if !ok {
		return
	}
	detection := s.balance.AttackRange(unitTypeOf(s.world, e), fc.AttackType) + constant.AttackMoveBuffer
	target, found := nearestHostile(s.world, e, fc.Faction, from, detection)
	if !found {
		return
	}
	if s.combat.CanAttack(e, target, true) {
		delete(s.orders, e)
		s.combat.StartAttack(e, target)
	}
}
