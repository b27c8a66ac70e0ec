package systems

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/config"
	"github.com/lixenwraith/skirmish/constant"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

// AIState is the controller's finite state.
type AIState uint8

const (
	StateIdle AIState = iota
	StatePursue
	StateAttack
	StateRetreat
	// Gather and Patrol are reserved for the economy and garrison
	// layers; the core controller never enters them.
	StateGather
	StatePatrol
)

func (s AIState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePursue:
		return "pursue"
	case StateAttack:
		return "attack"
	case StateRetreat:
		return "retreat"
	case StateGather:
		return "gather"
	case StatePatrol:
		return "patrol"
	}
	return "unknown"
}

// ControlBlock is one entity's decision state.
type ControlBlock struct {
	State         AIState     `json:"state"`
	Target        core.Entity `json:"target"`
	DecisionTimer float64     `json:"decisionTimer"`
	StartPosition vmath.Vec3  `json:"startPosition"`
}

// AISystem runs the per-entity decision loop: idle scan, pursuit,
// engagement, and low-health retreat. Decisions are throttled by a
// per-entity timer to bound per-tick cost.
type AISystem struct {
	world    *engine.World
	cfg      *config.Config
	movement MovementHandle
	combat   AttackQuery
	log      *zap.Logger

	controls map[core.Entity]ControlBlock
}

func NewAISystem(world *engine.World, cfg *config.Config, movement MovementHandle, combat AttackQuery, log *zap.Logger) *AISystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &AISystem{
		world:    world,
		cfg:      cfg,
		movement: movement,
		combat:   combat,
		log:      log,
		controls: make(map[core.Entity]ControlBlock),
	}
	world.OnRemove(func(e core.Entity) {
		delete(s.controls, e)
	})
	return s
}

func (s *AISystem) Priority() int {
	return constant.PriorityAI
}

// RegisterEntity enrolls an entity, resetting any previous control
// state. The current position becomes the retreat anchor.
func (s *AISystem) RegisterEntity(e core.Entity) bool {
	pos, ok := s.world.Positions.Get(e)
	if !ok {
		return false
	}
	s.controls[e] = ControlBlock{
		State:         StateIdle,
		StartPosition: pos.Vec(),
	}
	return true
}

// Unregister drops the entity from the decision loop.
func (s *AISystem) Unregister(e core.Entity) bool {
	if _, ok := s.controls[e]; !ok {
		return false
	}
	delete(s.controls, e)
	return true
}

// Control returns the entity's control block.
func (s *AISystem) Control(e core.Entity) (ControlBlock, bool) {
	cb, ok := s.controls[e]
	return cb, ok
}

// State returns the entity's current decision state.
func (s *AISystem) State(e core.Entity) (AIState, bool) {
	cb, ok := s.controls[e]
	return cb.State, ok
}

func (s *AISystem) Update(dt float64) {
	for _, e := range sortedEntities(s.controls) {
		cb := s.controls[e]

		pos, ok := s.world.Positions.Get(e)
		if !ok {
			delete(s.controls, e)
			continue
		}
		fc, ok := s.world.Factions.Get(e)
		if !ok {
			delete(s.controls, e)
			continue
		}

		cb.DecisionTimer -= dt
		if cb.DecisionTimer > 0 {
			s.controls[e] = cb
			continue
		}
		cb.DecisionTimer = s.cfg.AI.DecisionInterval

		speed := s.cfg.Balance.Stats(unitTypeOf(s.world, e)).Speed

		// Low health pre-empts everything: fall back to the anchor at
		// increased speed until health recovers.
		if hp, ok := s.world.Healths.Get(e); ok && hp.Fraction() < s.cfg.AI.RetreatThreshold {
			if cb.State != StateRetreat {
				s.log.Debug("ai retreat",
					zap.Uint64("entity", uint64(e)),
					zap.Float64("health", hp.Fraction()))
				cb.State = StateRetreat
				cb.Target = core.NilEntity
				s.combat.StopAttack(e)
			}
			s.movement.Move(e, cb.StartPosition, speed*constant.RetreatSpeedFactor)
			s.controls[e] = cb
			continue
		}
		if cb.State == StateRetreat {
			// Recovered above the threshold
			cb.State = StateIdle
			cb.Target = core.NilEntity
		}

		if cb.Target != core.NilEntity && !s.validTarget(cb.Target) {
			cb.Target = core.NilEntity
			if cb.State == StatePursue || cb.State == StateAttack {
				cb.State = StateIdle
			}
		}

		switch cb.State {
		case StateIdle:
			if target, found := nearestHostile(s.world, e, fc.Faction, pos.Vec(), s.cfg.AI.DetectionRadius); found {
				cb.Target = target
				cb.State = StatePursue
				s.movement.Pursue(e, target, speed)
			}

		case StatePursue:
			if s.combat.CanAttack(e, cb.Target, true) {
				s.movement.StopEntity(e)
				cb.State = StateAttack
				s.combat.StartAttack(e, cb.Target)
			} else {
				// Keep the approach order alive; movement drops it on
				// arrival and stand-off refinement is its job
				s.movement.Pursue(e, cb.Target, speed)
			}

		case StateAttack:
			if !s.combat.CanAttack(e, cb.Target, true) {
				// Target slipped out of range
				cb.State = StatePursue
				s.movement.Pursue(e, cb.Target, speed)
			} else if _, active := s.combat.Attacking(e); !active {
				// Assignment was dropped externally; re-engage
				s.combat.StartAttack(e, cb.Target)
			}
		}

		s.controls[e] = cb
	}
}

// validTarget requires a living, positioned entity.
func (s *AISystem) validTarget(t core.Entity) bool {
	if !s.world.Alive(t) || !s.world.Positions.Has(t) {
		return false
	}
	if h, ok := s.world.Healths.Get(t); ok && !h.Alive() {
		return false
	}
	return true
}

// --- serialization ---

// AIEntry is one serialized control block.
type AIEntry struct {
	Entity  core.Entity  `json:"entity"`
	Control ControlBlock `json:"control"`
}

// AISnapshot is the system's serializable state.
type AISnapshot struct {
	Controls []AIEntry `json:"controls"`
}

// Snapshot exports the per-entity control blocks, ascending by handle.
func (s *AISystem) Snapshot() AISnapshot {
	snap := AISnapshot{Controls: make([]AIEntry, 0, len(s.controls))}
	for _, e := range sortedEntities(s.controls) {
		snap.Controls = append(snap.Controls, AIEntry{Entity: e, Control: s.controls[e]})
	}
	return snap
}

// Restore replaces the control blocks. Entries for dead entities are
// rejected before any state is applied.
func (s *AISystem) Restore(snap AISnapshot) error {
	for _, entry := range snap.Controls {
		if !s.world.Alive(entry.Entity) {
			return errors.Errorf("ai: control block for dead entity %#x", uint64(entry.Entity))
		}
	}
	s.controls = make(map[core.Entity]ControlBlock, len(snap.Controls))
	for _, entry := range snap.Controls {
		s.controls[entry.Entity] = entry.Control
	}
	return nil
}
