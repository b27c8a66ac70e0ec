package systems

import (
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/config"
	"github.com/lixenwraith/skirmish/constant"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

// SpecialAttack overrides parts of the damage resolution for an
// ability-driven shot.
type SpecialAttack struct {
	Damage      float64 `json:"damage,omitempty"`     // replaces base damage when > 0
	Multiplier  float64 `json:"multiplier,omitempty"` // scales base damage when > 0
	IgnoreArmor bool    `json:"ignoreArmor,omitempty"`
	Range       float64 `json:"range,omitempty"` // replaces table range when > 0
}

// AttackState is one active attack assignment.
type AttackState struct {
	Target     core.Entity    `json:"target"`
	DamageType string         `json:"damageType"`
	Special    *SpecialAttack `json:"special,omitempty"`
}

// DamageOutcome reports what a damage application did.
type DamageOutcome int

const (
	DamageInvalid DamageOutcome = iota
	DamageApplied
	DamageDestroyed
)

// CombatSystem owns attack assignments, cooldowns and damage
// resolution, including the destruction cascade on lethal damage.
type CombatSystem struct {
	world    *engine.World
	cfg      *config.Config
	movement MovementHandle
	rng      *rand.Rand
	log      *zap.Logger

	attacks   map[core.Entity]AttackState
	cooldowns map[core.Entity]float64
}

func NewCombatSystem(world *engine.World, cfg *config.Config, rng *rand.Rand, log *zap.Logger) *CombatSystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CombatSystem{
		world:     world,
		cfg:       cfg,
		rng:       rng,
		log:       log,
		attacks:   make(map[core.Entity]AttackState),
		cooldowns: make(map[core.Entity]float64),
	}
	world.OnRemove(func(e core.Entity) {
		delete(s.attacks, e)
		delete(s.cooldowns, e)
		// Cancel every attack aimed at the removed entity
		for attacker, st := range s.attacks {
			if st.Target == e {
				delete(s.attacks, attacker)
			}
		}
	})
	return s
}

// SetMovement wires the movement capability used for pursuit requests.
func (s *CombatSystem) SetMovement(m MovementHandle) {
	s.movement = m
}

func (s *CombatSystem) Priority() int {
	return constant.PriorityCombat
}

// StartAttack assigns a regular attack. Rejected for missing components,
// equal factions, or ability-exclusive attackers.
func (s *CombatSystem) StartAttack(attacker, target core.Entity) bool {
	return s.startAttack(attacker, target, nil)
}

// StartSpecialAttack assigns an ability-granted attack with override
// parameters; it bypasses the ability-exclusive gate.
func (s *CombatSystem) StartSpecialAttack(attacker, target core.Entity, special SpecialAttack) bool {
	return s.startAttack(attacker, target, &special)
}

func (s *CombatSystem) startAttack(attacker, target core.Entity, special *SpecialAttack) bool {
	af, ok := s.world.Factions.Get(attacker)
	if !ok || !s.world.Positions.Has(attacker) {
		return false
	}
	tf, ok := s.world.Factions.Get(target)
	if !ok || !s.world.Positions.Has(target) || !s.world.Healths.Has(target) {
		return false
	}
	if af.Faction == tf.Faction {
		return false
	}
	if special == nil && s.cfg.Balance.Stats(unitTypeOf(s.world, attacker)).AbilityOnly {
		return false
	}

	s.attacks[attacker] = AttackState{
		Target:     target,
		DamageType: af.DamageType,
		Special:    special,
	}
	return true
}

// StopAttack drops the attacker's assignment. False if none was active.
func (s *CombatSystem) StopAttack(e core.Entity) bool {
	if _, ok := s.attacks[e]; !ok {
		return false
	}
	delete(s.attacks, e)
	return true
}

// Attacking returns the attacker's current target.
func (s *CombatSystem) Attacking(e core.Entity) (core.Entity, bool) {
	st, ok := s.attacks[e]
	if !ok {
		return core.NilEntity, false
	}
	return st.Target, true
}

// OnCooldown reports whether the attacker is still waiting out its
// cooldown.
func (s *CombatSystem) OnCooldown(e core.Entity) bool {
	return s.cooldowns[e] > 0
}

// CanAttack checks component presence, the optional cooldown gate and
// the range table. It does not check factions; assignment does.
func (s *CombatSystem) CanAttack(attacker, target core.Entity, ignoreCooldown bool) bool {
	af, ok := s.world.Factions.Get(attacker)
	if !ok {
		return false
	}
	apos, ok := s.world.Positions.Get(attacker)
	if !ok {
		return false
	}
	tpos, ok := s.world.Positions.Get(target)
	if !ok || !s.world.Healths.Has(target) {
		return false
	}
	if !ignoreCooldown && s.cooldowns[attacker] > 0 {
		return false
	}
	attackRange := s.cfg.Balance.AttackRange(unitTypeOf(s.world, attacker), af.AttackType)
	return vmath.DistSqXZ(apos.Vec(), tpos.Vec()) <= attackRange*attackRange
}

// ApplyDamage mitigates and applies damage to the target:
// final = max(1, dmg - armor), armor skipped when ignored. Lethal
// damage clamps health to zero and removes the entity from the world,
// cascading through every system's tracking state.
func (s *CombatSystem) ApplyDamage(target core.Entity, dmg float64, ignoreArmor bool) DamageOutcome {
	th, ok := s.world.Healths.Get(target)
	if !ok {
		return DamageInvalid
	}
	if !ignoreArmor {
		dmg -= th.Armor
	}
	if dmg < constant.MinDamage {
		dmg = constant.MinDamage
	}

	th.Current -= dmg
	if th.Current <= 0 {
		th.Current = 0
		s.world.Healths.Add(target, th)
		s.log.Debug("entity destroyed", zap.Uint64("entity", uint64(target)))
		s.world.RemoveEntity(target)
		return DamageDestroyed
	}
	s.world.Healths.Add(target, th)
	return DamageApplied
}

func (s *CombatSystem) Update(dt float64) {
	// 1. Cooldowns tick down; entries reaching zero are dropped.
	for _, e := range sortedEntities(s.cooldowns) {
		s.cooldowns[e] -= dt
		if s.cooldowns[e] <= 0 {
			delete(s.cooldowns, e)
		}
	}

	s.tickRegeneration(dt)
	s.tickAims(dt)

	// 2. Resolve active attacks.
	for _, attacker := range sortedEntities(s.attacks) {
		st, ok := s.attacks[attacker]
		if !ok {
			// Canceled earlier in this pass by a kill cascade
			continue
		}

		apos, aok := s.world.Positions.Get(attacker)
		_, fok := s.world.Factions.Get(attacker)
		if !aok || !fok {
			delete(s.attacks, attacker)
			continue
		}
		tpos, tok := s.world.Positions.Get(st.Target)
		th, hok := s.world.Healths.Get(st.Target)
		if !tok || !hok || !th.Alive() {
			delete(s.attacks, attacker)
			continue
		}

		attackRange := s.effectiveRange(attacker, st)
		if vmath.DistSqXZ(apos.Vec(), tpos.Vec()) > attackRange*attackRange {
			// Out of range: hand the approach to movement, which owns
			// arrival and stand-off refinement. Consumed next tick.
			if s.movement != nil {
				s.movement.Pursue(attacker, st.Target, constant.ChaseSpeed)
			}
			continue
		}

		if s.cooldowns[attacker] > 0 {
			continue
		}

		dmg, ignoreArmor := s.rollDamage(attacker, st)
		s.cooldowns[attacker] = s.cfg.Balance.Stats(unitTypeOf(s.world, attacker)).Cooldown

		if s.ApplyDamage(st.Target, dmg, ignoreArmor) == DamageDestroyed {
			// The removal cascade already canceled this assignment
			continue
		}
		if st.Special != nil {
			// Ability shots are one-shot assignments: the ability paces
			// repeats on its own cadence timer, not this loop.
			delete(s.attacks, attacker)
		}
	}
}

// effectiveRange is the table range, or the special override while an
// ability shot is assigned.
func (s *CombatSystem) effectiveRange(attacker core.Entity, st AttackState) float64 {
	if st.Special != nil && st.Special.Range > 0 {
		return st.Special.Range
	}
	af, ok := s.world.Factions.Get(attacker)
	if !ok {
		return 0
	}
	return s.cfg.Balance.AttackRange(unitTypeOf(s.world, attacker), af.AttackType)
}

// rollDamage resolves the pre-mitigation damage: base by unit type,
// special overrides, then the critical roll.
func (s *CombatSystem) rollDamage(attacker core.Entity, st AttackState) (float64, bool) {
	base := s.cfg.Balance.Stats(unitTypeOf(s.world, attacker)).Damage
	ignoreArmor := false
	if sp := st.Special; sp != nil {
		if sp.Damage > 0 {
			base = sp.Damage
		}
		if sp.Multiplier > 0 {
			base *= sp.Multiplier
		}
		ignoreArmor = sp.IgnoreArmor
	}
	if s.rng.Float64() < s.cfg.Balance.CritChance {
		base *= s.cfg.Balance.CritMultiplier
	}
	return base, ignoreArmor
}

// tickRegeneration advances passive health regeneration, clamped to max.
func (s *CombatSystem) tickRegeneration(dt float64) {
	for _, e := range s.world.Healths.All() {
		h, ok := s.world.Healths.Get(e)
		if !ok || h.Regen <= 0 || !h.Alive() || h.Current >= h.Max {
			continue
		}
		h.Current = vmath.Clamp(h.Current+h.Regen*dt, 0, h.Max)
		s.world.Healths.Add(e, h)
	}
}

// --- serialization ---

// CombatEntry is one serialized attack assignment.
type CombatEntry struct {
	Attacker core.Entity `json:"attacker"`
	State    AttackState `json:"state"`
}

// CooldownEntry is one serialized cooldown.
type CooldownEntry struct {
	Entity    core.Entity `json:"entity"`
	Remaining float64     `json:"remaining"`
}

// CombatSnapshot is the system's serializable state.
type CombatSnapshot struct {
	AttackingEntities []CombatEntry   `json:"attackingEntities"`
	AttackCooldowns   []CooldownEntry `json:"attackCooldowns"`
}

// Snapshot exports attack assignments and cooldowns, ascending by handle.
func (s *CombatSystem) Snapshot() CombatSnapshot {
	snap := CombatSnapshot{
		AttackingEntities: make([]CombatEntry, 0, len(s.attacks)),
		AttackCooldowns:   make([]CooldownEntry, 0, len(s.cooldowns)),
	}
	for _, e := range sortedEntities(s.attacks) {
		snap.AttackingEntities = append(snap.AttackingEntities, CombatEntry{Attacker: e, State: s.attacks[e]})
	}
	for _, e := range sortedEntities(s.cooldowns) {
		snap.AttackCooldowns = append(snap.AttackCooldowns, CooldownEntry{Entity: e, Remaining: s.cooldowns[e]})
	}
	return snap
}

// Restore replaces the system state. Entries referencing dead entities
// are rejected before any state is applied.
func (s *CombatSystem) Restore(snap CombatSnapshot) error {
	for _, entry := range snap.AttackingEntities {
		if !s.world.Alive(entry.Attacker) {
			return errors.Errorf("combat: attack by dead entity %#x", uint64(entry.Attacker))
		}
		if !s.world.Alive(entry.State.Target) {
			return errors.Errorf("combat: attack on dead entity %#x", uint64(entry.State.Target))
		}
	}
	for _, entry := range snap.AttackCooldowns {
		if !s.world.Alive(entry.Entity) {
			return errors.Errorf("combat: cooldown for dead entity %#x", uint64(entry.Entity))
		}
		if entry.Remaining <= 0 {
			return errors.Errorf("combat: non-positive cooldown for entity %#x", uint64(entry.Entity))
		}
	}
	s.attacks = make(map[core.Entity]AttackState, len(snap.AttackingEntities))
	for _, entry := range snap.AttackingEntities {
		s.attacks[entry.Attacker] = entry.State
	}
	s.cooldowns = make(map[core.Entity]float64, len(snap.AttackCooldowns))
	for _, entry := range snap.AttackCooldowns {
		s.cooldowns[entry.Entity] = entry.Remaining
	}
	return nil
}
