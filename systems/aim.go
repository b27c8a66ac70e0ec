package systems

import (
	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/vmath"
)

// Aimed-shot ability. Ability-exclusive archetypes (sniper class) are
// barred from automatic engagement; this toggled mode is their only
// attack path. It stops the unit, paces its own fire cadence, and fires
// through the special-attack override. The line-of-sight visual is an
// external collaborator reading the AimingComponent.

// ToggleAim activates the aimed-shot ability, or cancels it when
// already active. Activation stops current movement and attack.
func (s *CombatSystem) ToggleAim(e core.Entity) bool {
	if s.world.Aims.Has(e) {
		s.world.Aims.Remove(e)
		return true
	}
	if !s.canAim(e) {
		return false
	}
	if s.movement != nil {
		s.movement.StopEntity(e)
	}
	s.StopAttack(e)

	s.world.Aims.Add(e, component.AimingComponent{
		// First shot is available immediately; the timer gates repeats.
		Timer:       s.cfg.Aim.Cooldown,
		Cooldown:    s.cfg.Aim.Cooldown,
		Range:       s.cfg.Aim.Range,
		Multiplier:  s.cfg.Aim.Multiplier,
		IgnoreArmor: s.cfg.Aim.IgnoreArmor,
	})
	return true
}

// Aiming reports whether the aimed-shot ability is active.
func (s *CombatSystem) Aiming(e core.Entity) bool {
	return s.world.Aims.Has(e)
}

// AimedShot fires the aimed shot at a target: requires an active aim,
// a ready cadence timer, and the target inside the extended range.
// The shot goes through the regular assignment path with override
// parameters, so faction and component checks still apply.
func (s *CombatSystem) AimedShot(e, target core.Entity) bool {
	aim, ok := s.world.Aims.Get(e)
	if !ok || !aim.Ready() {
		return false
	}
	apos, ok := s.world.Positions.Get(e)
	if !ok {
		return false
	}
	tpos, ok := s.world.Positions.Get(target)
	if !ok {
		return false
	}
	if vmath.DistSqXZ(apos.Vec(), tpos.Vec()) > aim.Range*aim.Range {
		return false
	}
	if !s.startAttack(e, target, &SpecialAttack{
		Multiplier:  aim.Multiplier,
		IgnoreArmor: aim.IgnoreArmor,
		Range:       aim.Range,
	}) {
		return false
	}
	aim.Timer = 0
	s.world.Aims.Add(e, aim)
	return true
}

// canAim requires the aim ability on the unit's ability list, or an
// ability-exclusive archetype in the balance table.
func (s *CombatSystem) canAim(e core.Entity) bool {
	if !s.world.Positions.Has(e) || !s.world.Factions.Has(e) {
		return false
	}
	if u, ok := s.world.Units.Get(e); ok && u.HasAbility("aim") {
		return true
	}
	return s.cfg.Balance.Stats(unitTypeOf(s.world, e)).AbilityOnly
}

// tickAims advances aim cadence timers, capped at the cooldown so the
// serialized state stays bounded.
func (s *CombatSystem) tickAims(dt float64) {
	for _, e := range s.world.Aims.All() {
		aim, ok := s.world.Aims.Get(e)
		if !ok || aim.Timer >= aim.Cooldown {
			continue
		}
		aim.Timer = vmath.Clamp(aim.Timer+dt, 0, aim.Cooldown)
		s.world.Aims.Add(e, aim)
	}
}
