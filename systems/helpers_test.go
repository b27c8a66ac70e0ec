package systems

import (
	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/config"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

// rig wires a full world with the cross-injected systems, the way the
// composition root does it.
type rig struct {
	world    *engine.World
	cfg      *config.Config
	movement *MovementSystem
	combat   *CombatSystem
	ai       *AISystem
}

// newRig builds a deterministic test world: fixed seed, criticals off
// unless a test opts back in.
func newRig(seed int64) *rig {
	cfg := config.Default()
	cfg.Balance.CritChance = 0

	world := engine.NewWorld(nil)
	movement := NewMovementSystem(world, &cfg.Balance, nil)
	combat := NewCombatSystem(world, cfg, engine.NewRand(seed), nil)
	movement.SetAttackQuery(combat)
	combat.SetMovement(movement)
	ai := NewAISystem(world, cfg, movement, combat, nil)

	return &rig{
		world:    world,
		cfg:      cfg,
		movement: movement,
		combat:   combat,
		ai:       ai,
	}
}

// spawnUnit creates a positioned combat-ready unit.
func (r *rig) spawnUnit(faction component.Faction, unitType string, at vmath.Vec3, hp float64) core.Entity {
	return r.spawnArmored(faction, unitType, at, hp, 0)
}

func (r *rig) spawnArmored(faction component.Faction, unitType string, at vmath.Vec3, hp, armor float64) core.Entity {
	e := r.world.CreateEntity()
	r.world.Positions.Add(e, component.PositionComponent{X: at.X, Y: at.Y, Z: at.Z})
	r.world.Healths.Add(e, component.HealthComponent{Max: hp, Current: hp, Armor: armor})
	r.world.Factions.Add(e, component.FactionComponent{
		Faction:    faction,
		UnitType:   unitType,
		AttackType: component.AttackRanged,
		DamageType: "kinetic",
		Visibility: 1,
	})
	r.world.Units.Add(e, component.UnitTypeComponent{Type: unitType})
	return e
}

func (r *rig) health(e core.Entity) float64 {
	h, _ := r.world.Healths.Get(e)
	return h.Current
}

func (r *rig) position(e core.Entity) vmath.Vec3 {
	p, _ := r.world.Positions.Get(e)
	return p.Vec()
}
