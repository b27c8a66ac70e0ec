package systems

import (
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/vmath"
)

// The systems form a cycle (movement consults combat, combat issues
// movement, AI drives both). Instead of passing a systems registry
// around, each dependency is a narrow capability interface injected at
// construction, so the coupling is visible and mockable.

// AttackQuery is the combat capability movement and AI depend on.
type AttackQuery interface {
	CanAttack(attacker, target core.Entity, ignoreCooldown bool) bool
	StartAttack(attacker, target core.Entity) bool
	StopAttack(e core.Entity) bool
	Attacking(e core.Entity) (core.Entity, bool)
}

// MovementHandle is the movement capability combat and AI depend on.
type MovementHandle interface {
	Move(e core.Entity, dest vmath.Vec3, speed float64) bool
	Pursue(e, target core.Entity, speed float64) bool
	StopEntity(e core.Entity) bool
}

// AIRegistrar enrolls freshly spawned entities into the decision loop.
type AIRegistrar interface {
	RegisterEntity(e core.Entity) bool
}
