package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/vmath"
)

// TestMoveApproachesMonotonically verifies that every tick closes the
// distance to the destination and never overshoots.
func TestMoveApproachesMonotonically(t *testing.T) {
	r := newRig(1)
	e := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)
	dest := vmath.Vec3{X: 10}

	require.True(t, r.movement.Move(e, dest, 2.0))
	require.True(t, r.movement.Moving(e))

	prev := vmath.DistXZ(r.position(e), dest)
	for i := 0; i < 4; i++ {
		r.movement.Update(0.5)
		d := vmath.DistXZ(r.position(e), dest)
		assert.Less(t, d, prev)
		prev = d
	}
	// 4 ticks at speed 2: exactly 4 units covered
	assert.InDelta(t, 4.0, r.position(e).X, 1e-9)
}

// TestMoveArrivalSnapsAndStops verifies the arrival epsilon: the entity
// lands exactly on the destination and tracking ends.
func TestMoveArrivalSnapsAndStops(t *testing.T) {
	r := newRig(1)
	e := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)
	dest := vmath.Vec3{X: 1}

	r.movement.Move(e, dest, 2.0)
	for i := 0; i < 3 && r.movement.Moving(e); i++ {
		r.movement.Update(0.5)
	}

	assert.False(t, r.movement.Moving(e))
	assert.Equal(t, dest, r.position(e))
}

// TestMoveRotationFacesDirection verifies heading updates while moving.
func TestMoveRotationFacesDirection(t *testing.T) {
	r := newRig(1)
	e := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)

	r.movement.Move(e, vmath.Vec3{Z: 10}, 2.0)
	r.movement.Update(0.5)
	p, _ := r.world.Positions.Get(e)
	assert.InDelta(t, 0, p.Rotation, 1e-9) // +Z is heading zero

	r.movement.Move(e, vmath.Vec3{X: 10, Z: p.Z}, 2.0)
	r.movement.Update(0.5)
	p, _ = r.world.Positions.Get(e)
	assert.Greater(t, p.Rotation, 0.0)
}

// TestMoveRequiresPosition verifies orders on unpositioned entities are
// refused.
func TestMoveRequiresPosition(t *testing.T) {
	r := newRig(1)
	e := r.world.CreateEntity()
	assert.False(t, r.movement.Move(e, vmath.Vec3{X: 1}, 1.0))
}

// TestStopEntityDropsOrder verifies explicit stop.
func TestStopEntityDropsOrder(t *testing.T) {
	r := newRig(1)
	e := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)

	r.movement.Move(e, vmath.Vec3{X: 10}, 2.0)
	require.True(t, r.movement.StopEntity(e))
	assert.False(t, r.movement.Moving(e))
	assert.False(t, r.movement.StopEntity(e))
}

// TestPursueStopsInsideRangeAndAttacks verifies the target approach
// hands off to combat once the target is attackable.
func TestPursueStopsInsideRangeAndAttacks(t *testing.T) {
	r := newRig(1)
	attacker := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)
	target := r.spawnUnit(component.FactionEnemy, "lightInfantry", vmath.Vec3{X: 20}, 50)

	require.True(t, r.movement.Pursue(attacker, target, 3.5))
	for i := 0; i < 50 && r.movement.Moving(attacker); i++ {
		r.movement.Update(0.1)
	}

	assert.False(t, r.movement.Moving(attacker))
	// Inside assault range (7) of the target
	assert.LessOrEqual(t, vmath.DistXZ(r.position(attacker), r.position(target)), 7.0)
	got, ok := r.combat.Attacking(attacker)
	require.True(t, ok)
	assert.Equal(t, target, got)
}

// TestPursueDeadTargetCancels verifies the order is dropped when the
// target disappears mid-approach.
func TestPursueDeadTargetCancels(t *testing.T) {
	r := newRig(1)
	attacker := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)
	target := r.spawnUnit(component.FactionEnemy, "lightInfantry", vmath.Vec3{X: 20}, 50)

	r.movement.Pursue(attacker, target, 3.5)
	r.movement.Update(0.1)
	require.True(t, r.movement.Moving(attacker))

	r.world.RemoveEntity(target)
	r.movement.Update(0.1)
	assert.False(t, r.movement.Moving(attacker))
}

// TestAttackMoveEngagesHostileOnPath verifies a sweep order breaks off
// to fight a hostile inside detection range.
func TestAttackMoveEngagesHostileOnPath(t *testing.T) {
	r := newRig(1)
	attacker := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)
	// On the path, inside assault attack range after the first step
	hostile := r.spawnUnit(component.FactionEnemy, "lightInfantry", vmath.Vec3{X: 6}, 50)

	require.True(t, r.movement.AttackMove(attacker, vmath.Vec3{X: 40}, 3.5))
	r.movement.Update(0.1)

	assert.False(t, r.movement.Moving(attacker))
	got, ok := r.combat.Attacking(attacker)
	require.True(t, ok)
	assert.Equal(t, hostile, got)
}

// TestAttackMoveIgnoresFriendlies verifies a sweep passes allied units.
func TestAttackMoveIgnoresFriendlies(t *testing.T) {
	r := newRig(1)
	attacker := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)
	r.spawnUnit(component.FactionAlly, "lightInfantry", vmath.Vec3{X: 5}, 50)

	r.movement.AttackMove(attacker, vmath.Vec3{X: 40}, 3.5)
	r.movement.Update(0.1)

	assert.True(t, r.movement.Moving(attacker))
	_, ok := r.combat.Attacking(attacker)
	assert.False(t, ok)
}

// TestMovementSnapshotRoundTrip verifies order serialization.
func TestMovementSnapshotRoundTrip(t *testing.T) {
	r := newRig(1)
	a := r.spawnUnit(component.FactionPlayer, "assault", vmath.Vec3{}, 80)
	b := r.spawnUnit(component.FactionPlayer, "support", vmath.Vec3{X: 3}, 70)
	r.movement.Move(a, vmath.Vec3{X: 10}, 2.0)
	r.movement.AttackMove(b, vmath.Vec3{Z: 5}, 3.0)

	snap := r.movement.Snapshot()
	require.Len(t, snap.Orders, 2)

	fresh := NewMovementSystem(r.world, &r.cfg.Balance, nil)
	require.NoError(t, fresh.Restore(snap))
	order, ok := fresh.Order(b)
	require.True(t, ok)
	assert.True(t, order.AttackMove)
	assert.Equal(t, vmath.Vec3{Z: 5}, order.Destination)
}

// TestMovementRestoreRejectsUnpositioned verifies fail-fast restore.
func TestMovementRestoreRejectsUnpositioned(t *testing.T) {
	r := newRig(1)
	bare := r.world.CreateEntity()

	err := r.movement.Restore(MovementSnapshot{Orders: []MovementEntry{
		{Entity: bare, Order: MoveOrder{Destination: vmath.Vec3{X: 1}, Speed: 1}},
	}})
	assert.Error(t, err)
}
