package constant

import "math"

const (
	// ArrivalEpsilon is the distance below which a mover snaps exactly
	// onto its destination and stops.
	ArrivalEpsilon = 0.1

	// Stand-off fractions of attack range held while approaching a target.
	RangedStandoff = 0.8
	MeleeStandoff  = 0.5

	// AttackMoveBuffer widens the attack range into the detection radius
	// used by attack-move scans.
	AttackMoveBuffer = 2.0

	// ChaseSpeed is the standard speed of combat-issued pursuit orders.
	ChaseSpeed = 3.0

	// RetreatSpeedFactor boosts movement speed while retreating.
	RetreatSpeedFactor = 1.5

	// MinDamage floors every damage application.
	MinDamage = 1.0

	// BuildingRadiusScale widens collision radii for structures.
	BuildingRadiusScale = 1.2

	// MinCollisionRadius floors collision radii derived from render scale.
	MinCollisionRadius = 0.1

	// MaxPlacementAttempts bounds the spiral probe for a free position.
	MaxPlacementAttempts = 8
)

// FullCircle is the probe sweep of the placement spiral.
const FullCircle = 2 * math.Pi
