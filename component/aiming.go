package component

// AimingComponent is the state of the toggled aimed-shot ability.
// It replaces the loose per-entity property bag the ability used to
// ride on: one explicit optional component, serialized like any other.
type AimingComponent struct {
	// Timer counts toward the next permitted shot; the ability paces
	// its own fire cadence independently of the generic attack loop.
	Timer float64 `json:"timer"`
	// Cooldown is the minimum time between aimed shots.
	Cooldown float64 `json:"cooldown"`
	// Range is the extended engagement range while aiming.
	Range float64 `json:"range"`
	// Multiplier scales the unit's base damage for the shot.
	Multiplier float64 `json:"multiplier"`
	// IgnoreArmor skips armor subtraction on the shot.
	IgnoreArmor bool `json:"ignoreArmor"`
}

// Ready reports whether the cadence timer permits a shot.
func (a AimingComponent) Ready() bool {
	return a.Timer >= a.Cooldown
}
