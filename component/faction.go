package component

// Faction is the closed allegiance enum.
type Faction uint8

const (
	FactionPlayer Faction = iota
	FactionAlly
	FactionEnemy
)

func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionAlly:
		return "ally"
	case FactionEnemy:
		return "enemy"
	}
	return "unknown"
}

// Hostile reports whether two factions engage each other.
// Player and ally are friendly to each other; both oppose enemy.
func (f Faction) Hostile(other Faction) bool {
	if f == other {
		return false
	}
	return f == FactionEnemy || other == FactionEnemy
}

// AttackType distinguishes stand-off behavior and range lookups.
type AttackType uint8

const (
	AttackRanged AttackType = iota
	AttackMelee
)

func (a AttackType) String() string {
	if a == AttackMelee {
		return "melee"
	}
	return "ranged"
}

// FactionComponent carries allegiance plus the combat lookup keys.
type FactionComponent struct {
	Faction    Faction    `json:"faction"`
	UnitType   string     `json:"unitType"`
	AttackType AttackType `json:"attackType"`
	DamageType string     `json:"damageType"`
	Visibility float64    `json:"visibility"`
}
