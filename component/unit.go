package component

// UnitTypeComponent layers a canonical unit type over the faction's
// lookup key, plus the unit's ability list. Optional; lookups fall back
// to FactionComponent.UnitType when absent.
type UnitTypeComponent struct {
	Type      string   `json:"type"`
	Abilities []string `json:"abilities,omitempty"`
}

// HasAbility reports whether the unit carries the named ability.
func (u UnitTypeComponent) HasAbility(name string) bool {
	for _, a := range u.Abilities {
		if a == name {
			return true
		}
	}
	return false
}
