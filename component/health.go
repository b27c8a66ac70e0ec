package component

// HealthComponent tracks hit points and mitigation stats.
// Invariant: 0 <= Current <= Max. Current reaching 0 destroys the entity.
type HealthComponent struct {
	Max     float64 `json:"maxHealth"`
	Current float64 `json:"currentHealth"`
	Armor   float64 `json:"armor"`
	Shield  float64 `json:"shield"`
	Regen   float64 `json:"regeneration"`
}

// Alive reports whether the entity still has hit points.
func (h HealthComponent) Alive() bool {
	return h.Current > 0
}

// Fraction returns Current/Max, 0 when Max is unset.
func (h HealthComponent) Fraction() float64 {
	if h.Max <= 0 {
		return 0
	}
	return h.Current / h.Max
}
