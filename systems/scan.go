package systems

import (
	"sort"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

// unitTypeOf resolves the canonical unit type: the explicit unit-type
// component wins, the faction lookup key is the backward-compatible
// fallback.
func unitTypeOf(w *engine.World, e core.Entity) string {
	if u, ok := w.Units.Get(e); ok && u.Type != "" {
		return u.Type
	}
	if f, ok := w.Factions.Get(e); ok {
		return f.UnitType
	}
	return ""
}

// nearestHostile finds the closest living opposing-faction entity within
// radius of from. Entities are visited ascending by handle, so
// equal-distance ties resolve to the lowest id deterministically.
func nearestHostile(w *engine.World, self core.Entity, own component.Faction, from vmath.Vec3, radius float64) (core.Entity, bool) {
	best := core.NilEntity
	bestSq := radius * radius

	for _, other := range w.Factions.All() {
		if other == self {
			continue
		}
		fc, ok := w.Factions.Get(other)
		if !ok || !own.Hostile(fc.Faction) {
			continue
		}
		pos, ok := w.Positions.Get(other)
		if !ok {
			continue
		}
		if h, ok := w.Healths.Get(other); ok && !h.Alive() {
			continue
		}
		dSq := vmath.DistSqXZ(from, pos.Vec())
		if dSq < bestSq {
			bestSq = dSq
			best = other
		}
	}
	return best, best != core.NilEntity
}

// sortedEntities returns map keys ascending, for deterministic
// iteration inside a tick.
func sortedEntities[V any](m map[core.Entity]V) []core.Entity {
	keys := make([]core.Entity, 0, len(m))
	for e := range m {
		keys = append(keys, e)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
