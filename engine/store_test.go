package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/core"
)

// TestStorePresenceTracksAddRemove verifies that the world's presence
// flags mirror store contents through add and remove.
func TestStorePresenceTracksAddRemove(t *testing.T) {
	w := NewWorld(nil)
	e := w.CreateEntity()

	assert.False(t, w.HasComponent(e, component.KindHealth))

	require.True(t, w.Healths.Add(e, component.HealthComponent{Max: 100, Current: 100}))
	assert.True(t, w.HasComponent(e, component.KindHealth))
	assert.True(t, w.Healths.Has(e))

	h, ok := w.Healths.Get(e)
	require.True(t, ok)
	assert.Equal(t, 100.0, h.Max)

	require.True(t, w.Healths.Remove(e))
	assert.False(t, w.HasComponent(e, component.KindHealth))
	assert.False(t, w.Healths.Has(e))

	_, ok = w.Healths.Get(e)
	assert.False(t, ok)
}

// TestStoreAddOverwritesInPlace verifies that a second add replaces the
// value without growing the store.
func TestStoreAddOverwritesInPlace(t *testing.T) {
	w := NewWorld(nil)
	e := w.CreateEntity()

	w.Positions.Add(e, component.PositionComponent{X: 1})
	w.Positions.Add(e, component.PositionComponent{X: 2})

	assert.Equal(t, 1, w.Positions.Count())
	p, ok := w.Positions.Get(e)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.X)
}

// TestStoreRejectsDeadEntity verifies that adds on removed or nil
// handles are refused.
func TestStoreRejectsDeadEntity(t *testing.T) {
	w := NewWorld(nil)
	e := w.CreateEntity()
	w.RemoveEntity(e)

	assert.False(t, w.Positions.Add(e, component.PositionComponent{}))
	assert.False(t, w.Positions.Add(core.NilEntity, component.PositionComponent{}))
	assert.Equal(t, 0, w.Positions.Count())
}

// TestStoreStaleGenerationMisses verifies that a handle from a recycled
// slot cannot read the new occupant's data.
func TestStoreStaleGenerationMisses(t *testing.T) {
	w := NewWorld(nil)
	old := w.CreateEntity()
	w.Positions.Add(old, component.PositionComponent{X: 1})
	w.RemoveEntity(old)

	// Reuses the slot with a bumped generation
	reborn := w.CreateEntity()
	require.Equal(t, old.Index(), reborn.Index())
	require.NotEqual(t, old.Generation(), reborn.Generation())
	w.Positions.Add(reborn, component.PositionComponent{X: 2})

	_, ok := w.Positions.Get(old)
	assert.False(t, ok)
	assert.False(t, w.Positions.Has(old))
	assert.False(t, w.Positions.Remove(old))

	p, ok := w.Positions.Get(reborn)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.X)
}

// TestStoreSwapRemoveKeepsOthers verifies that removing from the middle
// of the dense array leaves the remaining entries reachable.
func TestStoreSwapRemoveKeepsOthers(t *testing.T) {
	w := NewWorld(nil)
	a := w.CreateEntity()
	b := w.CreateEntity()
	c := w.CreateEntity()
	w.Positions.Add(a, component.PositionComponent{X: 1})
	w.Positions.Add(b, component.PositionComponent{X: 2})
	w.Positions.Add(c, component.PositionComponent{X: 3})

	w.Positions.Remove(b)

	assert.Equal(t, 2, w.Positions.Count())
	pa, _ := w.Positions.Get(a)
	pc, _ := w.Positions.Get(c)
	assert.Equal(t, 1.0, pa.X)
	assert.Equal(t, 3.0, pc.X)
}

// TestStoreAllAscending verifies deterministic iteration order.
func TestStoreAllAscending(t *testing.T) {
	w := NewWorld(nil)
	var created []core.Entity
	for i := 0; i < 5; i++ {
		e := w.CreateEntity()
		created = append(created, e)
		w.Positions.Add(e, component.PositionComponent{X: float64(i)})
	}
	// Churn a slot to break insertion order in the dense array
	w.Positions.Remove(created[1])
	w.Positions.Add(created[1], component.PositionComponent{X: 1})

	all := w.Positions.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1], all[i])
	}
}

// TestStoreReplaceRejectsDeadEntity verifies that a bulk replace fails
// fast on a stale handle.
func TestStoreReplaceRejectsDeadEntity(t *testing.T) {
	w := NewWorld(nil)
	live := w.CreateEntity()
	dead := w.CreateEntity()
	w.RemoveEntity(dead)

	err := w.Positions.Replace([]Pair[component.PositionComponent]{
		{Entity: live, Value: component.PositionComponent{X: 1}},
		{Entity: dead, Value: component.PositionComponent{X: 2}},
	})
	assert.Error(t, err)
}
