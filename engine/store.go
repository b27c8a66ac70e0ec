package engine

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/core"
)

// Pair is one exported component table entry. Plain data, no live references.
type Pair[T any] struct {
	Entity core.Entity `json:"entity"`
	Value  T           `json:"value"`
}

// Store is the component table for type T: a sparse-set arena indexed by
// entity slot, with dense entity/data arrays for iteration. Every lookup
// validates the handle generation, so stale ids miss instead of aliasing
// a reused slot. The store owns its presence bit in the world mask; the
// bit is set iff the table holds an entry.
type Store[T any] struct {
	world  *World
	kind   component.Kind
	sparse []int32 // slot index -> dense index, -1 when absent
	dense  []core.Entity
	data   []T
}

func newStore[T any](w *World, kind component.Kind) *Store[T] {
	s := &Store[T]{
		world: w,
		kind:  kind,
		dense: make([]core.Entity, 0, 64),
		data:  make([]T, 0, 64),
	}
	w.stores = append(w.stores, s)
	return s
}

func (s *Store[T]) ensure(index uint32) {
	for uint32(len(s.sparse)) <= index {
		s.sparse = append(s.sparse, -1)
	}
}

// Add attaches or updates the component for a live entity.
// Returns false if the handle is stale or unknown.
func (s *Store[T]) Add(e core.Entity, v T) bool {
	if !s.world.Alive(e) {
		return false
	}
	idx := e.Index()
	s.ensure(idx)
	if d := s.sparse[idx]; d >= 0 && s.dense[d] == e {
		s.data[d] = v
		return true
	}
	s.sparse[idx] = int32(len(s.dense))
	s.dense = append(s.dense, e)
	s.data = append(s.data, v)
	s.world.setPresence(e, s.kind, true)
	return true
}

// Get retrieves the component for an entity.
func (s *Store[T]) Get(e core.Entity) (T, bool) {
	idx := e.Index()
	if idx < uint32(len(s.sparse)) {
		if d := s.sparse[idx]; d >= 0 && s.dense[d] == e {
			return s.data[d], true
		}
	}
	var zero T
	return zero, false
}

// Has reports whether the entity carries this component.
func (s *Store[T]) Has(e core.Entity) bool {
	idx := e.Index()
	if idx >= uint32(len(s.sparse)) {
		return false
	}
	d := s.sparse[idx]
	return d >= 0 && s.dense[d] == e
}

// Remove detaches the component. Returns false if there was none.
func (s *Store[T]) Remove(e core.Entity) bool {
	idx := e.Index()
	if idx >= uint32(len(s.sparse)) {
		return false
	}
	d := s.sparse[idx]
	if d < 0 || s.dense[d] != e {
		return false
	}

	// Swap-remove to keep the dense arrays packed
	last := int32(len(s.dense) - 1)
	if d != last {
		moved := s.dense[last]
		s.dense[d] = moved
		s.data[d] = s.data[last]
		s.sparse[moved.Index()] = d
	}
	s.dense = s.dense[:last]
	s.data = s.data[:last]
	s.sparse[idx] = -1
	s.world.setPresence(e, s.kind, false)
	return true
}

// All returns the entities holding this component, ascending by handle.
// The fixed order keeps nearest-entity scans deterministic.
func (s *Store[T]) All() []core.Entity {
	result := make([]core.Entity, len(s.dense))
	copy(result, s.dense)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Count returns the number of entities with this component.
func (s *Store[T]) Count() int {
	return len(s.dense)
}

// Pairs exports the table as plain entries, ascending by handle.
func (s *Store[T]) Pairs() []Pair[T] {
	result := make([]Pair[T], 0, len(s.dense))
	for _, e := range s.All() {
		d := s.sparse[e.Index()]
		result = append(result, Pair[T]{Entity: e, Value: s.data[d]})
	}
	return result
}

// Replace imports a bulk export, replacing the table contents.
// Fails fast before mutating if any entry references a dead entity.
func (s *Store[T]) Replace(pairs []Pair[T]) error {
	for _, p := range pairs {
		if !s.world.Alive(p.Entity) {
			return errors.Errorf("store %#x: entry for dead entity %#x", uint32(s.kind), uint64(p.Entity))
		}
	}
	s.Clear()
	for _, p := range pairs {
		s.Add(p.Entity, p.Value)
	}
	return nil
}

// Clear drops every entry and presence bit.
func (s *Store[T]) Clear() {
	for _, e := range s.dense {
		s.world.setPresence(e, s.kind, false)
	}
	s.sparse = s.sparse[:0]
	s.dense = s.dense[:0]
	s.data = s.data[:0]
}

// --- AnyStore ---

func (s *Store[T]) Kind() component.Kind {
	return s.kind
}

func (s *Store[T]) DiscardEntity(e core.Entity) {
	s.Remove(e)
}

func (s *Store[T]) HasEntity(e core.Entity) bool {
	return s.Has(e)
}

func (s *Store[T]) CountEntities() int {
	return len(s.dense)
}

func (s *Store[T]) ClearAll() {
	s.Clear()
}
