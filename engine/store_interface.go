package engine

import (
	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/core"
)

// AnyStore is the type-erased store surface the World uses for lifecycle
// management, so entity destruction cascades over every registered table
// without knowing concrete component types.
type AnyStore interface {
	// Kind returns the presence bit owned by this store.
	Kind() component.Kind

	// DiscardEntity drops the entity's entry if present.
	DiscardEntity(e core.Entity)

	// HasEntity checks if an entity has this component.
	HasEntity(e core.Entity) bool

	// CountEntities returns the number of entities with this component.
	CountEntities() int

	// ClearAll removes all components from this store.
	ClearAll()
}
