package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/core"
)

type slotMeta struct {
	generation uint32
	alive      bool
	mask       component.Kind
}

// World owns the live entity set and all typed component stores.
// Single writer: systems mutate it only from Update in tick order.
type World struct {
	log *zap.Logger

	slots []slotMeta
	free  []uint32 // released slot indexes, generation already bumped
	live  int

	// GameTime accumulates simulated seconds across ticks.
	GameTime float64
	// PlayerResources is the economy counter mutated by the external
	// economy collaborator; the core only stores and snapshots it.
	PlayerResources float64

	Positions *Store[component.PositionComponent]
	Healths   *Store[component.HealthComponent]
	Factions  *Store[component.FactionComponent]
	Units     *Store[component.UnitTypeComponent]
	Buildings *Store[component.BuildingTypeComponent]
	Resources *Store[component.ResourceComponent]
	Renders   *Store[component.RenderComponent]
	Aims      *Store[component.AimingComponent]

	stores       []AnyStore
	removalHooks []func(core.Entity)
	systems      []System
}

// NewWorld creates an empty world.
func NewWorld(log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	w := &World{log: log}

	w.Positions = newStore[component.PositionComponent](w, component.KindPosition)
	w.Healths = newStore[component.HealthComponent](w, component.KindHealth)
	w.Factions = newStore[component.FactionComponent](w, component.KindFaction)
	w.Units = newStore[component.UnitTypeComponent](w, component.KindUnitType)
	w.Buildings = newStore[component.BuildingTypeComponent](w, component.KindBuildingType)
	w.Resources = newStore[component.ResourceComponent](w, component.KindResource)
	w.Renders = newStore[component.RenderComponent](w, component.KindRender)
	w.Aims = newStore[component.AimingComponent](w, component.KindAiming)

	return w
}

// CreateEntity reserves a new entity handle with no components.
func (w *World) CreateEntity() core.Entity {
	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
		w.slots[idx].alive = true
		w.slots[idx].mask = 0
	} else {
		idx = uint32(len(w.slots))
		w.slots = append(w.slots, slotMeta{generation: 1, alive: true})
	}
	w.live++
	return core.MakeEntity(idx, w.slots[idx].generation)
}

// RemoveEntity destroys the entity and cascades: removal hooks fire so
// systems drop their tracking entries, then every component table is
// cleared, then the slot generation is bumped so the handle goes stale.
// Returns false for unknown or already removed handles.
func (w *World) RemoveEntity(e core.Entity) bool {
	if !w.Alive(e) {
		return false
	}

	for _, hook := range w.removalHooks {
		hook(e)
	}
	for _, s := range w.stores {
		s.DiscardEntity(e)
	}

	idx := e.Index()
	w.slots[idx].alive = false
	w.slots[idx].mask = 0
	w.slots[idx].generation++
	w.free = append(w.free, idx)
	w.live--

	w.log.Debug("entity removed", zap.Uint64("entity", uint64(e)))
	return true
}

// Alive reports whether the handle refers to a live entity.
func (w *World) Alive(e core.Entity) bool {
	idx := e.Index()
	return idx < uint32(len(w.slots)) &&
		w.slots[idx].alive &&
		w.slots[idx].generation == e.Generation()
}

// HasComponent checks the presence mask for one component type.
func (w *World) HasComponent(e core.Entity, kind component.Kind) bool {
	return w.Alive(e) && w.slots[e.Index()].mask.Has(kind)
}

// Mask returns the entity's presence record.
func (w *World) Mask(e core.Entity) (component.Kind, bool) {
	if !w.Alive(e) {
		return 0, false
	}
	return w.slots[e.Index()].mask, true
}

func (w *World) setPresence(e core.Entity, kind component.Kind, on bool) {
	idx := e.Index()
	if on {
		w.slots[idx].mask |= kind
	} else {
		w.slots[idx].mask &^= kind
	}
}

// Entities returns all live handles, ascending.
func (w *World) Entities() []core.Entity {
	result := make([]core.Entity, 0, w.live)
	for idx := range w.slots {
		if w.slots[idx].alive {
			result = append(result, core.MakeEntity(uint32(idx), w.slots[idx].generation))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.live
}

// OnRemove registers a hook invoked for every entity removal, before
// component tables are cleared. Systems use it to drop tracking state.
func (w *World) OnRemove(hook func(core.Entity)) {
	w.removalHooks = append(w.removalHooks, hook)
}

// AddSystem registers a system and sorts by priority.
func (w *World) AddSystem(system System) {
	w.systems = append(w.systems, system)

	// Bubble sort, small N
	for i := 0; i < len(w.systems)-1; i++ {
		for j := 0; j < len(w.systems)-i-1; j++ {
			if w.systems[j].Priority() > w.systems[j+1].Priority() {
				w.systems[j], w.systems[j+1] = w.systems[j+1], w.systems[j]
			}
		}
	}
}

// Update advances the simulation one tick. Systems run in priority
// order; the fixed order is the only writer sequencing mechanism.
func (w *World) Update(dt float64) {
	w.GameTime += dt
	for _, system := range w.systems {
		system.Update(dt)
	}
}

// Clear removes all entities, components and time state. Registered
// systems and hooks are kept.
func (w *World) Clear() {
	for _, s := range w.stores {
		s.ClearAll()
	}
	w.slots = w.slots[:0]
	w.free = w.free[:0]
	w.live = 0
	w.GameTime = 0
	w.PlayerResources = 0
}
