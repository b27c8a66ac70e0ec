package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/core"
)

// SnapshotVersion guards against restoring foreign-shaped data.
const SnapshotVersion = 1

// EntityRecord is one live entity and its presence flags.
type EntityRecord struct {
	ID         uint64 `json:"id"`
	Components uint32 `json:"components"`
}

// FreeSlot records a released arena slot with its bumped generation, so
// restored worlds keep rejecting handles from before the snapshot.
type FreeSlot struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// WorldSnapshot is the world store export: entity set, presence flags,
// id allocation state and global counters.
type WorldSnapshot struct {
	ID              string         `json:"id"`
	Version         int            `json:"version"`
	Timestamp       int64          `json:"timestamp"`
	GameTime        float64        `json:"gameTime"`
	PlayerResources float64        `json:"playerResources"`
	SlotCount       uint32         `json:"slotCount"`
	Entities        []EntityRecord `json:"entities"`
	FreeSlots       []FreeSlot     `json:"freeSlots"`
}

// Snapshot bundles the world store with every component table.
// All fields are plain nested data; an external collaborator decides
// where and how it is persisted.
type Snapshot struct {
	World     WorldSnapshot                           `json:"world"`
	Positions []Pair[component.PositionComponent]     `json:"positions"`
	Healths   []Pair[component.HealthComponent]       `json:"healths"`
	Factions  []Pair[component.FactionComponent]      `json:"factions"`
	Units     []Pair[component.UnitTypeComponent]     `json:"units"`
	Buildings []Pair[component.BuildingTypeComponent] `json:"buildings"`
	Resources []Pair[component.ResourceComponent]     `json:"resources"`
	Renders   []Pair[component.RenderComponent]       `json:"renders"`
	Aims      []Pair[component.AimingComponent]       `json:"aims"`
}

// Snapshot exports the world store state.
func (w *World) Snapshot() WorldSnapshot {
	snap := WorldSnapshot{
		ID:              uuid.NewString(),
		Version:         SnapshotVersion,
		Timestamp:       time.Now().Unix(),
		GameTime:        w.GameTime,
		PlayerResources: w.PlayerResources,
		SlotCount:       uint32(len(w.slots)),
		Entities:        make([]EntityRecord, 0, w.live),
		FreeSlots:       make([]FreeSlot, 0, len(w.free)),
	}
	for idx := range w.slots {
		s := w.slots[idx]
		if s.alive {
			snap.Entities = append(snap.Entities, EntityRecord{
				ID:         uint64(core.MakeEntity(uint32(idx), s.generation)),
				Components: uint32(s.mask),
			})
		} else {
			snap.FreeSlots = append(snap.FreeSlots, FreeSlot{Index: uint32(idx), Generation: s.generation})
		}
	}
	return snap
}

// Capture exports the world store and all component tables.
func (w *World) Capture() Snapshot {
	return Snapshot{
		World:     w.Snapshot(),
		Positions: w.Positions.Pairs(),
		Healths:   w.Healths.Pairs(),
		Factions:  w.Factions.Pairs(),
		Units:     w.Units.Pairs(),
		Buildings: w.Buildings.Pairs(),
		Resources: w.Resources.Pairs(),
		Renders:   w.Renders.Pairs(),
		Aims:      w.Aims.Pairs(),
	}
}

type entityCheck struct {
	recorded component.Kind
	got      component.Kind
}

func tallyTable[T any](name string, pairs []Pair[T], kind component.Kind, checks map[core.Entity]*entityCheck) error {
	seen := make(map[core.Entity]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.Entity]; dup {
			return errors.Errorf("snapshot: table %s: duplicate entry for entity %#x", name, uint64(p.Entity))
		}
		seen[p.Entity] = struct{}{}
		c, ok := checks[p.Entity]
		if !ok {
			return errors.Errorf("snapshot: table %s: entry for unknown entity %#x", name, uint64(p.Entity))
		}
		c.got |= kind
	}
	return nil
}

// validate checks the snapshot's internal consistency without touching
// world state, so a corrupt snapshot is rejected before any mutation.
func (snap *Snapshot) validate() (map[core.Entity]*entityCheck, error) {
	ws := &snap.World
	if ws.Version != SnapshotVersion {
		return nil, errors.Errorf("snapshot: version %d, want %d", ws.Version, SnapshotVersion)
	}
	if int(ws.SlotCount) != len(ws.Entities)+len(ws.FreeSlots) {
		return nil, errors.Errorf("snapshot: slot count %d does not cover %d live + %d free",
			ws.SlotCount, len(ws.Entities), len(ws.FreeSlots))
	}

	usedSlots := make(map[uint32]struct{}, ws.SlotCount)
	checks := make(map[core.Entity]*entityCheck, len(ws.Entities))
	for _, rec := range ws.Entities {
		e := core.Entity(rec.ID)
		mask := component.Kind(rec.Components)
		if e.Index() >= ws.SlotCount {
			return nil, errors.Errorf("snapshot: entity %#x outside slot range %d", rec.ID, ws.SlotCount)
		}
		if e.Generation() == 0 {
			return nil, errors.Errorf("snapshot: entity %#x has zero generation", rec.ID)
		}
		if mask&^component.KnownKinds != 0 {
			return nil, errors.Errorf("snapshot: entity %#x has unknown presence bits %#x", rec.ID, rec.Components)
		}
		if _, dup := usedSlots[e.Index()]; dup {
			return nil, errors.Errorf("snapshot: duplicate slot %d", e.Index())
		}
		usedSlots[e.Index()] = struct{}{}
		checks[e] = &entityCheck{recorded: mask}
	}
	for _, fs := range ws.FreeSlots {
		if fs.Index >= ws.SlotCount {
			return nil, errors.Errorf("snapshot: free slot %d outside slot range %d", fs.Index, ws.SlotCount)
		}
		if fs.Generation == 0 {
			return nil, errors.Errorf("snapshot: free slot %d has zero generation", fs.Index)
		}
		if _, dup := usedSlots[fs.Index]; dup {
			return nil, errors.Errorf("snapshot: slot %d recorded both live and free", fs.Index)
		}
		usedSlots[fs.Index] = struct{}{}
	}

	if err := tallyTable("positions", snap.Positions, component.KindPosition, checks); err != nil {
		return nil, err
	}
	if err := tallyTable("healths", snap.Healths, component.KindHealth, checks); err != nil {
		return nil, err
	}
	if err := tallyTable("factions", snap.Factions, component.KindFaction, checks); err != nil {
		return nil, err
	}
	if err := tallyTable("units", snap.Units, component.KindUnitType, checks); err != nil {
		return nil, err
	}
	if err := tallyTable("buildings", snap.Buildings, component.KindBuildingType, checks); err != nil {
		return nil, err
	}
	if err := tallyTable("resources", snap.Resources, component.KindResource, checks); err != nil {
		return nil, err
	}
	if err := tallyTable("renders", snap.Renders, component.KindRender, checks); err != nil {
		return nil, err
	}
	if err := tallyTable("aims", snap.Aims, component.KindAiming, checks); err != nil {
		return nil, err
	}

	// Presence flags and table contents must agree exactly, otherwise
	// a restore would break the presence-record invariant.
	for e, c := range checks {
		if c.recorded != c.got {
			return nil, errors.Errorf("snapshot: entity %#x presence flags %#x disagree with tables %#x",
				uint64(e), uint32(c.recorded), uint32(c.got))
		}
	}
	return checks, nil
}

// Restore replaces the world's state with the snapshot. On any
// validation failure the world is left untouched.
func (w *World) Restore(snap Snapshot) error {
	if _, err := snap.validate(); err != nil {
		return errors.Wrap(err, "restore rejected")
	}

	ws := &snap.World

	for _, s := range w.stores {
		s.ClearAll()
	}
	w.slots = make([]slotMeta, ws.SlotCount)
	w.free = w.free[:0]
	for _, rec := range ws.Entities {
		e := core.Entity(rec.ID)
		w.slots[e.Index()] = slotMeta{generation: e.Generation(), alive: true}
	}
	for _, fs := range ws.FreeSlots {
		w.slots[fs.Index] = slotMeta{generation: fs.Generation}
		w.free = append(w.free, fs.Index)
	}
	w.live = len(ws.Entities)
	w.GameTime = ws.GameTime
	w.PlayerResources = ws.PlayerResources

	// Replace re-sets the presence bits; validation already proved the
	// result matches the recorded flags.
	if err := w.Positions.Replace(snap.Positions); err != nil {
		return errors.Wrap(err, "restore positions")
	}
	if err := w.Healths.Replace(snap.Healths); err != nil {
		return errors.Wrap(err, "restore healths")
	}
	if err := w.Factions.Replace(snap.Factions); err != nil {
		return errors.Wrap(err, "restore factions")
	}
	if err := w.Units.Replace(snap.Units); err != nil {
		return errors.Wrap(err, "restore units")
	}
	if err := w.Buildings.Replace(snap.Buildings); err != nil {
		return errors.Wrap(err, "restore buildings")
	}
	if err := w.Resources.Replace(snap.Resources); err != nil {
		return errors.Wrap(err, "restore resources")
	}
	if err := w.Renders.Replace(snap.Renders); err != nil {
		return errors.Wrap(err, "restore renders")
	}
	if err := w.Aims.Replace(snap.Aims); err != nil {
		return errors.Wrap(err, "restore aims")
	}

	w.log.Info("snapshot restored",
		zap.String("id", ws.ID),
		zap.Int("entities", len(ws.Entities)),
		zap.Float64("gameTime", ws.GameTime))
	return nil
}
