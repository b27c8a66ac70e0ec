package systems

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/config"
	"github.com/lixenwraith/skirmish/constant"
	"github.com/lixenwraith/skirmish/core"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

// SpawnPoint is a named map location enemies appear at.
type SpawnPoint struct {
	ID       int        `json:"id"`
	Position vmath.Vec3 `json:"position"`
}

// WaveConfig describes a timed batch of enemy spawns.
type WaveConfig struct {
	SpawnPointIDs []int    `json:"spawnPointIds"`
	EnemyTypes    []string `json:"enemyTypes"`
	TotalEnemies  int      `json:"totalEnemies"`
	SpawnInterval float64  `json:"spawnInterval"`
}

// Wave is the running state of one configured wave.
type Wave struct {
	ID            int      `json:"id"`
	SpawnPointIDs []int    `json:"spawnPointIds"`
	EnemyTypes    []string `json:"enemyTypes"`
	TotalEnemies  int      `json:"totalEnemies"`
	SpawnInterval float64  `json:"spawnInterval"`
	Timer         float64  `json:"timer"`
	Spawned       int      `json:"spawnedEnemies"`
	Active        bool     `json:"active"`
	Completed     bool     `json:"completed"`
}

// SpawnSystem instantiates templated enemies into the world on wave
// timers. Spawn point and enemy type selection draw from the injected
// seeded generator, so runs replay identically under the same seed.
type SpawnSystem struct {
	world *engine.World
	cfg   *config.Config
	rng   *rand.Rand
	ai    AIRegistrar
	log   *zap.Logger

	points      map[int]SpawnPoint
	waves       map[int]*Wave
	nextPointID int
	nextWaveID  int
}

func NewSpawnSystem(world *engine.World, cfg *config.Config, rng *rand.Rand, ai AIRegistrar, log *zap.Logger) *SpawnSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &SpawnSystem{
		world:       world,
		cfg:         cfg,
		rng:         rng,
		ai:          ai,
		log:         log,
		points:      make(map[int]SpawnPoint),
		waves:       make(map[int]*Wave),
		nextPointID: 1,
		nextWaveID:  1,
	}
}

func (s *SpawnSystem) Priority() int {
	return constant.PrioritySpawn
}

// CreateSpawnPoint registers a spawn location and returns its id.
func (s *SpawnSystem) CreateSpawnPoint(pos vmath.Vec3) int {
	id := s.nextPointID
	s.nextPointID++
	s.points[id] = SpawnPoint{ID: id, Position: pos}
	return id
}

// CreateWave registers a wave. Every referenced spawn point and enemy
// template must exist.
func (s *SpawnSystem) CreateWave(cfg WaveConfig) (int, error) {
	if len(cfg.SpawnPointIDs) == 0 {
		return 0, errors.New("spawn: wave without spawn points")
	}
	if len(cfg.EnemyTypes) == 0 {
		return 0, errors.New("spawn: wave without enemy types")
	}
	if cfg.TotalEnemies <= 0 {
		return 0, errors.New("spawn: wave without enemies")
	}
	if cfg.SpawnInterval <= 0 {
		return 0, errors.New("spawn: wave interval must be positive")
	}
	for _, pid := range cfg.SpawnPointIDs {
		if _, ok := s.points[pid]; !ok {
			return 0, errors.Errorf("spawn: unknown spawn point %d", pid)
		}
	}
	for _, t := range cfg.EnemyTypes {
		if _, ok := s.cfg.Templates[t]; !ok {
			return 0, errors.Errorf("spawn: unknown enemy template %q", t)
		}
	}

	id := s.nextWaveID
	s.nextWaveID++
	s.waves[id] = &Wave{
		ID:            id,
		SpawnPointIDs: append([]int(nil), cfg.SpawnPointIDs...),
		EnemyTypes:    append([]string(nil), cfg.EnemyTypes...),
		TotalEnemies:  cfg.TotalEnemies,
		SpawnInterval: cfg.SpawnInterval,
		Active:        true,
	}
	return id, nil
}

// Wave returns a copy of the wave state.
func (s *SpawnSystem) Wave(id int) (Wave, bool) {
	w, ok := s.waves[id]
	if !ok {
		return Wave{}, false
	}
	return *w, true
}

// SetWaveActive pauses or resumes a wave. False for unknown ids.
func (s *SpawnSystem) SetWaveActive(id int, active bool) bool {
	w, ok := s.waves[id]
	if !ok {
		return false
	}
	w.Active = active
	return true
}

// SpawnEnemy instantiates one entity from a named template and enrolls
// it with the AI controller. Returns false for unknown templates.
func (s *SpawnSystem) SpawnEnemy(enemyType string, pos vmath.Vec3) (core.Entity, bool) {
	t, ok := s.cfg.Templates[enemyType]
	if !ok {
		return core.NilEntity, false
	}

	e := s.world.CreateEntity()
	s.world.Positions.Add(e, component.PositionComponent{X: pos.X, Y: pos.Y, Z: pos.Z})
	s.world.Healths.Add(e, component.HealthComponent{
		Max:     t.MaxHealth,
		Current: t.MaxHealth,
		Armor:   t.Armor,
		Regen:   t.Regen,
	})
	s.world.Factions.Add(e, component.FactionComponent{
		Faction:    component.FactionEnemy,
		UnitType:   t.UnitType,
		AttackType: t.Attack(),
		DamageType: t.DamageType,
		Visibility: 1,
	})
	s.world.Units.Add(e, component.UnitTypeComponent{
		Type:      t.UnitType,
		Abilities: append([]string(nil), t.Abilities...),
	})
	s.world.Renders.Add(e, component.RenderComponent{Model: t.Model, Scale: t.Scale})

	if s.ai != nil {
		s.ai.RegisterEntity(e)
	}

	s.log.Debug("enemy spawned",
		zap.Uint64("entity", uint64(e)),
		zap.String("type", enemyType))
	return e, true
}

func (s *SpawnSystem) Update(dt float64) {
	for _, id := range sortedWaveIDs(s.waves) {
		w := s.waves[id]
		if !w.Active || w.Completed {
			continue
		}
		w.Timer += dt
		if w.Timer < w.SpawnInterval {
			continue
		}
		w.Timer = 0

		// Uniform draws from the seeded stream
		pid := w.SpawnPointIDs[s.rng.Intn(len(w.SpawnPointIDs))]
		enemyType := w.EnemyTypes[s.rng.Intn(len(w.EnemyTypes))]
		point := s.points[pid]

		if _, ok := s.SpawnEnemy(enemyType, point.Position); !ok {
			continue
		}
		w.Spawned++
		if w.Spawned >= w.TotalEnemies {
			w.Completed = true
			s.log.Info("wave completed",
				zap.Int("wave", w.ID),
				zap.Int("enemies", w.Spawned))
		}
	}
}

func sortedWaveIDs(m map[int]*Wave) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// --- serialization ---

// SpawnSnapshot is the system's serializable state.
type SpawnSnapshot struct {
	SpawnPoints      []SpawnPoint `json:"spawnPoints"`
	ActiveWaves      []Wave       `json:"activeWaves"`
	NextSpawnPointID int          `json:"nextSpawnPointId"`
	NextWaveID       int          `json:"nextWaveId"`
}

// Snapshot exports spawn points, wave state and id allocation.
func (s *SpawnSystem) Snapshot() SpawnSnapshot {
	snap := SpawnSnapshot{
		SpawnPoints:      make([]SpawnPoint, 0, len(s.points)),
		ActiveWaves:      make([]Wave, 0, len(s.waves)),
		NextSpawnPointID: s.nextPointID,
		NextWaveID:       s.nextWaveID,
	}
	pointIDs := make([]int, 0, len(s.points))
	for id := range s.points {
		pointIDs = append(pointIDs, id)
	}
	sort.Ints(pointIDs)
	for _, id := range pointIDs {
		snap.SpawnPoints = append(snap.SpawnPoints, s.points[id])
	}
	for _, id := range sortedWaveIDs(s.waves) {
		snap.ActiveWaves = append(snap.ActiveWaves, *s.waves[id])
	}
	return snap
}

// Restore replaces the system state. Malformed snapshots are rejected
// before any state is applied.
func (s *SpawnSystem) Restore(snap SpawnSnapshot) error {
	points := make(map[int]struct{}, len(snap.SpawnPoints))
	for _, p := range snap.SpawnPoints {
		if _, dup := points[p.ID]; dup {
			return errors.Errorf("spawn: duplicate spawn point %d", p.ID)
		}
		if p.ID >= snap.NextSpawnPointID {
			return errors.Errorf("spawn: spawn point %d beyond allocator %d", p.ID, snap.NextSpawnPointID)
		}
		points[p.ID] = struct{}{}
	}
	waveIDs := make(map[int]struct{}, len(snap.ActiveWaves))
	for _, w := range snap.ActiveWaves {
		if _, dup := waveIDs[w.ID]; dup {
			return errors.Errorf("spawn: duplicate wave %d", w.ID)
		}
		if w.ID >= snap.NextWaveID {
			return errors.Errorf("spawn: wave %d beyond allocator %d", w.ID, snap.NextWaveID)
		}
		waveIDs[w.ID] = struct{}{}
		for _, pid := range w.SpawnPointIDs {
			if _, ok := points[pid]; !ok {
				return errors.Errorf("spawn: wave %d references unknown point %d", w.ID, pid)
			}
		}
		for _, t := range w.EnemyTypes {
			if _, ok := s.cfg.Templates[t]; !ok {
				return errors.Errorf("spawn: wave %d references unknown template %q", w.ID, t)
			}
		}
		if w.Spawned > w.TotalEnemies {
			return errors.Errorf("spawn: wave %d spawned %d of %d", w.ID, w.Spawned, w.TotalEnemies)
		}
	}

	s.points = make(map[int]SpawnPoint, len(snap.SpawnPoints))
	for _, p := range snap.SpawnPoints {
		s.points[p.ID] = p
	}
	s.waves = make(map[int]*Wave, len(snap.ActiveWaves))
	for _, w := range snap.ActiveWaves {
		wc := w
		s.waves[w.ID] = &wc
	}
	s.nextPointID = snap.NextSpawnPointID
	s.nextWaveID = snap.NextWaveID
	return nil
}
