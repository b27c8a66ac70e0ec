package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/vmath"
)

func newSpawnRig(seed int64) (*rig, *SpawnSystem) {
	r := newRig(seed)
	spawn := NewSpawnSystem(r.world, r.cfg, engine.NewRand(seed), r.ai, nil)
	return r, spawn
}

// TestWaveSpawnsOnInterval verifies the wave cadence: one enemy per
// interval until the total is reached, then completion.
func TestWaveSpawnsOnInterval(t *testing.T) {
	r, spawn := newSpawnRig(7)
	p := spawn.CreateSpawnPoint(vmath.Vec3{X: 10, Z: 10})

	id, err := spawn.CreateWave(WaveConfig{
		SpawnPointIDs: []int{p},
		EnemyTypes:    []string{"lightInfantry"},
		TotalEnemies:  5,
		SpawnInterval: 1.0,
	})
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		spawn.Update(1.0)
		assert.Equal(t, i, r.world.EntityCount())
	}

	w, ok := spawn.Wave(id)
	require.True(t, ok)
	assert.True(t, w.Completed)
	assert.Equal(t, 5, w.Spawned)

	// A completed wave spawns nothing further
	spawn.Update(1.0)
	assert.Equal(t, 5, r.world.EntityCount())
}

// TestWavePartialIntervalAccumulates verifies sub-interval ticks add up
// instead of spawning early.
func TestWavePartialIntervalAccumulates(t *testing.T) {
	r, spawn := newSpawnRig(7)
	p := spawn.CreateSpawnPoint(vmath.Vec3{})
	_, err := spawn.CreateWave(WaveConfig{
		SpawnPointIDs: []int{p},
		EnemyTypes:    []string{"lightInfantry"},
		TotalEnemies:  2,
		SpawnInterval: 1.0,
	})
	require.NoError(t, err)

	spawn.Update(0.4)
	spawn.Update(0.4)
	assert.Equal(t, 0, r.world.EntityCount())

	spawn.Update(0.4)
	assert.Equal(t, 1, r.world.EntityCount())
}

// TestSpawnEnemyBuildsFromTemplate verifies the instantiated entity
// carries the template's components and lands in the decision loop.
func TestSpawnEnemyBuildsFromTemplate(t *testing.T) {
	r, spawn := newSpawnRig(7)
	at := vmath.Vec3{X: 3, Z: 4}

	e, ok := spawn.SpawnEnemy("heavyInfantry", at)
	require.True(t, ok)

	assert.Equal(t, at, r.position(e))

	h, _ := r.world.Healths.Get(e)
	assert.Equal(t, 120.0, h.Max)
	assert.Equal(t, 120.0, h.Current)
	assert.Equal(t, 3.0, h.Armor)

	f, _ := r.world.Factions.Get(e)
	assert.Equal(t, component.FactionEnemy, f.Faction)
	assert.Equal(t, component.AttackMelee, f.AttackType)
	assert.Equal(t, "kinetic", f.DamageType)

	u, _ := r.world.Units.Get(e)
	assert.Equal(t, "heavyInfantry", u.Type)

	rend, _ := r.world.Renders.Get(e)
	assert.Equal(t, "infantry_heavy", rend.Model)

	_, registered := r.ai.Control(e)
	assert.True(t, registered)
}

// TestSpawnEnemyUnknownTemplate verifies the lookup failure path.
func TestSpawnEnemyUnknownTemplate(t *testing.T) {
	r, spawn := newSpawnRig(7)
	_, ok := spawn.SpawnEnemy("dragon", vmath.Vec3{})
	assert.False(t, ok)
	assert.Equal(t, 0, r.world.EntityCount())
}

// TestCreateWaveValidation verifies bad wave configurations are
// rejected up front.
func TestCreateWaveValidation(t *testing.T) {
	_, spawn := newSpawnRig(7)
	p := spawn.CreateSpawnPoint(vmath.Vec3{})

	valid := WaveConfig{
		SpawnPointIDs: []int{p},
		EnemyTypes:    []string{"lightInfantry"},
		TotalEnemies:  3,
		SpawnInterval: 1.0,
	}

	cases := map[string]func(WaveConfig) WaveConfig{
		"no spawn points": func(c WaveConfig) WaveConfig { c.SpawnPointIDs = nil; return c },
		"unknown point":   func(c WaveConfig) WaveConfig { c.SpawnPointIDs = []int{99}; return c },
		"no enemy types":  func(c WaveConfig) WaveConfig { c.EnemyTypes = nil; return c },
		"unknown type":    func(c WaveConfig) WaveConfig { c.EnemyTypes = []string{"dragon"}; return c },
		"zero total":      func(c WaveConfig) WaveConfig { c.TotalEnemies = 0; return c },
		"zero interval":   func(c WaveConfig) WaveConfig { c.SpawnInterval = 0; return c },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := spawn.CreateWave(mutate(valid))
			assert.Error(t, err)
		})
	}

	_, err := spawn.CreateWave(valid)
	assert.NoError(t, err)
}

// TestSeededWaveSelectionReplays verifies two systems with the same
// seed make identical draws.
func TestSeededWaveSelectionReplays(t *testing.T) {
	run := func() []vmath.Vec3 {
		r, spawn := newSpawnRig(42)
		a := spawn.CreateSpawnPoint(vmath.Vec3{X: 1})
		b := spawn.CreateSpawnPoint(vmath.Vec3{X: 2})
		c := spawn.CreateSpawnPoint(vmath.Vec3{X: 3})
		_, err := spawn.CreateWave(WaveConfig{
			SpawnPointIDs: []int{a, b, c},
			EnemyTypes:    []string{"lightInfantry", "assault", "sniper"},
			TotalEnemies:  10,
			SpawnInterval: 1.0,
		})
		if err != nil {
			return nil
		}
		var got []vmath.Vec3
		for i := 0; i < 10; i++ {
			spawn.Update(1.0)
		}
		for _, e := range r.world.Entities() {
			got = append(got, r.position(e))
		}
		return got
	}

	first := run()
	require.Len(t, first, 10)
	assert.Equal(t, first, run())
}

// TestSpawnSnapshotRoundTrip verifies waves resume mid-flight after a
// restore.
func TestSpawnSnapshotRoundTrip(t *testing.T) {
	r, spawn := newSpawnRig(7)
	p := spawn.CreateSpawnPoint(vmath.Vec3{X: 5})
	id, err := spawn.CreateWave(WaveConfig{
		SpawnPointIDs: []int{p},
		EnemyTypes:    []string{"lightInfantry"},
		TotalEnemies:  4,
		SpawnInterval: 1.0,
	})
	require.NoError(t, err)
	spawn.Update(1.0)
	spawn.Update(1.0)

	snap := spawn.Snapshot()

	fresh := NewSpawnSystem(r.world, r.cfg, engine.NewRand(7), r.ai, nil)
	require.NoError(t, fresh.Restore(snap))

	w, ok := fresh.Wave(id)
	require.True(t, ok)
	assert.Equal(t, 2, w.Spawned)
	assert.False(t, w.Completed)

	// Id allocation continues past restored entries
	assert.Equal(t, p+1, fresh.CreateSpawnPoint(vmath.Vec3{}))

	fresh.Update(1.0)
	fresh.Update(1.0)
	w, _ = fresh.Wave(id)
	assert.True(t, w.Completed)
}

// TestSpawnRestoreValidation verifies fail-fast restore.
func TestSpawnRestoreValidation(t *testing.T) {
	_, spawn := newSpawnRig(7)

	err := spawn.Restore(SpawnSnapshot{
		ActiveWaves: []Wave{{
			ID:            1,
			SpawnPointIDs: []int{5},
			EnemyTypes:    []string{"lightInfantry"},
			TotalEnemies:  3,
			SpawnInterval: 1.0,
		}},
		NextSpawnPointID: 1,
		NextWaveID:       2,
	})
	assert.Error(t, err) // wave references a point that is not in the snapshot
}
