// Terminal viewer for the skirmish simulation core. Runs a scripted
// engagement: a player squad holds the left flank while timed waves
// push in from the right.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/skirmish/component"
	"github.com/lixenwraith/skirmish/config"
	"github.com/lixenwraith/skirmish/engine"
	"github.com/lixenwraith/skirmish/systems"
	"github.com/lixenwraith/skirmish/vmath"
)

const tickSeconds = 0.05 // 20 Hz

type game struct {
	world     *engine.World
	cfg       *config.Config
	movement  *systems.MovementSystem
	combat    *systems.CombatSystem
	ai        *systems.AISystem
	spawn     *systems.SpawnSystem
	collision *systems.CollisionSystem
	log       *zap.Logger

	paused bool
	status string
}

func newGame(cfg *config.Config, seed int64, log *zap.Logger) *game {
	world := engine.NewWorld(log)

	movement := systems.NewMovementSystem(world, &cfg.Balance, log)
	combat := systems.NewCombatSystem(world, cfg, engine.NewRand(engine.SeedFor(seed, "combat")), log)
	movement.SetAttackQuery(combat)
	combat.SetMovement(movement)
	ai := systems.NewAISystem(world, cfg, movement, combat, log)
	spawn := systems.NewSpawnSystem(world, cfg, engine.NewRand(engine.SeedFor(seed, "spawn")), ai, log)
	collision := systems.NewCollisionSystem(world, cfg.CollisionCellSize, log)

	world.AddSystem(movement)
	world.AddSystem(combat)
	world.AddSystem(ai)
	world.AddSystem(spawn)
	world.AddSystem(collision)

	return &game{
		world:     world,
		cfg:       cfg,
		movement:  movement,
		combat:    combat,
		ai:        ai,
		spawn:     spawn,
		collision: collision,
		log:       log,
	}
}

// setup places the squad, a forward depot and the enemy wave.
func (g *game) setup() error {
	squad := []struct {
		unitType string
		at       vmath.Vec3
	}{
		{"assault", vmath.Vec3{X: 8, Z: 8}},
		{"assault", vmath.Vec3{X: 8, Z: 12}},
		{"assault", vmath.Vec3{X: 8, Z: 16}},
		{"sniper", vmath.Vec3{X: 4, Z: 10}},
		{"support", vmath.Vec3{X: 4, Z: 14}},
	}
	for _, m := range squad {
		t := g.cfg.Templates[m.unitType]
		e := g.world.CreateEntity()
		g.world.Positions.Add(e, component.PositionComponent{X: m.at.X, Z: m.at.Z})
		g.world.Healths.Add(e, component.HealthComponent{
			Max: t.MaxHealth, Current: t.MaxHealth, Armor: t.Armor, Regen: t.Regen,
		})
		g.world.Factions.Add(e, component.FactionComponent{
			Faction:    component.FactionPlayer,
			UnitType:   t.UnitType,
			AttackType: t.Attack(),
			DamageType: t.DamageType,
			Visibility: 1,
		})
		g.world.Units.Add(e, component.UnitTypeComponent{Type: t.UnitType, Abilities: t.Abilities})
		g.world.Renders.Add(e, component.RenderComponent{Model: t.Model, Scale: t.Scale})
		g.collision.RegisterEntity(e, false)
		g.ai.RegisterEntity(e)
	}

	depot := g.world.CreateEntity()
	g.world.Positions.Add(depot, component.PositionComponent{X: 2, Z: 12})
	g.world.Buildings.Add(depot, component.BuildingTypeComponent{Type: "depot"})
	g.world.Renders.Add(depot, component.RenderComponent{Model: "depot", Scale: 2})
	g.collision.RegisterEntity(depot, true)

	north := g.spawn.CreateSpawnPoint(vmath.Vec3{X: 55, Z: 5})
	south := g.spawn.CreateSpawnPoint(vmath.Vec3{X: 55, Z: 20})
	_, err := g.spawn.CreateWave(systems.WaveConfig{
		SpawnPointIDs: []int{north, south},
		EnemyTypes:    []string{"lightInfantry", "heavyInfantry", "assault"},
		TotalEnemies:  8,
		SpawnInterval: 2.0,
	})
	return err
}

func (g *game) saveSnapshot() {
	snap := g.world.Capture()
	name := fmt.Sprintf("skirmish-%d.json", time.Now().Unix())
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		g.status = "snapshot failed: " + err.Error()
		return
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		g.status = "snapshot failed: " + err.Error()
		return
	}
	g.status = "saved " + name
	g.log.Info("snapshot saved", zap.String("file", name))
}

func unitRune(f component.FactionComponent) rune {
	switch f.UnitType {
	case "sniper":
		return 's'
	case "support":
		return '+'
	case "heavyInfantry":
		return 'H'
	case "assault":
		return 'a'
	default:
		return 'i'
	}
}

func (g *game) render(screen tcell.Screen) {
	screen.Clear()

	playerStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	enemyStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
	buildingStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for _, e := range g.world.Entities() {
		pos, ok := g.world.Positions.Get(e)
		if !ok {
			continue
		}
		x, y := int(pos.X), int(pos.Z)+1
		switch {
		case g.world.Buildings.Has(e):
			screen.SetContent(x, y, '#', nil, buildingStyle)
		default:
			f, ok := g.world.Factions.Get(e)
			if !ok {
				continue
			}
			style := enemyStyle
			if f.Faction != component.FactionEnemy {
				style = playerStyle
			}
			r := unitRune(f)
			if g.combat.Aiming(e) {
				r = 'S'
			}
			screen.SetContent(x, y, r, nil, style)
		}
	}

	hud := fmt.Sprintf("t=%6.1fs  entities=%-3d  [space] pause  [w] snapshot  [q] quit",
		g.world.GameTime, g.world.EntityCount())
	if g.paused {
		hud = "PAUSED  " + hud
	}
	if g.status != "" {
		hud += "  " + g.status
	}
	for i, r := range hud {
		screen.SetContent(i, 0, r, nil, tcell.StyleDefault)
	}
	screen.Show()
}

func run(screen tcell.Screen, g *game) {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			events <- screen.PollEvent()
		}
	}()

	ticker := time.NewTicker(time.Duration(tickSeconds * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q':
					return
				case ev.Rune() == ' ':
					g.paused = !g.paused
				case ev.Rune() == 'w':
					g.saveSnapshot()
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			if !g.paused {
				g.world.Update(tickSeconds)
			}
			g.render(screen)
		}
	}
}

func main() {
	seed := flag.Int64("seed", 1, "simulation seed")
	cfgPath := flag.String("config", "", "balance config file (YAML)")
	logPath := flag.String("log", "", "log file (default: logging off)")
	flag.Parse()

	log := zap.NewNop()
	if *logPath != "" {
		lc := zap.NewProductionConfig()
		lc.OutputPaths = []string{*logPath}
		built, err := lc.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "log setup: %v\n", err)
			os.Exit(1)
		}
		log = built
		defer log.Sync()
	}

	cfg := config.Default()
	if *cfgPath != "" {
		f, err := os.Open(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		loaded, err := config.Load(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	g := newGame(cfg, *seed, log)
	if err := g.setup(); err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.HideCursor()

	run(screen, g)
}
