package config

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/skirmish/component"
)

// UnitStats is one row of the balance table.
type UnitStats struct {
	Range       float64 `yaml:"range" json:"range"`
	Damage      float64 `yaml:"damage" json:"damage"`
	Cooldown    float64 `yaml:"cooldown" json:"cooldown"`
	Speed       float64 `yaml:"speed" json:"speed"`
	AbilityOnly bool    `yaml:"abilityOnly" json:"abilityOnly"`
}

// Balance holds the combat lookup tables keyed by unit type.
type Balance struct {
	MeleeRange     float64              `yaml:"meleeRange" json:"meleeRange"`
	CritChance     float64              `yaml:"critChance" json:"critChance"`
	CritMultiplier float64              `yaml:"critMultiplier" json:"critMultiplier"`
	Default        UnitStats            `yaml:"default" json:"default"`
	Units          map[string]UnitStats `yaml:"units" json:"units"`
}

// Stats returns the row for unitType, falling back to the default row.
func (b *Balance) Stats(unitType string) UnitStats {
	if s, ok := b.Units[unitType]; ok {
		return s
	}
	return b.Default
}

// AttackRange resolves the range table: melee attackers use the melee
// reach regardless of unit type.
func (b *Balance) AttackRange(unitType string, attack component.AttackType) float64 {
	if attack == component.AttackMelee {
		return b.MeleeRange
	}
	return b.Stats(unitType).Range
}

// Template is a named spawn blueprint: the fixed component defaults an
// instantiated entity starts with.
type Template struct {
	UnitType   string   `yaml:"unitType" json:"unitType"`
	AttackType string   `yaml:"attackType" json:"attackType"` // "ranged" or "melee"
	DamageType string   `yaml:"damageType" json:"damageType"`
	MaxHealth  float64  `yaml:"maxHealth" json:"maxHealth"`
	Armor      float64  `yaml:"armor" json:"armor"`
	Regen      float64  `yaml:"regeneration" json:"regeneration"`
	Speed      float64  `yaml:"speed" json:"speed"`
	Model      string   `yaml:"model" json:"model"`
	Scale      float64  `yaml:"scale" json:"scale"`
	Abilities  []string `yaml:"abilities" json:"abilities"`
}

// Attack returns the template's attack type, defaulting to ranged.
func (t Template) Attack() component.AttackType {
	if t.AttackType == "melee" {
		return component.AttackMelee
	}
	return component.AttackRanged
}

// AITuning controls the decision loop.
type AITuning struct {
	DetectionRadius  float64 `yaml:"detectionRadius" json:"detectionRadius"`
	RetreatThreshold float64 `yaml:"retreatThreshold" json:"retreatThreshold"`
	DecisionInterval float64 `yaml:"decisionInterval" json:"decisionInterval"`
}

// AimAbility tunes the aimed-shot special attack.
type AimAbility struct {
	Cooldown    float64 `yaml:"cooldown" json:"cooldown"`
	Range       float64 `yaml:"range" json:"range"`
	Multiplier  float64 `yaml:"multiplier" json:"multiplier"`
	IgnoreArmor bool    `yaml:"ignoreArmor" json:"ignoreArmor"`
}

// Config is the full tuning surface of the simulation core.
type Config struct {
	Balance           Balance             `yaml:"balance" json:"balance"`
	AI                AITuning            `yaml:"ai" json:"ai"`
	Aim               AimAbility          `yaml:"aim" json:"aim"`
	CollisionCellSize float64             `yaml:"collisionCellSize" json:"collisionCellSize"`
	Templates         map[string]Template `yaml:"templates" json:"templates"`
}

// Default returns the compiled-in balance. Loaded files override it
// field by field.
func Default() *Config {
	return &Config{
		Balance: Balance{
			MeleeRange:     1.5,
			CritChance:     0.2,
			CritMultiplier: 1.5,
			Default:        UnitStats{Range: 5, Damage: 10, Cooldown: 1.0, Speed: 3.0},
			Units: map[string]UnitStats{
				"assault": {Range: 7, Damage: 15, Cooldown: 0.8, Speed: 3.5},
				"sniper":  {Range: 15, Damage: 25, Cooldown: 2.0, Speed: 3.0, AbilityOnly: true},
				"support": {Range: 10, Damage: 5, Cooldown: 1.5, Speed: 3.0},
			},
		},
		AI: AITuning{
			DetectionRadius:  20,
			RetreatThreshold: 0.3,
			DecisionInterval: 0.5,
		},
		Aim: AimAbility{
			Cooldown:    2.5,
			Range:       25,
			Multiplier:  10,
			IgnoreArmor: true,
		},
		CollisionCellSize: 5,
		Templates: map[string]Template{
			"lightInfantry": {
				UnitType: "lightInfantry", AttackType: "ranged",
				DamageType: "kinetic",
				MaxHealth:  50, Speed: 3.5, Model: "infantry_light", Scale: 1.0,
			},
			"heavyInfantry": {
				UnitType: "heavyInfantry", AttackType: "melee",
				DamageType: "kinetic",
				MaxHealth:  120, Armor: 3, Speed: 2.5, Model: "infantry_heavy", Scale: 1.2,
			},
			"assault": {
				UnitType: "assault", AttackType: "ranged",
				DamageType: "kinetic",
				MaxHealth:  80, Armor: 2, Speed: 3.5, Model: "infantry_assault", Scale: 1.0,
			},
			"sniper": {
				UnitType: "sniper", AttackType: "ranged",
				DamageType: "piercing",
				MaxHealth:  60, Speed: 3.0, Model: "infantry_sniper", Scale: 1.0,
				Abilities: []string{"aim"},
			},
			"support": {
				UnitType: "support", AttackType: "ranged",
				DamageType: "energy",
				MaxHealth:  70, Armor: 1, Regen: 1, Speed: 3.0, Model: "infantry_support", Scale: 1.0,
			},
		},
	}
}

// Load reads a YAML override on top of the defaults. Unknown fields are
// rejected so typos fail loudly instead of silently missing.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if c.CollisionCellSize <= 0 {
		return errors.New("config: collisionCellSize must be positive")
	}
	if c.AI.DecisionInterval <= 0 {
		return errors.New("config: ai.decisionInterval must be positive")
	}
	if c.Balance.CritChance < 0 || c.Balance.CritChance > 1 {
		return errors.Errorf("config: critChance %v outside [0,1]", c.Balance.CritChance)
	}
	for name, t := range c.Templates {
		if t.MaxHealth <= 0 {
			return errors.Errorf("config: template %s: maxHealth must be positive", name)
		}
		if t.Speed <= 0 {
			return errors.Errorf("config: template %s: speed must be positive", name)
		}
	}
	return nil
}
