package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skirmish/component"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Templates)
}

func TestBalanceStatsFallback(t *testing.T) {
	b := &Default().Balance

	assault := b.Stats("assault")
	assert.Equal(t, 7.0, assault.Range)
	assert.Equal(t, 15.0, assault.Damage)

	unknown := b.Stats("grenadier")
	assert.Equal(t, b.Default, unknown)
}

func TestAttackRangeMeleeOverridesTable(t *testing.T) {
	b := &Default().Balance

	assert.Equal(t, 15.0, b.AttackRange("sniper", component.AttackRanged))
	// Melee reach applies regardless of the unit row
	assert.Equal(t, b.MeleeRange, b.AttackRange("sniper", component.AttackMelee))
	assert.Equal(t, b.MeleeRange, b.AttackRange("unknown", component.AttackMelee))
}

func TestLoadMergesOverDefaults(t *testing.T) {
	in := `
balance:
  critChance: 0
  units:
    assault:
      range: 9
      damage: 20
      cooldown: 1.0
      speed: 4.0
ai:
  detectionRadius: 30
`
	cfg, err := Load(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Balance.CritChance)
	assert.Equal(t, 9.0, cfg.Balance.Stats("assault").Range)
	assert.Equal(t, 30.0, cfg.AI.DetectionRadius)

	// Untouched fields keep their defaults
	assert.Equal(t, 15.0, cfg.Balance.Stats("sniper").Range)
	assert.Equal(t, 0.5, cfg.AI.DecisionInterval)
	assert.Contains(t, cfg.Templates, "lightInfantry")
}

func TestLoadEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().Balance.CritChance, cfg.Balance.CritChance)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("blance:\n  critChance: 0\n"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"negative crit chance": "balance:\n  critChance: -0.5\n",
		"zero cell size":       "collisionCellSize: 0\n",
		"zero interval":        "ai:\n  decisionInterval: 0\n",
		"template zero health": "templates:\n  lightInfantry:\n    maxHealth: 0\n",
		"malformed yaml":       "balance: [\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestTemplateAttackDefaultsToRanged(t *testing.T) {
	assert.Equal(t, component.AttackRanged, Template{}.Attack())
	assert.Equal(t, component.AttackMelee, Template{AttackType: "melee"}.Attack())
}
