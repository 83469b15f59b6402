package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

func TestPlayer_MagickaCostByLevel(t *testing.T) {
	sp := &spell.Spell{Name: "Test Bolt", Casting: spell.FireAndForget, BaseCost: 40}

	tests := []struct {
		name string
		spec PlayerSpec
		want float64
	}{
		{"level 1", PlayerSpec{Level: 1, CostReductionPerLevel: 0.01}, 40},
		{"level 30", PlayerSpec{Level: 30, CostReductionPerLevel: 0.01}, 40 * 0.71},
		{"floor", PlayerSpec{Level: 80, CostReductionPerLevel: 0.01}, 40 * MinCostFactor},
		{"multiplier", PlayerSpec{Level: 11, CostReductionPerLevel: 0.01, CostMultiplier: 2}, 80 * 0.9},
		{"no reduction", PlayerSpec{Level: 80}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlayer(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.spec.Level, p.Level())
			assert.InDelta(t, tt.want, p.MagickaCost(sp), 1e-9)
		})
	}
	p, err := NewPlayer(PlayerSpec{})
	require.NoError(t, err)
	assert.Zero(t, p.MagickaCost(nil))
}

func TestNewWorld_DefaultCostReduction(t *testing.T) {
	w, err := NewWorld(Options{Player: PlayerSpec{Level: 21}})
	require.NoError(t, err)
	assert.InDelta(t, 41*0.8, w.Player.MagickaCost(w.Spell("Firebolt")), 1e-9)
}
