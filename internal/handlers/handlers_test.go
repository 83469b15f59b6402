package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/sim"
)

type fixture struct {
	world   *sim.World
	content *shoutmap.Content
	reg     *shoutmap.Registry
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupPlayer(t, sim.PlayerSpec{})
}

func setupPlayer(t *testing.T, player sim.PlayerSpec) *fixture {
	t.Helper()
	w, err := sim.NewWorld(sim.Options{Player: player})
	require.NoError(t, err)
	content, err := shoutmap.DiscoverContent(w.Forms, shoutmap.PluginName)
	require.NoError(t, err)
	granter := &shoutmap.ConsoleGranter{Console: w.Console, Content: content}
	return &fixture{
		world:   w,
		content: content,
		reg:     shoutmap.NewRegistry(shoutmap.LayoutPartitioned, content, granter, logger.Discard()),
	}
}

// ready assigns the named spell and selects its shout.
func (f *fixture) ready(t *testing.T, name string) *host.Shout {
	t.Helper()
	res := f.reg.Assign(f.world.Player, f.world.Spell(name))
	require.Equal(t, shoutmap.StatusOK, res.Status)
	require.True(t, f.world.Player.SelectShout(res.Shout))
	return res.Shout
}

func (f *fixture) played(id uint32) int {
	n := 0
	for _, s := range f.world.Player.Sounds() {
		if uint32(s.ID) == id {
			n++
		}
	}
	return n
}

// npc wraps the player so it no longer reports as the player.
type npc struct {
	*sim.Player
}

func (npc) IsPlayer() bool { return false }

func defaultAssignmentConfig() AssignmentConfig {
	s := config.DefaultSettings()
	return AssignmentConfig{
		Allow2HSpells: s.Allow2HSpells,
		AssignKeys:    s.ConvertSpellKeysets,
		UnassignKeys:  s.RemoveShoutKeysets,
	}
}
