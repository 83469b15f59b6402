// Package sim is an in-memory game host. Tests and the console tool drive
// the shout system through it instead of a running game.
package sim

import (
	"fmt"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

const (
	// BasePlugin holds the stock spells.
	BasePlugin      = "Skyrim.esm"
	BasePluginIndex = 0x00
	// PluginIndex is where the spell shout plugin loads by default.
	PluginIndex = 0x05

	MagicFailSound form.ID = 0x0003D0A6

	// DefaultCostReductionPerLevel makes each level above 1 one percent
	// cheaper.
	DefaultCostReductionPerLevel = 0.01
)

// World is a ready-to-use simulated game: forms, the player, the engine, a
// console and a resolver.
type World struct {
	Forms    *Forms
	Player   *Player
	Engine   *Engine
	Console  *Console
	Resolver *Resolver
}

// Options configures NewWorld.
type Options struct {
	Player PlayerSpec
	// PluginIndex overrides the load order index of the spell shout plugin.
	// Zero means PluginIndex.
	PluginIndex uint8
	// SkipPlugin leaves the spell shout plugin out of the load order.
	SkipPlugin bool
}

// NewWorld builds a world with the stock spells and, unless told not to, the
// spell shout plugin installed.
func NewWorld(opts Options) (*World, error) {
	if opts.Player.MaxMagicka == 0 {
		opts.Player.MaxMagicka = 200
	}
	if opts.Player.CostReductionPerLevel == 0 {
		opts.Player.CostReductionPerLevel = DefaultCostReductionPerLevel
	}
	if opts.Player.Name == "" {
		opts.Player.Name = "Dovahkiin"
	}
	player, err := NewPlayer(opts.Player)
	if err != nil {
		return nil, err
	}

	forms := NewForms()
	forms.AddPlugin(BasePlugin, BasePluginIndex)
	for _, sp := range Catalog() {
		forms.AddSpell(sp)
	}
	if !opts.SkipPlugin {
		index := opts.PluginIndex
		if index == 0 {
			index = PluginIndex
		}
		InstallPlugin(forms, index)
	}

	return &World{
		Forms:    forms,
		Player:   player,
		Engine:   NewEngine(player, MagicFailSound),
		Console:  NewConsole(player, forms),
		Resolver: NewResolver(),
	}, nil
}

// InstallPlugin adds the records of the spell shout plugin at index.
func InstallPlugin(forms *Forms, index uint8) {
	forms.AddPlugin(shoutmap.PluginName, index)
	full := func(local form.ID) form.ID {
		id, _ := forms.FullID(shoutmap.PluginName, local)
		return id
	}

	word := &host.Word{ID: full(shoutmap.WordLocalID), Name: "Spell"}
	unlearned := &host.Word{ID: full(shoutmap.UnlearnedWordLocalID), Name: "Unlearned"}
	forms.AddWord(word)
	forms.AddWord(unlearned)

	newShout := func(local form.ID, name string) *host.Shout {
		s := &host.Shout{ID: full(local), Name: name}
		for v := range s.Variations {
			s.Variations[v].Word = word
		}
		forms.AddShout(s)
		return s
	}
	newShout(shoutmap.DefaultShoutLocalID, "Spell Shout")
	for i, id := range shoutmap.FafShoutLocalIDs() {
		newShout(id, fmt.Sprintf("Fire and Forget Spell Shout %d", i+1))
	}
	for i, id := range shoutmap.ConcShoutLocalIDs() {
		newShout(id, fmt.Sprintf("Concentration Spell Shout %d", i+1))
	}
}

// Catalog returns fresh copies of the stock spells.
func Catalog() []*spell.Spell {
	return []*spell.Spell{
		{
			ID: 0x00012FCD, Name: "Flames", Casting: spell.Concentration,
			EquipSlot: spell.EquipEitherHand, BaseCost: 14, Icon: "flames.dds",
			Sounds: spell.Sounds{Release: 0x0003C7F2, CastLoop: 0x0003C7F3},
		},
		{
			ID: 0x0001C789, Name: "Firebolt", Casting: spell.FireAndForget,
			EquipSlot: spell.EquipEitherHand, BaseCost: 41, Icon: "firebolt.dds",
			Sounds: spell.Sounds{Release: 0x0003C7F4},
		},
		{
			ID: 0x0001C78A, Name: "Fireball", Casting: spell.FireAndForget,
			EquipSlot: spell.EquipEitherHand, BaseCost: 133, Icon: "fireball.dds",
			Sounds: spell.Sounds{Release: 0x0003C7F5},
		},
		{
			ID: 0x0002B96B, Name: "Healing", Casting: spell.Concentration,
			EquipSlot: spell.EquipEitherHand, BaseCost: 12, Icon: "healing.dds",
			Sounds: spell.Sounds{Release: 0x0003C7F6, CastLoop: 0x0003C7F7},
		},
		{
			ID: 0x000211EB, Name: "Sparks", Casting: spell.Concentration,
			EquipSlot: spell.EquipEitherHand, BaseCost: 16, Icon: "sparks.dds",
			Sounds: spell.Sounds{CastLoop: 0x0003C7F8},
		},
		{
			ID: 0x0004DEE8, Name: "Bound Sword", Casting: spell.FireAndForget,
			Archetype: spell.ArchetypeBoundWeapon, EquipSlot: spell.EquipEitherHand,
			BaseCost: 105, Icon: "boundsword.dds",
			Sounds: spell.Sounds{Release: 0x0003C7F9},
		},
		{
			ID: 0x00043324, Name: "Candlelight", Casting: spell.FireAndForget,
			EquipSlot: spell.EquipEitherHand, BaseCost: 21, Icon: "candlelight.dds",
		},
		{
			ID: 0x0007E8E3, Name: "Fire Storm", Casting: spell.FireAndForget,
			EquipSlot: spell.EquipBothHands, BaseCost: 1329, Icon: "firestorm.dds",
			Sounds: spell.Sounds{Release: 0x0003C7FA},
		},
		{
			ID: 0x0009CD52, Name: "Scroll of Fireball", Casting: spell.Scroll,
			EquipSlot: spell.EquipEitherHand, Icon: "scroll.dds",
		},
		{
			ID: 0x000F71D0, Name: "Resist Frost", Casting: spell.ConstantEffect,
		},
	}
}

// Spell looks up a stock spell by name; it panics when the name is unknown.
func (w *World) Spell(name string) *spell.Spell {
	sp := w.Forms.SpellByName(name)
	if sp == nil {
		panic("sim: no spell named " + name)
	}
	return sp
}

// PluginShout looks up a shout of the spell shout plugin by local ID.
func (w *World) PluginShout(local form.ID) *host.Shout {
	return w.Forms.Shout(shoutmap.PluginName, local)
}
