// Package host is the contract between the shout system and the game engine
// that embeds it. Everything the system reads from or does to the game goes
// through these types.
package host

import (
	"fmt"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// Word is a word of power. Actors must know the first word of a shout to
// use it.
type Word struct {
	ID   form.ID
	Name string
}

func (w *Word) String() string {
	if w == nil {
		return "<nil word>"
	}
	return fmt.Sprintf("%s (%s)", w.ID, w.Name)
}

// VariationID selects one of the three power levels of a shout.
type VariationID int

const (
	VariationOne VariationID = iota
	VariationTwo
	VariationThree
)

// Variation is one power level of a shout.
type Variation struct {
	Word *Word
	// RecoveryTime is read by the host's animation timing after the shout
	// fires. The shout system only writes it.
	RecoveryTime float32
}

// Shout is a voice power record. Slots in the shout registry are shouts, and
// identity is pointer identity: the host hands out one *Shout per record.
type Shout struct {
	ID         form.ID
	LocalID    form.ID
	Name       string
	Icon       string
	Variations [3]Variation
}

func (s *Shout) String() string {
	if s == nil {
		return "<nil shout>"
	}
	if s.Name == "" {
		return s.ID.String()
	}
	return fmt.Sprintf("%s (%s)", s.ID, s.Name)
}

// SetFullName replaces the display name.
func (s *Shout) SetFullName(name string) {
	s.Name = name
}

// CopyDisplay copies menu iconography from a spell.
func (s *Shout) CopyDisplay(sp *spell.Spell) {
	s.Icon = sp.Icon
}

// Forms looks up records by ID.
type Forms interface {
	// Shout looks up a shout defined by a plugin file. An empty plugin name
	// treats local as a full form ID.
	Shout(plugin string, local form.ID) *Shout
	Word(plugin string, local form.ID) *Word
	Spell(id form.ID) *spell.Spell
}

// Resolver maps form IDs stored in an older save onto the current load
// order.
type Resolver interface {
	ResolveFormID(old form.ID) (form.ID, bool)
}

// Console runs console commands. A nil error means the command was
// dispatched, not that it did anything.
type Console interface {
	Run(cmd string) error
}
