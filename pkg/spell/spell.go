// Package spell describes castable spells as the shout system sees them.
package spell

import (
	"fmt"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
)

// CastingType is how the host engine casts a spell.
type CastingType int

const (
	ConstantEffect CastingType = iota
	FireAndForget
	Concentration
	Scroll
)

func (c CastingType) String() string {
	switch c {
	case ConstantEffect:
		return "Constant Effect"
	case FireAndForget:
		return "Fire and Forget"
	case Concentration:
		return "Concentration"
	case Scroll:
		return "Scroll"
	}
	return fmt.Sprintf("CastingType(%d)", int(c))
}

// Category groups casting types by the shout pool that can hold them.
type Category int

const (
	CategoryOther Category = iota
	CategoryInstant
	CategorySustained
)

func (c Category) String() string {
	switch c {
	case CategoryInstant:
		return "Fire and Forget"
	case CategorySustained:
		return "Concentration"
	case CategoryOther:
		return "Other"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Archetype is the subset of magic effect archetypes that change how a
// spell shout behaves.
type Archetype int

const (
	ArchetypeNone Archetype = iota
	// ArchetypeBoundWeapon spells summon a weapon into a hand and must be
	// cast from that hand.
	ArchetypeBoundWeapon
)

// EquipSlot is the equip slot a spell occupies when readied in hand.
type EquipSlot int

const (
	EquipNone EquipSlot = iota
	EquipRightHand
	EquipLeftHand
	EquipEitherHand
	EquipBothHands
)

// Sounds are the sound descriptors of a spell's primary effect. Zero means
// the effect has no sound for that slot.
type Sounds struct {
	Release  form.ID `json:"release,omitempty"`
	CastLoop form.ID `json:"cast_loop,omitempty"`
}

// Spell is a castable spell record. Category and archetype are fixed when
// the record is built, so callers never probe the host object again.
type Spell struct {
	ID        form.ID     `json:"id"`
	Name      string      `json:"name"`
	Casting   CastingType `json:"casting"`
	Archetype Archetype   `json:"archetype,omitempty"`
	EquipSlot EquipSlot   `json:"equip_slot,omitempty"`
	BaseCost  float64     `json:"base_cost"`
	Icon      string      `json:"icon,omitempty"`
	Sounds    Sounds      `json:"sounds,omitempty"`
}

func (s *Spell) String() string {
	if s == nil {
		return "<nil spell>"
	}
	if s.Name == "" {
		return s.ID.String()
	}
	return fmt.Sprintf("%s (%s)", s.ID, s.Name)
}

// Category maps the casting type onto a shout pool category.
func (s *Spell) Category() Category {
	switch s.Casting {
	case FireAndForget:
		return CategoryInstant
	case Concentration:
		return CategorySustained
	case ConstantEffect, Scroll:
		return CategoryOther
	}
	return CategoryOther
}

// IsBoundWeapon reports whether the spell conjures a weapon into a hand.
func (s *Spell) IsBoundWeapon() bool {
	return s.Archetype == ArchetypeBoundWeapon
}

// IsHandEquipped reports whether the spell can be readied in a hand. Scrolls
// and staff enchantments never qualify; two-handed spells only when allow2H
// is set.
func (s *Spell) IsHandEquipped(allow2H bool) bool {
	if s.Casting == Scroll {
		return false
	}
	switch s.EquipSlot {
	case EquipRightHand, EquipLeftHand, EquipEitherHand:
		return true
	case EquipBothHands:
		return allow2H
	case EquipNone:
		return false
	}
	return false
}

// RecoveryTime is the shout recovery time, in seconds, written to every
// variation of a shout the spell is assigned to.
//
// Bound weapons get a short recovery so holding the button through a level
// three shout does not fire a second level one shout. Concentration spells
// get a long one so the shout animation does not loop.
func (s *Spell) RecoveryTime() float32 {
	if s.IsBoundWeapon() {
		return 2
	}
	if s.Casting == Concentration {
		return 5
	}
	return 0
}
