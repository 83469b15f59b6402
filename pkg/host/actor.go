package host

import (
	"fmt"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// CastingSource is the caster slot a spell is cast from.
type CastingSource int

const (
	SourceLeftHand CastingSource = iota
	SourceRightHand
	SourceOther
	SourceInstant
)

func (c CastingSource) String() string {
	switch c {
	case SourceLeftHand:
		return "left hand"
	case SourceRightHand:
		return "right hand"
	case SourceOther:
		return "other"
	case SourceInstant:
		return "instant"
	}
	return fmt.Sprintf("CastingSource(%d)", int(c))
}

// CannotCastReason is why a caster refused a spell.
type CannotCastReason int

const (
	ReasonOK CannotCastReason = iota
	ReasonMagicka
	ReasonPowerUsed
	ReasonRangedUnderwater
	ReasonMultipleCast
	ReasonItemCharge
	ReasonCastWhileShouting
	ReasonShoutWhileCasting
	ReasonShoutWhileRecovering
)

func (r CannotCastReason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonMagicka:
		return "magicka"
	case ReasonPowerUsed:
		return "power used"
	case ReasonRangedUnderwater:
		return "ranged underwater"
	case ReasonMultipleCast:
		return "multiple cast"
	case ReasonItemCharge:
		return "item charge"
	case ReasonCastWhileShouting:
		return "cast while shouting"
	case ReasonShoutWhileCasting:
		return "shout while casting"
	case ReasonShoutWhileRecovering:
		return "shout while recovering"
	}
	return fmt.Sprintf("CannotCastReason(%d)", int(r))
}

// Caster is one of an actor's magic casters.
type Caster interface {
	// CheckCast reports whether sp could be cast right now, and why not.
	CheckCast(sp *spell.Spell) (bool, CannotCastReason)
	// CastImmediate casts sp without animation, blaming blame for its effects.
	CastImmediate(sp *spell.Spell, blame Actor)
	IsCasting() bool
	FinishCast()
	// SetCurrentSpellCost overrides the magicka the engine charges for the
	// spell currently being cast.
	SetCurrentSpellCost(cost float64)
}

// SoundHandle is a playing sound.
type SoundHandle interface {
	Stop()
}

// Actor is a character in the game world.
type Actor interface {
	Name() string
	IsPlayer() bool

	HasShout(s *Shout) bool
	AddShout(s *Shout)
	UnlockWord(w *Word)
	// SelectedShout is the shout or power currently readied in the voice
	// slot, or nil.
	SelectedShout() *Shout
	// RightHandSpell is the spell readied in the right hand, or nil.
	RightHandSpell() *spell.Spell

	// ShoutVariation is the variation of the shout being performed. ok is
	// false when the actor has no high-level process data.
	ShoutVariation() (v VariationID, ok bool)
	SetVoiceRecoveryTime(seconds float32)

	// Caster returns nil when the actor has no caster for src.
	Caster(src CastingSource) Caster
	Magicka() float64
	DamageMagicka(amount float64)
	MagickaCost(sp *spell.Spell) float64

	// PlaySound returns nil when sound is zero.
	PlaySound(sound form.ID) SoundHandle
	UnequipHand(left bool) error
}
