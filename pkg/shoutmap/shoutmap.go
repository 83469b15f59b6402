// Package shoutmap owns the assignment of spells to spell shouts: which
// shout slot holds which spell, how free slots are chosen, and how the
// assignment is written to and read from a cosave.
package shoutmap

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// Shoutmap is one pool of spell shouts and their spell assignments.
//
// Invariants:
//   - len(shouts) == len(spells)
//   - every element of shouts is non-nil
//   - no non-nil spell appears twice in spells
//
// A Shoutmap is not safe for concurrent use; Registry serializes access.
type Shoutmap struct {
	shouts  []*host.Shout
	spells  []*spell.Spell
	granter Granter
	logger  *slog.Logger
}

// New returns a Shoutmap holding shouts, all unassigned. Nil shouts are
// dropped.
func New(shouts []*host.Shout, granter Granter, logger *slog.Logger) *Shoutmap {
	kept := make([]*host.Shout, 0, len(shouts))
	for _, s := range shouts {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Shoutmap{
		shouts:  kept,
		spells:  make([]*spell.Spell, len(kept)),
		granter: granter,
		logger:  logger,
	}
}

func (m *Shoutmap) Len() int {
	return len(m.shouts)
}

// Shouts returns the pool in pool order. Callers must not modify it.
func (m *Shoutmap) Shouts() []*host.Shout {
	return m.shouts
}

// Spells is parallel to Shouts; unassigned entries are nil. Callers must not
// modify it.
func (m *Shoutmap) Spells() []*spell.Spell {
	return m.spells
}

func (m *Shoutmap) HasShout(s *host.Shout) bool {
	return m.indexOfShout(s) >= 0
}

func (m *Shoutmap) HasSpell(sp *spell.Spell) bool {
	return m.indexOfSpell(sp) >= 0
}

// SpellFor returns the spell assigned to s, or nil.
func (m *Shoutmap) SpellFor(s *host.Shout) *spell.Spell {
	if i := m.indexOfShout(s); i >= 0 {
		return m.spells[i]
	}
	return nil
}

// ShoutFor returns the shout sp is assigned to, or nil.
func (m *Shoutmap) ShoutFor(sp *spell.Spell) *host.Shout {
	if i := m.indexOfSpell(sp); i >= 0 {
		return m.shouts[i]
	}
	return nil
}

// Assign gives actor a shout casting sp. Never returns StatusUnknownShout.
//
// If sp already sits on a shout the actor knows, nothing changes. If it sits
// on a shout the actor lost, that shout is reused. Otherwise the first shout
// that holds a spell the actor no longer knows is reclaimed, then the first
// empty shout. Host side effects run before the mapping changes, and only
// once a slot has been found.
func (m *Shoutmap) Assign(actor host.Actor, sp *spell.Spell) AssignResult {
	if sp == nil {
		return AssignResult{Status: StatusInternalError}
	}
	shout := m.ShoutFor(sp)
	if shout != nil && actor.HasShout(shout) {
		return AssignResult{Status: StatusAlreadyAssigned}
	}
	if shout == nil {
		shout = m.nextUnassigned(actor)
		if shout == nil {
			return AssignResult{Status: StatusOutOfSlots}
		}
	}

	if err := m.granter.Grant(actor, shout); err != nil {
		m.logger.Error("Failed to grant shout", "shout", shout, "spell", sp, "error", err)
		return AssignResult{Status: StatusInternalError}
	}

	status := m.AssignTo(shout, sp)
	if status != StatusOK {
		return AssignResult{Status: status}
	}
	return AssignResult{Status: StatusOK, Shout: shout}
}

// AssignTo writes sp onto shout and rewrites the shout's display data and
// recovery time to match. If sp sat on another shout of the pool, that entry
// is cleared.
func (m *Shoutmap) AssignTo(shout *host.Shout, sp *spell.Spell) AssignStatus {
	i := m.indexOfShout(shout)
	if i < 0 {
		return StatusUnknownShout
	}
	if sp == nil {
		return StatusInternalError
	}
	if j := m.indexOfSpell(sp); j >= 0 && j != i {
		logger.Trace(m.logger, "moving spell between shouts", "spell", sp, "from", m.shouts[j], "to", shout)
		m.spells[j] = nil
	}

	m.spells[i] = sp
	shout.SetFullName(fmt.Sprintf("%s (Spell Shout)", sp.Name))
	shout.CopyDisplay(sp)

	if word := m.upperWord(sp); word != nil {
		shout.Variations[host.VariationTwo].Word = word
		shout.Variations[host.VariationThree].Word = word
	}
	recovery := sp.RecoveryTime()
	for v := range shout.Variations {
		shout.Variations[v].RecoveryTime = recovery
	}
	return StatusOK
}

// Unassign takes shout away from actor and clears its entry. Never returns
// StatusAlreadyAssigned or StatusOutOfSlots. The shout's display data is
// left as is.
func (m *Shoutmap) Unassign(actor host.Actor, shout *host.Shout) AssignStatus {
	i := m.indexOfShout(shout)
	if i < 0 {
		return StatusUnknownShout
	}
	if err := m.granter.Revoke(actor, shout); err != nil {
		m.logger.Error("Failed to revoke shout", "shout", shout, "error", err)
		return StatusInternalError
	}
	m.spells[i] = nil
	return StatusOK
}

func (m *Shoutmap) upperWord(sp *spell.Spell) *host.Word {
	if m.granter == nil {
		return nil
	}
	return m.granter.UpperWord(sp.Category())
}

// nextUnassigned treats shouts the actor does not know as free, preferring
// ones that still hold a stale spell.
func (m *Shoutmap) nextUnassigned(actor host.Actor) *host.Shout {
	for i, s := range m.shouts {
		if m.spells[i] != nil && !actor.HasShout(s) {
			logger.Trace(m.logger, "shout can be assigned to", "shout", s)
			return s
		}
	}
	for i, s := range m.shouts {
		if m.spells[i] == nil {
			logger.Trace(m.logger, "shout can be assigned to", "shout", s)
			return s
		}
	}
	logger.Trace(m.logger, "no remaining unassigned shouts")
	return nil
}

func (m *Shoutmap) indexOfShout(s *host.Shout) int {
	if s == nil {
		return -1
	}
	return slices.Index(m.shouts, s)
}

func (m *Shoutmap) indexOfSpell(sp *spell.Spell) int {
	if sp == nil {
		return -1
	}
	return slices.Index(m.spells, sp)
}
