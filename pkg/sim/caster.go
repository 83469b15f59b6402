package sim

import (
	"sync"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// Caster is a simulated magic caster. Fire-and-forget casts finish at once;
// concentration casts run until FinishCast or until the owner runs out of
// magicka during Drain.
type Caster struct {
	owner  *Player
	source host.CastingSource

	mu       sync.Mutex
	refuse   host.CannotCastReason
	current  *spell.Spell
	cost     float64
	casts    []*spell.Spell
	finishes int
}

var _ host.Caster = (*Caster)(nil)

func newCaster(owner *Player, src host.CastingSource) *Caster {
	return &Caster{owner: owner, source: src}
}

// Refuse makes CheckCast fail with r. ReasonOK restores normal checks.
func (c *Caster) Refuse(r host.CannotCastReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refuse = r
}

func (c *Caster) CheckCast(sp *spell.Spell) (bool, host.CannotCastReason) {
	c.mu.Lock()
	refuse := c.refuse
	c.mu.Unlock()
	if refuse != host.ReasonOK {
		return false, refuse
	}
	if c.owner.Magicka() < c.owner.MagickaCost(sp) {
		return false, host.ReasonMagicka
	}
	return true, host.ReasonOK
}

func (c *Caster) CastImmediate(sp *spell.Spell, _ host.Actor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.casts = append(c.casts, sp)
	if sp.Casting == spell.Concentration {
		c.current = sp
		if c.cost == 0 {
			c.cost = c.owner.MagickaCost(sp)
		}
	}
}

func (c *Caster) IsCasting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Caster) FinishCast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.cost = 0
	c.finishes++
}

func (c *Caster) SetCurrentSpellCost(cost float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cost = cost
}

// CurrentSpellCost is the magicka per second charged for the running cast.
func (c *Caster) CurrentSpellCost() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cost
}

// Casts lists every spell cast so far.
func (c *Caster) Casts() []*spell.Spell {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*spell.Spell(nil), c.casts...)
}

func (c *Caster) Finishes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishes
}

// Drain charges the running cast for dt seconds. A cast the owner can no
// longer pay for stops on its own.
func (c *Caster) Drain(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	need := c.cost * dt
	if c.owner.Magicka() < need {
		c.owner.SetMagicka(0)
		c.current = nil
		c.cost = 0
		return
	}
	c.owner.DamageMagicka(need)
}
