package shoutmap

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// Layout decides how shouts are split between spell categories.
type Layout int

const (
	// LayoutPartitioned keeps one pool per category. A full fire-and-forget
	// pool never takes a concentration shout.
	LayoutPartitioned Layout = iota
	// LayoutShared puts every shout in one pool serving both categories.
	LayoutShared
)

func (l Layout) String() string {
	switch l {
	case LayoutPartitioned:
		return "partitioned"
	case LayoutShared:
		return "shared"
	}
	return "unknown"
}

// ParseLayout maps a settings value onto a Layout. Anything unrecognized is
// partitioned.
func ParseLayout(s string) Layout {
	if strings.EqualFold(strings.TrimSpace(s), "shared") {
		return LayoutShared
	}
	return LayoutPartitioned
}

// Record tags of the pools in a cosave.
var (
	TagFaf    = form.MakeTag("FAF")
	TagConc   = form.MakeTag("CONC")
	TagShared = form.MakeTag("SHOU")
)

// Pool is a shoutmap together with its cosave record tag.
type Pool struct {
	Tag form.Tag
	Map *Shoutmap
}

// Slot is one row of a registry listing.
type Slot struct {
	Tag   form.Tag
	Shout *host.Shout
	Spell *spell.Spell
}

// Registry holds every shout pool behind one mutex. Grants and revokes run
// inside the critical section so the host never sees a half-made change.
type Registry struct {
	mu      sync.Mutex
	layout  Layout
	content *Content
	granter Granter
	logger  *slog.Logger
	pools   []Pool
}

// NewRegistry builds an empty registry over the shouts in content.
func NewRegistry(layout Layout, content *Content, granter Granter, logger *slog.Logger) *Registry {
	if content == nil {
		content = &Content{}
	}
	r := &Registry{
		layout:  layout,
		content: content,
		granter: granter,
		logger:  logger,
	}
	r.reset()
	return r
}

func (r *Registry) reset() {
	switch r.layout {
	case LayoutShared:
		all := make([]*host.Shout, 0, len(r.content.FafShouts)+len(r.content.ConcShouts))
		all = append(all, r.content.FafShouts...)
		all = append(all, r.content.ConcShouts...)
		r.pools = []Pool{{Tag: TagShared, Map: New(all, r.granter, r.logger)}}
	case LayoutPartitioned:
		r.pools = []Pool{
			{Tag: TagFaf, Map: New(r.content.FafShouts, r.granter, r.logger)},
			{Tag: TagConc, Map: New(r.content.ConcShouts, r.granter, r.logger)},
		}
	}
}

func (r *Registry) Layout() Layout {
	return r.layout
}

// Update runs fn with the registry locked. fn must not keep tx.
func (r *Registry) Update(fn func(tx *Tx)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&Tx{r: r})
}

// Tx is the view of a locked registry.
type Tx struct {
	r *Registry
}

// Pools lists the pools in cosave order.
func (tx *Tx) Pools() []Pool {
	return tx.r.pools
}

// Pool returns the pool holding spells of category c, or nil when no pool
// serves c.
func (tx *Tx) Pool(c spell.Category) *Shoutmap {
	switch tx.r.layout {
	case LayoutShared:
		switch c {
		case spell.CategoryInstant, spell.CategorySustained:
			return tx.r.pools[0].Map
		case spell.CategoryOther:
			return nil
		}
	case LayoutPartitioned:
		switch c {
		case spell.CategoryInstant:
			return tx.r.pools[0].Map
		case spell.CategorySustained:
			return tx.r.pools[1].Map
		case spell.CategoryOther:
			return nil
		}
	}
	return nil
}

// PoolByTag returns the pool saved under tag, or nil.
func (tx *Tx) PoolByTag(tag form.Tag) *Shoutmap {
	for _, p := range tx.r.pools {
		if p.Tag == tag {
			return p.Map
		}
	}
	return nil
}

// PoolOf returns the pool that owns shout, or nil when shout is not a spell
// shout.
func (tx *Tx) PoolOf(shout *host.Shout) *Shoutmap {
	for _, p := range tx.r.pools {
		if p.Map.HasShout(shout) {
			return p.Map
		}
	}
	return nil
}

func (tx *Tx) Has(shout *host.Shout) bool {
	return tx.PoolOf(shout) != nil
}

func (tx *Tx) HasSpell(sp *spell.Spell) bool {
	if sp == nil {
		return false
	}
	pool := tx.Pool(sp.Category())
	return pool != nil && pool.HasSpell(sp)
}

func (tx *Tx) SpellFor(shout *host.Shout) *spell.Spell {
	if pool := tx.PoolOf(shout); pool != nil {
		return pool.SpellFor(shout)
	}
	return nil
}

// Assign assigns sp in the pool serving its category.
func (tx *Tx) Assign(actor host.Actor, sp *spell.Spell) AssignResult {
	if sp == nil {
		return AssignResult{Status: StatusInternalError}
	}
	pool := tx.Pool(sp.Category())
	if pool == nil {
		tx.r.logger.Error("No shout pool serves spell", "spell", sp, "category", sp.Category())
		return AssignResult{Status: StatusInternalError}
	}
	return pool.Assign(actor, sp)
}

// AssignTo writes sp onto shout without touching the actor.
func (tx *Tx) AssignTo(shout *host.Shout, sp *spell.Spell) AssignStatus {
	pool := tx.PoolOf(shout)
	if pool == nil {
		return StatusUnknownShout
	}
	return pool.AssignTo(shout, sp)
}

func (tx *Tx) Unassign(actor host.Actor, shout *host.Shout) AssignStatus {
	pool := tx.PoolOf(shout)
	if pool == nil {
		return StatusUnknownShout
	}
	return pool.Unassign(actor, shout)
}

// Reset drops every assignment.
func (tx *Tx) Reset() {
	tx.r.reset()
}

// Slots lists every shout of every pool with its spell.
func (tx *Tx) Slots() []Slot {
	var slots []Slot
	for _, p := range tx.r.pools {
		spells := p.Map.Spells()
		for i, s := range p.Map.Shouts() {
			slots = append(slots, Slot{Tag: p.Tag, Shout: s, Spell: spells[i]})
		}
	}
	return slots
}

func (r *Registry) SpellFor(shout *host.Shout) (sp *spell.Spell) {
	r.Update(func(tx *Tx) { sp = tx.SpellFor(shout) })
	return sp
}

func (r *Registry) Has(shout *host.Shout) (ok bool) {
	r.Update(func(tx *Tx) { ok = tx.Has(shout) })
	return ok
}

func (r *Registry) HasSpell(sp *spell.Spell) (ok bool) {
	r.Update(func(tx *Tx) { ok = tx.HasSpell(sp) })
	return ok
}

func (r *Registry) Assign(actor host.Actor, sp *spell.Spell) (res AssignResult) {
	r.Update(func(tx *Tx) { res = tx.Assign(actor, sp) })
	return res
}

func (r *Registry) Unassign(actor host.Actor, shout *host.Shout) (status AssignStatus) {
	r.Update(func(tx *Tx) { status = tx.Unassign(actor, shout) })
	return status
}

func (r *Registry) Reset() {
	r.Update(func(tx *Tx) { tx.Reset() })
}

func (r *Registry) Slots() (slots []Slot) {
	r.Update(func(tx *Tx) { slots = tx.Slots() })
	return slots
}

// Snapshot returns the live assignments of every pool, keyed by record tag.
// Pools with nothing to save are left out.
func (r *Registry) Snapshot(actor host.Actor) map[form.Tag]IR {
	out := make(map[form.Tag]IR)
	r.Update(func(tx *Tx) {
		for _, p := range tx.Pools() {
			if ir := ToIR(p.Map, actor); len(ir) > 0 {
				out[p.Tag] = ir
			}
		}
	})
	return out
}

// Restore resets the registry and replays records into it. Records under an
// unknown tag are skipped with a warning. Returns the number of assignments
// restored.
func (r *Registry) Restore(actor host.Actor, records map[form.Tag]IR, forms host.Forms, plugin string) (n int) {
	r.Update(func(tx *Tx) {
		tx.Reset()
		for _, tag := range sortedTags(records) {
			pool := tx.PoolByTag(tag)
			if pool == nil {
				r.logger.Warn("Unknown shoutmap record", "tag", tag.String())
				continue
			}
			n += FillFromIR(pool, records[tag], actor, forms, plugin, r.logger)
		}
	})
	return n
}
