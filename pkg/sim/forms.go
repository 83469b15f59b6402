package sim

import (
	"fmt"
	"sync"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// Forms is an in-memory form table. Plugins are registered with a load order
// index, and records of a plugin get IDs under that index.
type Forms struct {
	mu      sync.RWMutex
	plugins map[string]uint8
	shouts  map[form.ID]*host.Shout
	words   map[form.ID]*host.Word
	spells  map[form.ID]*spell.Spell
}

var _ host.Forms = (*Forms)(nil)

func NewForms() *Forms {
	return &Forms{
		plugins: make(map[string]uint8),
		shouts:  make(map[form.ID]*host.Shout),
		words:   make(map[form.ID]*host.Word),
		spells:  make(map[form.ID]*spell.Spell),
	}
}

// AddPlugin registers a plugin at a load order index.
func (f *Forms) AddPlugin(name string, index uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plugins[name] = index
}

// FullID turns a plugin-local ID into a full form ID.
func (f *Forms) FullID(plugin string, local form.ID) (form.ID, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fullID(plugin, local)
}

func (f *Forms) fullID(plugin string, local form.ID) (form.ID, bool) {
	if plugin == "" {
		return local, true
	}
	index, ok := f.plugins[plugin]
	if !ok {
		return 0, false
	}
	return form.ID(index)<<24 | local.Local(), true
}

// AddShout stores s under its full ID, filling in LocalID.
func (f *Forms) AddShout(s *host.Shout) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.LocalID = s.ID.Local()
	f.shouts[s.ID] = s
}

func (f *Forms) AddWord(w *host.Word) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words[w.ID] = w
}

func (f *Forms) AddSpell(sp *spell.Spell) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spells[sp.ID] = sp
}

// RemoveSpell drops a spell, as if its plugin had been uninstalled.
func (f *Forms) RemoveSpell(id form.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.spells, id)
}

// RemoveShout drops a shout record.
func (f *Forms) RemoveShout(id form.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.shouts, id)
}

func (f *Forms) Shout(plugin string, local form.ID) *host.Shout {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.fullID(plugin, local)
	if !ok {
		return nil
	}
	return f.shouts[id]
}

func (f *Forms) Word(plugin string, local form.ID) *host.Word {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.fullID(plugin, local)
	if !ok {
		return nil
	}
	return f.words[id]
}

func (f *Forms) Spell(id form.ID) *spell.Spell {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.spells[id]
}

// ShoutByID looks up a shout by full ID.
func (f *Forms) ShoutByID(id form.ID) *host.Shout {
	return f.Shout("", id)
}

func (f *Forms) WordByID(id form.ID) *host.Word {
	return f.Word("", id)
}

// SpellByName finds a spell by exact name.
func (f *Forms) SpellByName(name string) *spell.Spell {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sp := range f.spells {
		if sp.Name == name {
			return sp
		}
	}
	return nil
}

// LowestShoutUsing returns the shout with the lowest form ID whose first
// variation uses w.
func (f *Forms) LowestShoutUsing(w *host.Word) *host.Shout {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var lowest *host.Shout
	for _, s := range f.shouts {
		if s.Variations[host.VariationOne].Word != w {
			continue
		}
		if lowest == nil || s.ID < lowest.ID {
			lowest = s
		}
	}
	return lowest
}

// Resolver remaps load order indexes between sessions. Indexes it has no
// entry for resolve to themselves.
type Resolver struct {
	mu      sync.RWMutex
	moved   map[uint8]uint8
	removed map[uint8]bool
}

var _ host.Resolver = (*Resolver)(nil)

func NewResolver() *Resolver {
	return &Resolver{
		moved:   make(map[uint8]uint8),
		removed: make(map[uint8]bool),
	}
}

// Move makes IDs under index from resolve to index to.
func (r *Resolver) Move(from, to uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moved[from] = to
	delete(r.removed, from)
}

// Remove makes IDs under index fail to resolve.
func (r *Resolver) Remove(index uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed[index] = true
	delete(r.moved, index)
}

func (r *Resolver) ResolveFormID(old form.ID) (form.ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index := uint8(old >> 24)
	if r.removed[index] {
		return 0, false
	}
	if to, ok := r.moved[index]; ok {
		return form.ID(to)<<24 | old.Local(), true
	}
	return old, true
}

func (r *Resolver) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("resolver(moved=%v removed=%v)", r.moved, r.removed)
}
