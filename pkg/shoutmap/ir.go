package shoutmap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

// RecordVersion is written with every shoutmap record.
const RecordVersion = 1

// Pair is one saved assignment. Shouts are stored by plugin-local ID since
// the plugin's load order index can change between sessions; spells by full
// ID, which the host resolves on load.
type Pair struct {
	ShoutLocalID form.ID
	SpellID      form.ID
}

// MarshalJSON writes the pair as a two element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint32{uint32(p.ShoutLocalID), uint32(p.SpellID)})
}

func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw []uint32
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid shoutmap pair %s: %w", data, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("invalid shoutmap pair %s: want 2 elements, got %d", data, len(raw))
	}
	p.ShoutLocalID = form.ID(raw[0])
	p.SpellID = form.ID(raw[1])
	return nil
}

// IR is the saved form of one pool, in pool order.
type IR []Pair

// ToIR returns the assignments of m whose shout actor still knows.
func ToIR(m *Shoutmap, actor host.Actor) IR {
	ir := IR{}
	spells := m.Spells()
	for i, shout := range m.Shouts() {
		sp := spells[i]
		if sp == nil {
			continue
		}
		if !actor.HasShout(shout) {
			logger.Trace(m.logger, "discarding assignment, shout not known", "shout", shout, "spell", sp)
			continue
		}
		ir = append(ir, Pair{ShoutLocalID: shout.ID.Local(), SpellID: sp.ID})
	}
	return ir
}

// FillFromIR replays ir into m in order. Entries naming a missing shout, a
// shout outside m, a missing spell or a shout the actor does not know are
// dropped. Returns the number of assignments written.
func FillFromIR(m *Shoutmap, ir IR, actor host.Actor, forms host.Forms, plugin string, log *slog.Logger) int {
	n := 0
	for _, p := range ir {
		shout := forms.Shout(plugin, p.ShoutLocalID)
		if shout == nil {
			logger.Trace(log, "saved shout not found", "local_id", p.ShoutLocalID)
			continue
		}
		if !m.HasShout(shout) {
			logger.Trace(log, "saved shout is not a spell shout of this pool", "shout", shout)
			continue
		}
		sp := forms.Spell(p.SpellID)
		if sp == nil {
			logger.Trace(log, "saved spell not found", "spell_id", p.SpellID)
			continue
		}
		if !actor.HasShout(shout) {
			logger.Trace(log, "discarding assignment, shout not known", "shout", shout, "spell", sp)
			continue
		}

		switch status := m.AssignTo(shout, sp); status {
		case StatusOK:
			n++
		case StatusAlreadyAssigned, StatusOutOfSlots, StatusUnknownShout, StatusInternalError:
			log.Error("Unexpected status restoring assignment", "shout", shout, "spell", sp, "status", status)
		}
	}
	return n
}

// Resolve rewrites the spell IDs of ir for the current load order. Entries
// that cannot be resolved are dropped with a warning.
func Resolve(ir IR, resolver host.Resolver, log *slog.Logger) IR {
	out := make(IR, 0, len(ir))
	for _, p := range ir {
		id, ok := resolver.ResolveFormID(p.SpellID)
		if !ok {
			log.Warn("Failed to resolve saved spell", "spell_id", p.SpellID.String())
			continue
		}
		out = append(out, Pair{ShoutLocalID: p.ShoutLocalID, SpellID: id})
	}
	return out
}

// Encode writes ir as compact JSON.
func Encode(ir IR) ([]byte, error) {
	if ir == nil {
		ir = IR{}
	}
	data, err := json.Marshal(ir)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shoutmap: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (IR, error) {
	var ir IR
	if err := json.Unmarshal(data, &ir); err != nil {
		return nil, fmt.Errorf("failed to decode shoutmap: %w", err)
	}
	return ir, nil
}

func sortedTags(records map[form.Tag]IR) []form.Tag {
	tags := make([]form.Tag, 0, len(records))
	for t := range records {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}
