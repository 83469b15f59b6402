package handlers

import (
	"fmt"
	"log/slog"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/keys"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// AssignmentHandler turns key chords into registry changes: the assign chord
// binds the right hand spell to a shout, the unassign chord frees the
// selected shout.
type AssignmentHandler struct {
	engine     host.Engine
	registry   *shoutmap.Registry
	allow2H    bool
	assignKeys keys.Keysets
	removeKeys keys.Keysets
	logger     *slog.Logger

	buf []keys.Keystroke
}

var _ host.InputSink = (*AssignmentHandler)(nil)

// AssignmentConfig is the part of the settings AssignmentHandler reads.
type AssignmentConfig struct {
	Allow2HSpells bool
	AssignKeys    keys.Keysets
	UnassignKeys  keys.Keysets
}

func NewAssignmentHandler(engine host.Engine, registry *shoutmap.Registry, cfg AssignmentConfig, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		engine:     engine,
		registry:   registry,
		allow2H:    cfg.Allow2HSpells,
		assignKeys: cfg.AssignKeys,
		removeKeys: cfg.UnassignKeys,
		logger:     logger,
	}
}

func (h *AssignmentHandler) ProcessInputEvent(events []host.InputEvent) {
	h.buf = keys.AppendKeystrokes(h.buf[:0], events)
	if len(h.buf) == 0 {
		return
	}
	player := h.engine.Player()
	if player == nil {
		return
	}
	if h.assignKeys.Match(h.buf) == keys.KeypressPress {
		h.assign(player)
	}
	if h.removeKeys.Match(h.buf) == keys.KeypressPress {
		h.unassign(player)
	}
}

func (h *AssignmentHandler) assign(player host.Actor) {
	sp := player.RightHandSpell()
	if sp == nil {
		return
	}
	if !sp.IsHandEquipped(h.allow2H) {
		h.logger.Debug("Spell is not eligible for a spell shout", "spell", sp)
		return
	}
	cat := sp.Category()
	if cat != spell.CategoryInstant && cat != spell.CategorySustained {
		return
	}

	h.logger.Debug("Assigning spell", "spell", sp)
	// Shout names change under the registry lock, so messages are built there.
	var res shoutmap.AssignResult
	var msg string
	h.registry.Update(func(tx *shoutmap.Tx) {
		res = tx.Assign(player, sp)
		switch res.Status {
		case shoutmap.StatusOK:
			msg = fmt.Sprintf("%s added", res.Shout.Name)
		case shoutmap.StatusAlreadyAssigned:
			msg = fmt.Sprintf("%s already assigned", sp.Name)
		case shoutmap.StatusOutOfSlots:
			msg = fmt.Sprintf("No remaining %s shout slots", cat)
		case shoutmap.StatusUnknownShout, shoutmap.StatusInternalError:
		}
	})
	if msg == "" {
		h.logger.Error("Unexpected error assigning spell", "spell", sp, "status", res.Status)
		return
	}
	h.engine.Notify(msg)
}

func (h *AssignmentHandler) unassign(player host.Actor) {
	shout := player.SelectedShout()
	if shout == nil {
		return
	}

	var status shoutmap.AssignStatus
	var name string
	owned := false
	h.registry.Update(func(tx *shoutmap.Tx) {
		if !tx.Has(shout) {
			return
		}
		owned = true
		name = shout.Name
		h.logger.Debug("Unassigning shout", "shout", name)
		status = tx.Unassign(player, shout)
	})
	if !owned {
		return
	}

	switch status {
	case shoutmap.StatusOK:
		h.engine.Notify(fmt.Sprintf("%s removed", name))
	case shoutmap.StatusAlreadyAssigned, shoutmap.StatusOutOfSlots, shoutmap.StatusUnknownShout, shoutmap.StatusInternalError:
		h.logger.Error("Unexpected error unassigning shout", "shout", name, "status", status)
	}
}
