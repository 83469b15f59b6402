package handlers

import (
	"log/slog"

	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// FafHandler casts fire-and-forget spells when their shout fires.
//
// The shout start event only arms the handler; the spell is looked up when
// the shout is released, since the start event says nothing reliable about
// which shout ends up firing.
type FafHandler struct {
	engine       host.Engine
	registry     *shoutmap.Registry
	magickaScale float64
	logger       *slog.Logger

	queued bool
}

var _ host.ActionSink = (*FafHandler)(nil)

func NewFafHandler(engine host.Engine, registry *shoutmap.Registry, magickaScale float64, logger *slog.Logger) *FafHandler {
	return &FafHandler{
		engine:       engine,
		registry:     registry,
		magickaScale: magickaScale,
		logger:       logger,
	}
}

// Queued reports whether a shout has started and not yet fired.
func (h *FafHandler) Queued() bool {
	return h.queued
}

func (h *FafHandler) ProcessActionEvent(ev *host.ActionEvent) {
	if ev == nil || ev.Actor == nil || !ev.Actor.IsPlayer() {
		return
	}
	switch ev.Type {
	case host.ActionVoiceCast:
		h.queued = true
	case host.ActionVoiceFire:
		if !h.queued {
			logger.Trace(h.logger, "faf: shout fired without starting")
			return
		}
		h.queued = false
		h.cast(ev.Actor, ev.Source)
	}
}

func (h *FafHandler) cast(player host.Actor, shout *host.Shout) {
	variation, ok := player.ShoutVariation()
	if !ok {
		return
	}
	if shout == nil {
		return
	}
	sp := h.registry.SpellFor(shout)
	if sp == nil {
		logger.Trace(h.logger, "faf: not a spell shout or unassigned", "shout", shout)
		return
	}
	if sp.Category() != spell.CategoryInstant {
		return
	}

	// Bound weapons must be cast from a hand.
	src := host.SourceInstant
	if sp.IsBoundWeapon() {
		if variation == host.VariationOne {
			src = host.SourceRightHand
		} else {
			src = host.SourceLeftHand
		}
	}
	caster := player.Caster(src)
	if caster == nil {
		logger.Trace(h.logger, "faf: player has no caster", "source", src)
		return
	}

	if ok, reason := caster.CheckCast(sp); !ok && reason != host.ReasonMagicka && reason != host.ReasonCastWhileShouting {
		logger.Trace(h.logger, "faf: CheckCast failed", "shout", shout, "spell", sp, "reason", reason)
		player.PlaySound(h.engine.MagicFailureSound())
		return
	}
	cost := player.MagickaCost(sp) * h.magickaScale
	if !h.engine.GodMode() && player.Magicka() < cost {
		logger.Trace(h.logger, "faf: not enough magicka", "shout", shout, "spell", sp, "cost", cost)
		player.PlaySound(h.engine.MagicFailureSound())
		h.engine.FlashMagickaBar()
		return
	}

	if sp.IsBoundWeapon() {
		if err := player.UnequipHand(src == host.SourceLeftHand); err != nil {
			h.logger.Warn("Failed to unequip hand for bound weapon", "spell", sp, "error", err)
		}
	}
	player.DamageMagicka(cost)
	player.PlaySound(sp.Sounds.Release)
	caster.CastImmediate(sp, player)
	h.logger.Debug("faf: casting", "shout", shout, "spell", sp)
}
