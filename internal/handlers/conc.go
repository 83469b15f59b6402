package handlers

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// ConcState is the one running concentration cast, if any. It is shared by
// ConcCastHandler and ConcPollHandler and is only touched from the host's
// main thread, so it carries no lock.
type ConcState struct {
	spell  *spell.Spell
	loop   host.SoundHandle
	id     uuid.UUID
	logger *slog.Logger
}

func NewConcState(logger *slog.Logger) *ConcState {
	return &ConcState{logger: logger}
}

// Active reports whether a cast is running.
func (s *ConcState) Active() bool {
	return s.spell != nil
}

// Spell is the spell being cast, or nil.
func (s *ConcState) Spell() *spell.Spell {
	return s.spell
}

// SessionID identifies the running cast in logs. It is the zero UUID when
// nothing is running.
func (s *ConcState) SessionID() uuid.UUID {
	return s.id
}

func (s *ConcState) begin(sp *spell.Spell, loop host.SoundHandle) {
	s.spell = sp
	s.loop = loop
	s.id = uuid.New()
}

// Clear ends the running cast. Either argument may be nil. Safe to call
// when nothing is running; the loop sound is stopped at most once.
func (s *ConcState) Clear(actor host.Actor, caster host.Caster) {
	if actor != nil {
		actor.SetVoiceRecoveryTime(0)
	}
	if caster != nil {
		caster.FinishCast()
	}
	if s.spell != nil {
		logger.Trace(s.logger, "conc: session cleared", "session", s.id, "spell", s.spell)
	}
	s.spell = nil
	s.id = uuid.Nil
	if s.loop != nil {
		s.loop.Stop()
		s.loop = nil
	}
}

// ConcCastHandler starts a concentration cast when its shout fires.
type ConcCastHandler struct {
	engine       host.Engine
	registry     *shoutmap.Registry
	state        *ConcState
	magickaScale float64
	logger       *slog.Logger
}

var _ host.ActionSink = (*ConcCastHandler)(nil)

func NewConcCastHandler(engine host.Engine, registry *shoutmap.Registry, state *ConcState, magickaScale float64, logger *slog.Logger) *ConcCastHandler {
	return &ConcCastHandler{
		engine:       engine,
		registry:     registry,
		state:        state,
		magickaScale: magickaScale,
		logger:       logger,
	}
}

func (h *ConcCastHandler) ProcessActionEvent(ev *host.ActionEvent) {
	if h.state.Active() {
		return
	}
	if ev == nil || ev.Type != host.ActionVoiceFire {
		return
	}
	player := ev.Actor
	if player == nil || !player.IsPlayer() {
		return
	}
	shout := ev.Source
	if shout == nil {
		return
	}
	sp := h.registry.SpellFor(shout)
	if sp == nil {
		logger.Trace(h.logger, "conc: not a spell shout or unassigned", "shout", shout)
		return
	}
	if sp.Category() != spell.CategorySustained {
		return
	}

	h.state.Clear(nil, nil)

	caster := player.Caster(host.SourceInstant)
	if caster == nil {
		logger.Trace(h.logger, "conc: player has no caster")
		return
	}
	// Magicka is drained by the running cast at the scaled cost set below.
	if ok, reason := caster.CheckCast(sp); !ok && reason != host.ReasonMagicka {
		logger.Trace(h.logger, "conc: CheckCast failed", "shout", shout, "spell", sp, "reason", reason)
		player.PlaySound(h.engine.MagicFailureSound())
		return
	}

	loop := player.PlaySound(sp.Sounds.CastLoop)
	player.PlaySound(sp.Sounds.Release)
	caster.SetCurrentSpellCost(player.MagickaCost(sp) * h.magickaScale)
	caster.CastImmediate(sp, player)
	h.state.begin(sp, loop)
	h.logger.Debug("conc: casting", "shout", shout, "spell", sp, "session", h.state.SessionID())
}

// ConcPollHandler ends the running concentration cast once the shout button
// is released or the cast stops on its own.
type ConcPollHandler struct {
	engine host.Engine
	state  *ConcState
	logger *slog.Logger
}

var _ host.InputSink = (*ConcPollHandler)(nil)

func NewConcPollHandler(engine host.Engine, state *ConcState, logger *slog.Logger) *ConcPollHandler {
	return &ConcPollHandler{engine: engine, state: state, logger: logger}
}

func (h *ConcPollHandler) ProcessInputEvent(events []host.InputEvent) {
	if !h.state.Active() {
		return
	}

	player := h.engine.Player()
	if player == nil {
		h.state.Clear(nil, nil)
		return
	}
	caster := player.Caster(host.SourceInstant)
	if caster == nil {
		h.state.Clear(player, nil)
		return
	}
	if !caster.IsCasting() {
		h.state.Clear(player, caster)
		return
	}

	// Input cannot be judged while the game is not in gameplay.
	if h.engine.GamePaused() || !h.engine.FightingControlsEnabled() {
		return
	}
	if ctx, ok := h.engine.InputContext(); !ok || ctx != host.ContextGameplay {
		return
	}

	button, ok := host.ButtonFor(h.engine, host.UserEventShout, events)
	if !ok || button.IsUp() {
		logger.Trace(h.logger, "conc: shout button released", "session", h.state.SessionID())
		h.state.Clear(player, caster)
	}
}
