package sim

import (
	"sync"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

// Engine is a single-player host engine. Events are delivered synchronously
// on the calling goroutine, the way the game delivers them on its main
// thread.
type Engine struct {
	player *Player

	mu               sync.Mutex
	godMode          bool
	paused           bool
	fightingControls bool
	contexts         []host.InputContext
	keymap           map[host.Device]map[string]uint32
	notifications    []string
	flashes          int
	failureSound     form.ID

	actionSinks []host.ActionSink
	inputSinks  []host.InputSink
}

var (
	_ host.Engine      = (*Engine)(nil)
	_ host.EventSource = (*Engine)(nil)
)

// DefaultShoutKey is the keyboard scan code of the shout button (Z).
const DefaultShoutKey uint32 = 44

// NewEngine returns an engine in gameplay with fighting controls enabled
// and the shout button mapped to Z.
func NewEngine(player *Player, failureSound form.ID) *Engine {
	return &Engine{
		player:           player,
		fightingControls: true,
		contexts:         []host.InputContext{host.ContextGameplay},
		keymap: map[host.Device]map[string]uint32{
			host.DeviceKeyboard: {host.UserEventShout: DefaultShoutKey},
		},
		failureSound: failureSound,
	}
}

func (e *Engine) Player() host.Actor {
	return e.player
}

func (e *Engine) SimPlayer() *Player {
	return e.player
}

func (e *Engine) GodMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.godMode
}

func (e *Engine) SetGodMode(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.godMode = on
}

func (e *Engine) GamePaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Engine) SetPaused(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = on
}

func (e *Engine) FightingControlsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fightingControls
}

func (e *Engine) SetFightingControls(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fightingControls = on
}

func (e *Engine) InputContext() (host.InputContext, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.contexts) == 0 {
		return 0, false
	}
	return e.contexts[len(e.contexts)-1], true
}

// PushContext puts ctx on top of the input-context stack.
func (e *Engine) PushContext(ctx host.InputContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contexts = append(e.contexts, ctx)
}

func (e *Engine) PopContext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.contexts) > 0 {
		e.contexts = e.contexts[:len(e.contexts)-1]
	}
}

func (e *Engine) MappedKey(userEvent string, device host.Device) (uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	code, ok := e.keymap[device][userEvent]
	return code, ok
}

// MapKey binds userEvent to code on device.
func (e *Engine) MapKey(userEvent string, device host.Device, code uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.keymap[device] == nil {
		e.keymap[device] = make(map[string]uint32)
	}
	e.keymap[device][userEvent] = code
}

func (e *Engine) Notify(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = append(e.notifications, msg)
}

// Notifications lists every notification shown so far.
func (e *Engine) Notifications() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.notifications...)
}

// LastNotification returns the latest notification, or "".
func (e *Engine) LastNotification() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.notifications) == 0 {
		return ""
	}
	return e.notifications[len(e.notifications)-1]
}

func (e *Engine) FlashMagickaBar() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flashes++
}

func (e *Engine) MagickaFlashes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flashes
}

func (e *Engine) MagicFailureSound() form.ID {
	return e.failureSound
}

func (e *Engine) AddActionSink(s host.ActionSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actionSinks = append(e.actionSinks, s)
}

func (e *Engine) AddInputSink(s host.InputSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputSinks = append(e.inputSinks, s)
}

// SendAction delivers ev to every action sink.
func (e *Engine) SendAction(ev *host.ActionEvent) {
	e.mu.Lock()
	sinks := append([]host.ActionSink(nil), e.actionSinks...)
	e.mu.Unlock()
	for _, s := range sinks {
		s.ProcessActionEvent(ev)
	}
}

// SendInput delivers one input frame to every input sink.
func (e *Engine) SendInput(events []host.InputEvent) {
	e.mu.Lock()
	sinks := append([]host.InputSink(nil), e.inputSinks...)
	e.mu.Unlock()
	for _, s := range sinks {
		s.ProcessInputEvent(events)
	}
}

// Shout performs the selected shout at variation v: the cast-starting
// action followed by the cast-confirmed one. Returns false when nothing is
// selected.
func (e *Engine) Shout(v host.VariationID) bool {
	shout := e.player.SelectedShout()
	if shout == nil {
		return false
	}
	e.player.SetShoutVariation(v)
	e.SendAction(&host.ActionEvent{Type: host.ActionVoiceCast, Actor: e.player, Source: shout})
	e.SendAction(&host.ActionEvent{Type: host.ActionVoiceFire, Actor: e.player, Source: shout})
	return true
}

// Tick advances running concentration casts by dt seconds.
func (e *Engine) Tick(dt float64) {
	for _, c := range e.player.casters {
		c.Drain(dt)
	}
}
