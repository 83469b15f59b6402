package host

import "github.com/panic-sell/equip-spells-as-shouts/pkg/form"

// UserEventShout is the control map name of the shout button.
const UserEventShout = "Shout"

// ActionType is the kind of a game-logic action event.
type ActionType int

const (
	ActionWeaponSwing ActionType = iota
	ActionSpellCast
	ActionSpellFire
	// ActionVoiceCast fires when an actor starts performing a shout.
	ActionVoiceCast
	// ActionVoiceFire fires when the shout is released.
	ActionVoiceFire
	ActionBowDraw
	ActionBowRelease
	ActionBeginDraw
	ActionEndDraw
	ActionBeginSheathe
	ActionEndSheathe
)

// ActionEvent is a discrete game-logic trigger.
type ActionEvent struct {
	Type  ActionType
	Actor Actor
	// Source is the shout the action came from, or nil when the source form
	// is not a shout.
	Source *Shout
}

// Device is an input device.
type Device int

const (
	DeviceKeyboard Device = iota
	DeviceMouse
	DeviceGamepad
)

// InputKind is the kind of a raw input event.
type InputKind int

const (
	InputButton InputKind = iota
	InputMouseMove
	InputChar
	InputThumbstick
)

// InputEvent is one raw device event of an input frame.
type InputEvent struct {
	Kind   InputKind
	Device Device
	IDCode uint32
	// Value is 0 when the button is not pressed.
	Value float32
	// HeldDuration is 0 on the frame the button goes down.
	HeldDuration float32
}

// IsButton reports whether the event is a button event with an ID code.
func (e InputEvent) IsButton() bool {
	return e.Kind == InputButton
}

func (e InputEvent) IsPressed() bool {
	return e.Value > 0
}

func (e InputEvent) IsDown() bool {
	return e.Value > 0 && e.HeldDuration == 0
}

func (e InputEvent) IsHeld() bool {
	return e.Value > 0 && e.HeldDuration > 0
}

func (e InputEvent) IsUp() bool {
	return e.Value == 0 && e.HeldDuration > 0
}

// InputContext is an entry of the host's input-context priority stack.
type InputContext int

const (
	ContextGameplay InputContext = iota
	ContextMenuMode
	ContextConsole
	ContextItemMenu
	ContextInventory
	ContextDebugText
	ContextFavorites
	ContextMap
	ContextStats
	ContextCursor
	ContextBook
	ContextDebugOverlay
	ContextJournal
	ContextTFCMode
	ContextMapDebug
	ContextLockpicking
	ContextMarketplace
)

// Engine is the process-wide game state the shout system consults.
type Engine interface {
	Player() Actor
	GodMode() bool
	GamePaused() bool
	FightingControlsEnabled() bool
	// InputContext is the top of the input-context stack. ok is false when
	// the stack is empty.
	InputContext() (ctx InputContext, ok bool)
	// MappedKey is the ID code bound to userEvent on device.
	MappedKey(userEvent string, device Device) (code uint32, ok bool)
	Notify(msg string)
	FlashMagickaBar()
	MagicFailureSound() form.ID
}

// ActionSink receives action events.
type ActionSink interface {
	ProcessActionEvent(ev *ActionEvent)
}

// InputSink receives one input frame at a time.
type InputSink interface {
	ProcessInputEvent(events []InputEvent)
}

// EventSource lets sinks subscribe to the host's event streams.
type EventSource interface {
	AddActionSink(s ActionSink)
	AddInputSink(s InputSink)
}

// ButtonFor finds the button event bound to userEvent among events, or
// returns false.
func ButtonFor(e Engine, userEvent string, events []InputEvent) (InputEvent, bool) {
	for _, ev := range events {
		if !ev.IsButton() {
			continue
		}
		code, ok := e.MappedKey(userEvent, ev.Device)
		if !ok || code != ev.IDCode {
			continue
		}
		return ev, true
	}
	return InputEvent{}, false
}
