// Package keys decodes raw input frames into keystrokes and matches them
// against configured key chords.
package keys

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

// Keycode is a device-independent key identifier. Keyboard keys use their
// DirectInput scan code, mouse buttons start at MouseOffset and gamepad
// buttons at GamepadOffset.
type Keycode uint32

const (
	InvalidKeycode Keycode = 0
	MouseOffset    Keycode = 256
	GamepadOffset  Keycode = 266
)

// ErrUnknownKey is returned for key names that are not in the name table.
var ErrUnknownKey = errors.New("unknown key name")

var keycodeNames = map[Keycode]string{
	1: "Esc", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	12: "-", 13: "=", 14: "Backspace", 15: "Tab",
	16: "Q", 17: "W", 18: "E", 19: "R", 20: "T", 21: "Y", 22: "U", 23: "I", 24: "O", 25: "P",
	26: "[", 27: "]", 28: "Enter", 29: "LCtrl",
	30: "A", 31: "S", 32: "D", 33: "F", 34: "G", 35: "H", 36: "J", 37: "K", 38: "L",
	39: ";", 40: "'", 41: "`", 42: "LShift", 43: `\`,
	44: "Z", 45: "X", 46: "C", 47: "V", 48: "B", 49: "N", 50: "M",
	51: ",", 52: ".", 53: "/", 54: "RShift", 55: "NumPad*", 56: "LAlt", 57: "Space", 58: "CapsLock",
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5", 64: "F6", 65: "F7", 66: "F8", 67: "F9", 68: "F10",
	69: "NumLock", 70: "ScrollLock",
	71: "NumPad7", 72: "NumPad8", 73: "NumPad9", 74: "NumPad-",
	75: "NumPad4", 76: "NumPad5", 77: "NumPad6", 78: "NumPad+",
	79: "NumPad1", 80: "NumPad2", 81: "NumPad3", 82: "NumPad0", 83: "NumPad.",
	87: "F11", 88: "F12",
	156: "NumPadEnter", 157: "RCtrl", 181: "NumPad/", 184: "RAlt",
	199: "Home", 200: "Up", 201: "PgUp", 203: "Left", 205: "Right",
	207: "End", 208: "Down", 209: "PgDown", 210: "Insert", 211: "Delete",

	256: "LMouse", 257: "RMouse", 258: "MMouse", 259: "Mouse3", 260: "Mouse4",
	261: "Mouse5", 262: "Mouse6", 263: "Mouse7", 264: "WheelUp", 265: "WheelDown",

	266: "DpadUp", 267: "DpadDown", 268: "DpadLeft", 269: "DpadRight",
	270: "Start", 271: "Back", 272: "LThumb", 273: "RThumb",
	274: "LB", 275: "RB", 276: "A_Gamepad", 277: "B_Gamepad", 278: "X_Gamepad", 279: "Y_Gamepad",
	280: "LT", 281: "RT",
}

// gamepadMasks maps XInput button masks to gamepad keycodes.
var gamepadMasks = map[uint32]Keycode{
	0x0001: 266, 0x0002: 267, 0x0004: 268, 0x0008: 269,
	0x0010: 270, 0x0020: 271, 0x0040: 272, 0x0080: 273,
	0x0100: 274, 0x0200: 275, 0x1000: 276, 0x2000: 277,
	0x4000: 278, 0x8000: 279, 0x0009: 280, 0x000a: 281,
}

var (
	folder       = cases.Fold()
	keycodeNamed = func() map[string]Keycode {
		m := make(map[string]Keycode, len(keycodeNames))
		for code, name := range keycodeNames {
			m[folder.String(name)] = code
		}
		return m
	}()
)

// IsValid reports whether k names a known key.
func (k Keycode) IsValid() bool {
	_, ok := keycodeNames[k]
	return ok
}

func (k Keycode) String() string {
	if name, ok := keycodeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Keycode(%d)", uint32(k))
}

// KeycodeFromName looks a key up by name, ignoring case.
func KeycodeFromName(name string) (Keycode, error) {
	code, ok := keycodeNamed[folder.String(name)]
	if !ok {
		return InvalidKeycode, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return code, nil
}

// MustKeycode is KeycodeFromName for names known at compile time.
func MustKeycode(name string) Keycode {
	code, err := KeycodeFromName(name)
	if err != nil {
		panic(err)
	}
	return code
}

// KeycodeFromEvent converts a button event to a keycode, or returns
// InvalidKeycode.
func KeycodeFromEvent(ev host.InputEvent) Keycode {
	if !ev.IsButton() {
		return InvalidKeycode
	}
	var code Keycode
	switch ev.Device {
	case host.DeviceKeyboard:
		code = Keycode(ev.IDCode)
	case host.DeviceMouse:
		code = MouseOffset + Keycode(ev.IDCode)
	case host.DeviceGamepad:
		code = gamepadMasks[ev.IDCode]
	}
	if !code.IsValid() {
		return InvalidKeycode
	}
	return code
}
