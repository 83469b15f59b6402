package sim

import "github.com/panic-sell/equip-spells-as-shouts/pkg/host"

// Key builds keyboard button events.
type Key uint32

// Down is the frame the key goes down.
func (k Key) Down() host.InputEvent {
	return host.InputEvent{Kind: host.InputButton, Device: host.DeviceKeyboard, IDCode: uint32(k), Value: 1}
}

// Held is a frame with the key held for seconds.
func (k Key) Held(seconds float32) host.InputEvent {
	return host.InputEvent{Kind: host.InputButton, Device: host.DeviceKeyboard, IDCode: uint32(k), Value: 1, HeldDuration: seconds}
}

// Up is the frame the key is released after seconds.
func (k Key) Up(seconds float32) host.InputEvent {
	return host.InputEvent{Kind: host.InputButton, Device: host.DeviceKeyboard, IDCode: uint32(k), HeldDuration: seconds}
}

// ShoutKey is the default shout button.
const ShoutKey = Key(DefaultShoutKey)

// Frame is a convenience for building an input frame.
func Frame(events ...host.InputEvent) []host.InputEvent {
	return events
}
