package keys

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

func key(code uint32, value, held float32) host.InputEvent {
	return host.InputEvent{Kind: host.InputButton, Device: host.DeviceKeyboard, IDCode: code, Value: value, HeldDuration: held}
}

func TestKeycodeFromName(t *testing.T) {
	code, err := KeycodeFromName("lshift")
	require.NoError(t, err)
	assert.Equal(t, Keycode(42), code)

	code, err = KeycodeFromName("=")
	require.NoError(t, err)
	assert.Equal(t, Keycode(13), code)

	_, err = KeycodeFromName("NoSuchKey")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeycodeFromEvent(t *testing.T) {
	assert.Equal(t, Keycode(42), KeycodeFromEvent(key(42, 1, 0)))
	assert.Equal(t, Keycode(257), KeycodeFromEvent(host.InputEvent{Kind: host.InputButton, Device: host.DeviceMouse, IDCode: 1, Value: 1}))
	assert.Equal(t, Keycode(276), KeycodeFromEvent(host.InputEvent{Kind: host.InputButton, Device: host.DeviceGamepad, IDCode: 0x1000, Value: 1}))
	assert.Equal(t, InvalidKeycode, KeycodeFromEvent(host.InputEvent{Kind: host.InputMouseMove}))
	assert.Equal(t, InvalidKeycode, KeycodeFromEvent(key(255, 1, 0)))
}

func TestKeyset_Normalized(t *testing.T) {
	ks := Keyset{13, 42, 13, 9999}.Normalized()
	assert.Equal(t, Keyset{13, 42, 0, 0}, ks)
	assert.Equal(t, 2, ks.Len())
}

func TestKeyset_Match(t *testing.T) {
	chord := Keyset{MustKeycode("LShift"), MustKeycode("=")}.Normalized()

	tests := []struct {
		name   string
		events []host.InputEvent
		want   Keypress
	}{
		{"second key goes down", []host.InputEvent{key(42, 1, 0.5), key(13, 1, 0)}, KeypressPress},
		{"both go down together", []host.InputEvent{key(42, 1, 0), key(13, 1, 0)}, KeypressPress},
		{"both held", []host.InputEvent{key(42, 1, 0.5), key(13, 1, 0.2)}, KeypressNone},
		{"missing key", []host.InputEvent{key(13, 1, 0)}, KeypressNone},
		{"extra key pressed", []host.InputEvent{key(42, 1, 0.5), key(13, 1, 0), key(30, 1, 0.1)}, KeypressNone},
		{"one released", []host.InputEvent{key(42, 1, 0.5), key(13, 0, 0.3)}, KeypressRelease},
		{"empty frame", nil, KeypressNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := AppendKeystrokes(nil, tt.events)
			assert.Equal(t, tt.want, chord.Match(buf))
		})
	}
}

func TestKeysets_Match(t *testing.T) {
	kss := NewKeysets(
		Keyset{MustKeycode("LShift"), MustKeycode("=")},
		Keyset{MustKeycode("RShift"), MustKeycode("=")},
		Keyset{},
	)
	require.Len(t, kss, 2)

	buf := AppendKeystrokes(nil, []host.InputEvent{key(54, 1, 0.4), key(13, 1, 0)})
	assert.Equal(t, KeypressPress, kss.Match(buf))

	buf = AppendKeystrokes(buf[:0], []host.InputEvent{key(54, 1, 0.4)})
	assert.Equal(t, KeypressNone, kss.Match(buf))
}

func TestKeysets_JSON(t *testing.T) {
	var kss Keysets
	err := json.Unmarshal([]byte(`[["=", "lshift"], ["bogus"], ["RShift", "=", "A", "B", "C"]]`), &kss)
	require.NoError(t, err)
	require.Len(t, kss, 2)
	assert.Equal(t, Keyset{13, 42}, kss[0])
	assert.Equal(t, Keyset{13, 30, 48, 54}, kss[1])

	out, err := json.Marshal(kss[0])
	require.NoError(t, err)
	assert.JSONEq(t, `["=", "LShift"]`, string(out))
}
