package keys

import (
	"encoding/json"
	"slices"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

// Keystroke is one decoded button state of an input frame.
type Keystroke struct {
	Code Keycode
	// Value is 0 when the key is not pressed.
	Value float32
	// Held is 0 on the frame the key goes down.
	Held float32
}

func (k Keystroke) IsPressed() bool { return k.Value > 0 }
func (k Keystroke) IsDown() bool    { return k.Value > 0 && k.Held == 0 }
func (k Keystroke) IsUp() bool      { return k.Value == 0 && k.Held > 0 }

// AppendKeystrokes decodes the button events of a frame onto buf and returns
// it. Events without a known keycode are dropped.
func AppendKeystrokes(buf []Keystroke, events []host.InputEvent) []Keystroke {
	for _, ev := range events {
		code := KeycodeFromEvent(ev)
		if code == InvalidKeycode {
			continue
		}
		buf = append(buf, Keystroke{Code: code, Value: ev.Value, Held: ev.HeldDuration})
	}
	return buf
}

// Keypress is the edge a chord produced this frame.
type Keypress int

const (
	KeypressNone Keypress = iota
	KeypressPress
	KeypressRelease
)

// KeysetSize is the most keys a chord can have.
const KeysetSize = 4

// Keyset is a chord of up to four keys. A normalized keyset has its valid
// keys sorted ascending and deduplicated, followed by InvalidKeycode.
type Keyset [KeysetSize]Keycode

// Normalized returns the normalized form of ks.
func (ks Keyset) Normalized() Keyset {
	codes := make([]Keycode, 0, KeysetSize)
	for _, c := range ks {
		if c.IsValid() {
			codes = append(codes, c)
		}
	}
	slices.Sort(codes)
	codes = slices.Compact(codes)
	var out Keyset
	copy(out[:], codes)
	return out
}

// Len is the number of valid keys.
func (ks Keyset) Len() int {
	n := 0
	for _, c := range ks {
		if c.IsValid() {
			n++
		}
	}
	return n
}

// Match checks the chord against a frame. A press edge needs every key of
// the chord pressed, nothing else pressed, and at least one key going down
// this frame. A release edge needs every key of the chord present, at least
// one going up, and the rest still pressed.
func (ks Keyset) Match(buf []Keystroke) Keypress {
	n := ks.Len()
	if n == 0 {
		return KeypressNone
	}

	var matched, down, up, pressed int
	for _, k := range buf {
		if k.IsPressed() {
			pressed++
		}
		if !slices.Contains(ks[:], k.Code) {
			continue
		}
		matched++
		switch {
		case k.IsDown():
			down++
		case k.IsUp():
			up++
		}
	}
	if matched != n {
		return KeypressNone
	}
	if down > 0 && up == 0 && pressed == n {
		return KeypressPress
	}
	if up > 0 && down == 0 && pressed == n-up {
		return KeypressRelease
	}
	return KeypressNone
}

// MarshalJSON writes the chord as a list of key names.
func (ks Keyset) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, KeysetSize)
	for _, c := range ks {
		if c.IsValid() {
			names = append(names, c.String())
		}
	}
	return json.Marshal(names)
}

// UnmarshalJSON reads a list of key names. Unknown names and names past the
// fourth are dropped; the result is normalized.
func (ks *Keyset) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out Keyset
	for i := 0; i < len(names) && i < KeysetSize; i++ {
		code, err := KeycodeFromName(names[i])
		if err != nil {
			continue
		}
		out[i] = code
	}
	*ks = out.Normalized()
	return nil
}

// Keysets is a list of alternative chords for one action.
type Keysets []Keyset

// NewKeysets normalizes each chord and drops empty ones.
func NewKeysets(sets ...Keyset) Keysets {
	out := make(Keysets, 0, len(sets))
	for _, ks := range sets {
		ks = ks.Normalized()
		if ks.Len() == 0 {
			continue
		}
		out = append(out, ks)
	}
	return out
}

// Match returns a press if any chord was pressed, else a release if any
// chord was released.
func (kss Keysets) Match(buf []Keystroke) Keypress {
	result := KeypressNone
	for _, ks := range kss {
		switch ks.Match(buf) {
		case KeypressPress:
			return KeypressPress
		case KeypressRelease:
			result = KeypressRelease
		case KeypressNone:
		}
	}
	return result
}

// UnmarshalJSON normalizes after decoding.
func (kss *Keysets) UnmarshalJSON(data []byte) error {
	var sets []Keyset
	if err := json.Unmarshal(data, &sets); err != nil {
		return err
	}
	*kss = NewKeysets(sets...)
	return nil
}
