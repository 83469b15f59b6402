// Package form holds the identifiers the host engine hands out for its records.
package form

import "fmt"

// ID is a host form identifier. The top byte is the load-order index of the
// plugin file that defines the form, the low three bytes are the local ID.
type ID uint32

// LocalMask keeps the plugin-local part of an ID.
const LocalMask ID = 0x00FFFFFF

func (id ID) String() string {
	return fmt.Sprintf("%08X", uint32(id))
}

// Local strips the load-order index.
func (id ID) Local() ID {
	return id & LocalMask
}

// Tag is the four byte type tag of a cosave record.
type Tag uint32

// MakeTag packs up to four ASCII characters the way a multi-character literal
// does: the last character lands in the lowest byte.
func MakeTag(s string) Tag {
	var t Tag
	for i := 0; i < len(s) && i < 4; i++ {
		t = t<<8 | Tag(s[i])
	}
	return t
}

// String unpacks the tag, skipping leading zero bytes.
func (t Tag) String() string {
	b := make([]byte, 0, 4)
	for shift := 24; shift >= 0; shift -= 8 {
		c := byte(t >> uint(shift))
		if c == 0 && len(b) == 0 {
			continue
		}
		b = append(b, c)
	}
	return string(b)
}
