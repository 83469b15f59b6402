package shoutmap

import (
	"fmt"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

// AssignStatus is the outcome of an assignment change. The set is closed;
// switches over it list every value.
type AssignStatus int

const (
	StatusOK AssignStatus = iota
	// StatusAlreadyAssigned: the spell already has a shout the actor knows.
	StatusAlreadyAssigned
	// StatusOutOfSlots: every shout of the pool holds a spell the actor knows.
	StatusOutOfSlots
	// StatusUnknownShout: the shout is not a slot of this registry.
	StatusUnknownShout
	// StatusInternalError: a host side effect failed; nothing was changed.
	StatusInternalError
)

func (s AssignStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAlreadyAssigned:
		return "already assigned"
	case StatusOutOfSlots:
		return "out of slots"
	case StatusUnknownShout:
		return "unknown shout"
	case StatusInternalError:
		return "internal error"
	}
	return fmt.Sprintf("AssignStatus(%d)", int(s))
}

// AssignResult is an AssignStatus plus, on StatusOK, the shout written.
type AssignResult struct {
	Status AssignStatus
	Shout  *host.Shout
}
