package shoutmap

import (
	"errors"
	"fmt"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// Granter performs the host side effects of giving an actor a shout and
// taking it away again.
type Granter interface {
	Grant(actor host.Actor, shout *host.Shout) error
	Revoke(actor host.Actor, shout *host.Shout) error
	// UpperWord is the word written to variations two and three of a shout
	// holding a spell of category c. Nil leaves the variations alone.
	UpperWord(c spell.Category) *host.Word
}

// Content is the set of records the plugin file defines.
type Content struct {
	// Word is the word of power shared by every spell shout.
	Word *host.Word
	// UnlearnedWord is never taught. Concentration shouts use it for their
	// upper variations, so holding the button never charges into them.
	UnlearnedWord *host.Word
	// DefaultShout has a lower form ID than every spell shout. Teaching Word
	// auto-adds the lowest shout using it, which must then be removed again.
	DefaultShout *host.Shout
	FafShouts    []*host.Shout
	ConcShouts   []*host.Shout
	// MissingShouts are local IDs of spell shouts the plugin did not define.
	MissingShouts []form.ID
}

// ErrMissingContent means the plugin records needed for a grant are absent.
var ErrMissingContent = errors.New("plugin content missing")

// ConsoleGranter grants shouts with console commands. There is no way to read
// back whether an actor knows a word, so a dispatched command counts as done.
type ConsoleGranter struct {
	Console host.Console
	Content *Content
}

var _ Granter = (*ConsoleGranter)(nil)

func (g *ConsoleGranter) Grant(actor host.Actor, shout *host.Shout) error {
	if g.Content == nil || g.Content.Word == nil || g.Content.DefaultShout == nil {
		return ErrMissingContent
	}
	word := g.Content.Word
	if err := g.Console.Run(fmt.Sprintf("player.teachword %08x", uint32(word.ID))); err != nil {
		return fmt.Errorf("teachword failed: %w", err)
	}
	if err := g.Console.Run(fmt.Sprintf("player.removeshout %08x", uint32(g.Content.DefaultShout.ID))); err != nil {
		return fmt.Errorf("removeshout of default shout failed: %w", err)
	}
	actor.UnlockWord(word)
	actor.AddShout(shout)
	return nil
}

func (g *ConsoleGranter) Revoke(_ host.Actor, shout *host.Shout) error {
	if err := g.Console.Run(fmt.Sprintf("player.removeshout %08x", uint32(shout.ID))); err != nil {
		return fmt.Errorf("removeshout failed: %w", err)
	}
	return nil
}

func (g *ConsoleGranter) UpperWord(c spell.Category) *host.Word {
	if g.Content == nil {
		return nil
	}
	if c == spell.CategorySustained {
		return g.Content.UnlearnedWord
	}
	return g.Content.Word
}
