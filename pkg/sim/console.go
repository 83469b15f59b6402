package sim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

var (
	ErrUnknownCommand = errors.New("unknown console command")
	ErrUnknownForm    = errors.New("no form with that ID")
)

// Console interprets the player.teachword and player.removeshout console
// commands against a Player.
type Console struct {
	player *Player
	forms  *Forms

	mu      sync.Mutex
	history []string
	failErr error
}

var _ host.Console = (*Console)(nil)

func NewConsole(player *Player, forms *Forms) *Console {
	return &Console{player: player, forms: forms}
}

// Fail makes every command return err until called with nil.
func (c *Console) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
}

// History lists every command run, failed ones included.
func (c *Console) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}

func (c *Console) Run(cmd string) error {
	c.mu.Lock()
	c.history = append(c.history, cmd)
	failErr := c.failErr
	c.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	verb, arg, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	switch strings.ToLower(verb) {
	case "player.teachword":
		id, err := parseFormID(arg)
		if err != nil {
			return err
		}
		word := c.forms.WordByID(id)
		if word == nil {
			return fmt.Errorf("%w: %s", ErrUnknownForm, id)
		}
		c.player.UnlockWord(word)
		// Learning a word also adds the lowest shout that uses it.
		if s := c.forms.LowestShoutUsing(word); s != nil {
			c.player.AddShout(s)
		}
		return nil

	case "player.removeshout":
		id, err := parseFormID(arg)
		if err != nil {
			return err
		}
		s := c.forms.ShoutByID(id)
		if s == nil {
			return fmt.Errorf("%w: %s", ErrUnknownForm, id)
		}
		c.player.RemoveShout(s)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

func parseFormID(s string) (form.ID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid form ID %q: %w", s, err)
	}
	return form.ID(v), nil
}
