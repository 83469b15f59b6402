package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/internal/plugin"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/keys"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/sim"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/storage"
)

var errUsage = errors.New("usage")

// session is one simulated game with the plugin loaded into it.
type session struct {
	ctx      context.Context
	world    *sim.World
	svc      *plugin.Service
	store    storage.Storage
	settings config.Settings
	saveID   uuid.UUID

	// copyText writes to the system clipboard.
	copyText func(string) error
}

func newSession(ctx context.Context, settings config.Settings, store storage.Storage, logger *slog.Logger) (*session, error) {
	world, err := sim.NewWorld(sim.Options{Player: sim.PlayerSpec{Level: 10}})
	if err != nil {
		return nil, fmt.Errorf("failed to build world: %w", err)
	}
	svc := plugin.New(plugin.Host{
		Engine:   world.Engine,
		Events:   world.Engine,
		Forms:    world.Forms,
		Resolver: world.Resolver,
		Console:  world.Console,
	}, settings, store, logger)
	if err := svc.OnDataLoaded(); err != nil {
		return nil, err
	}
	return &session{
		ctx:      ctx,
		world:    world,
		svc:      svc,
		store:    store,
		settings: settings,
		saveID:   uuid.New(),
		copyText: clipboard.WriteAll,
	}, nil
}

const helpText = `spells              list castable spells
equip <spell>       ready a spell in the right hand
assign              press the assign chord
unassign            press the unassign chord
select <n>          select spell shout n
shout [1-3]         perform the selected shout
hold [seconds]      keep holding the shout button
release             let go of the shout button
magicka [amount]    show or set magicka
god | pause         toggle god mode or pause
save | revert       write or drop assignments
load [save id]      load assignments
saves               list stored saves
records             show cosave records
copy                copy cosave records to the clipboard
quit                leave`

// Exec runs one command line and returns its output lines, followed by any
// notifications the game raised while it ran.
func (s *session) Exec(line string) ([]string, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	before := len(s.world.Engine.Notifications())

	out, err := s.exec(strings.ToLower(verb), arg)
	for _, n := range s.world.Engine.Notifications()[before:] {
		out = append(out, "» "+n)
	}
	return out, err
}

func (s *session) exec(verb, arg string) ([]string, error) {
	switch verb {
	case "", "help", "?":
		return strings.Split(helpText, "\n"), nil
	case "spells":
		return s.spells(), nil
	case "equip":
		return s.equip(arg)
	case "assign":
		return nil, s.pressChord(s.settings.ConvertSpellKeysets)
	case "unassign":
		return nil, s.pressChord(s.settings.RemoveShoutKeysets)
	case "select":
		return s.selectShout(arg)
	case "shout":
		return s.shout(arg)
	case "hold":
		return s.hold(arg)
	case "release":
		s.world.Engine.SendInput(sim.Frame(sim.ShoutKey.Up(0.5)))
		return []string{"released"}, nil
	case "magicka":
		return s.magicka(arg)
	case "god":
		on := !s.world.Engine.GodMode()
		s.world.Engine.SetGodMode(on)
		return []string{fmt.Sprintf("god mode %s", onOff(on))}, nil
	case "pause":
		on := !s.world.Engine.GamePaused()
		s.world.Engine.SetPaused(on)
		return []string{fmt.Sprintf("paused %s", onOff(on))}, nil
	case "save":
		if err := s.svc.OnSave(s.ctx, s.saveID); err != nil {
			return nil, err
		}
		return []string{"saved " + s.saveID.String()}, nil
	case "load":
		return s.load(arg)
	case "revert":
		s.svc.OnRevert()
		return []string{"reverted"}, nil
	case "saves":
		return s.saves()
	case "records":
		text, err := s.recordsText()
		if err != nil {
			return nil, err
		}
		return strings.Split(text, "\n"), nil
	case "copy":
		text, err := s.recordsText()
		if err != nil {
			return nil, err
		}
		if err := s.copyText(text); err != nil {
			return nil, fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		return []string{"records copied to clipboard"}, nil
	}
	return nil, fmt.Errorf("unknown command %q, try help", verb)
}

func (s *session) spells() []string {
	var out []string
	for _, sp := range sim.Catalog() {
		out = append(out, fmt.Sprintf("%-20s %-11s %4.0f", sp.Name, sp.Category(), s.world.Player.MagickaCost(sp)))
	}
	return out
}

func (s *session) equip(name string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: equip <spell>", errUsage)
	}
	for _, sp := range sim.Catalog() {
		if strings.EqualFold(sp.Name, name) {
			s.world.Player.EquipRightHand(s.world.Spell(sp.Name))
			return []string{"equipped " + sp.Name}, nil
		}
	}
	return nil, fmt.Errorf("no spell named %q", name)
}

// pressChord sends the first configured chord as a frame where its last key
// goes down while the others are held.
func (s *session) pressChord(sets keys.Keysets) error {
	if len(sets) == 0 {
		return errors.New("no chord configured")
	}
	frame, err := chordFrame(sets[0])
	if err != nil {
		return err
	}
	s.world.Engine.SendInput(frame)
	return nil
}

func chordFrame(ks keys.Keyset) ([]host.InputEvent, error) {
	n := ks.Len()
	if n == 0 {
		return nil, errors.New("empty chord")
	}
	frame := make([]host.InputEvent, 0, n)
	for i, code := range ks[:n] {
		ev := host.InputEvent{Kind: host.InputButton, Value: 1, HeldDuration: 0.5}
		switch {
		case code < keys.MouseOffset:
			ev.Device = host.DeviceKeyboard
			ev.IDCode = uint32(code)
		case code < keys.GamepadOffset:
			ev.Device = host.DeviceMouse
			ev.IDCode = uint32(code - keys.MouseOffset)
		default:
			return nil, fmt.Errorf("chord key %s cannot be typed here", code)
		}
		if i == n-1 {
			ev.HeldDuration = 0
		}
		frame = append(frame, ev)
	}
	return frame, nil
}

// ownedSlots lists the spell shouts the player knows, in registry order.
func (s *session) ownedSlots() []shoutmap.Slot {
	var out []shoutmap.Slot
	for _, slot := range s.svc.Registry().Slots() {
		if s.world.Player.HasShout(slot.Shout) {
			out = append(out, slot)
		}
	}
	return out
}

func (s *session) selectShout(arg string) ([]string, error) {
	slots := s.ownedSlots()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(slots) {
		return nil, fmt.Errorf("%w: select <1-%d>", errUsage, len(slots))
	}
	shout := slots[n-1].Shout
	if !s.world.Player.SelectShout(shout) {
		return nil, fmt.Errorf("cannot select %s", shout.Name)
	}
	return []string{"selected " + shout.Name}, nil
}

func (s *session) shout(arg string) ([]string, error) {
	v := host.VariationOne
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > 3 {
			return nil, fmt.Errorf("%w: shout [1-3]", errUsage)
		}
		v = host.VariationID(n - 1)
	}
	magicka := s.world.Player.Magicka()
	if !s.world.Engine.Shout(v) {
		return nil, errors.New("no shout selected")
	}
	out := []string{fmt.Sprintf("shouted %s", s.world.Player.SelectedShout().Name)}
	if spent := magicka - s.world.Player.Magicka(); spent > 0 {
		out = append(out, fmt.Sprintf("spent %.1f magicka", spent))
	}
	if sp := s.svc.ConcState().Spell(); sp != nil {
		out = append(out, fmt.Sprintf("channeling %s (session %s)", sp.Name, s.svc.ConcState().SessionID()))
	}
	return out, nil
}

func (s *session) hold(arg string) ([]string, error) {
	seconds := 1.0
	if arg != "" {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: hold [seconds]", errUsage)
		}
		seconds = v
	}
	magicka := s.world.Player.Magicka()
	s.world.Engine.Tick(seconds)
	s.world.Engine.SendInput(sim.Frame(sim.ShoutKey.Held(float32(seconds))))
	out := []string{fmt.Sprintf("held for %.1fs, drained %.1f magicka", seconds, magicka-s.world.Player.Magicka())}
	if !s.svc.ConcState().Active() {
		out = append(out, "not channeling")
	}
	return out, nil
}

func (s *session) magicka(arg string) ([]string, error) {
	if arg != "" {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: magicka [amount]", errUsage)
		}
		s.world.Player.SetMagicka(v)
	}
	return []string{fmt.Sprintf("magicka %.1f / %.0f", s.world.Player.Magicka(), s.world.Player.MaxMagicka())}, nil
}

func (s *session) load(arg string) ([]string, error) {
	if arg != "" {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid save id: %w", err)
		}
		s.saveID = id
	}
	n, err := s.svc.OnLoad(s.ctx, s.saveID)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("loaded %d assignments from %s", n, s.saveID)}, nil
}

func (s *session) saves() ([]string, error) {
	ids, err := s.store.ListSaves(s.ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{"no saves"}, nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		mark := " "
		if id == s.saveID {
			mark = "*"
		}
		out = append(out, mark+" "+id.String())
	}
	return out, nil
}

// recordsText renders the current cosave records one per line.
func (s *session) recordsText() (string, error) {
	records, err := s.svc.Records()
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "no records", nil
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s v%d %s", r.Tag, r.Version, r.Data))
	}
	return strings.Join(lines, "\n"), nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func categoryLabel(sp *spell.Spell) string {
	if sp == nil {
		return ""
	}
	switch sp.Category() {
	case spell.CategoryInstant:
		return "faf"
	case spell.CategorySustained:
		return "conc"
	case spell.CategoryOther:
		return "other"
	}
	return ""
}
