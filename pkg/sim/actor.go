package sim

import (
	"fmt"
	"sync"

	"github.com/jwebster45206/d20"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
)

// PlayerSpec describes the simulated player.
type PlayerSpec struct {
	ID         string
	Name       string
	Level      int
	MaxHP      int
	MaxMagicka float64
	// CostMultiplier scales every spell's base cost. Zero means 1.
	CostMultiplier float64
	// CostReductionPerLevel is the fraction of base cost saved for each
	// level above 1. Costs never drop below MinCostFactor of base.
	CostReductionPerLevel float64
}

// MinCostFactor is the lowest share of a spell's base cost any level pays.
const MinCostFactor = 0.25

// Player is a simulated player character. Level and health live on a d20
// actor; magicka, shouts and casters are tracked here.
type Player struct {
	mu sync.Mutex

	stats      *d20.Actor
	name       string
	magicka    float64
	maxMagicka float64
	costMult   float64
	costPerLvl float64

	shouts        map[*host.Shout]bool
	words         map[*host.Word]bool
	selected      *host.Shout
	rightHand     *spell.Spell
	variation     host.VariationID
	hasProcess    bool
	voiceRecovery float32
	handWeapons   [2]bool // left, right
	unequips      int
	unequipErr    error

	casters map[host.CastingSource]*Caster
	sounds  []*Sound
}

var _ host.Actor = (*Player)(nil)

// NewPlayer builds a player from spec.
func NewPlayer(spec PlayerSpec) (*Player, error) {
	if spec.ID == "" {
		spec.ID = "player"
	}
	if spec.MaxHP <= 0 {
		spec.MaxHP = 100
	}
	if spec.Level <= 0 {
		spec.Level = 1
	}
	stats, err := d20.NewActor(spec.ID).
		WithHP(spec.MaxHP).
		WithAttributes(map[string]int{"level": spec.Level}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build player stats: %w", err)
	}

	mult := spec.CostMultiplier
	if mult == 0 {
		mult = 1
	}
	p := &Player{
		stats:      stats,
		name:       spec.Name,
		magicka:    spec.MaxMagicka,
		maxMagicka: spec.MaxMagicka,
		costMult:   mult,
		costPerLvl: spec.CostReductionPerLevel,
		shouts:     make(map[*host.Shout]bool),
		words:      make(map[*host.Word]bool),
		hasProcess: true,
	}
	p.casters = map[host.CastingSource]*Caster{
		host.SourceLeftHand:  newCaster(p, host.SourceLeftHand),
		host.SourceRightHand: newCaster(p, host.SourceRightHand),
		host.SourceOther:     newCaster(p, host.SourceOther),
		host.SourceInstant:   newCaster(p, host.SourceInstant),
	}
	return p, nil
}

func (p *Player) Name() string   { return p.name }
func (p *Player) IsPlayer() bool { return true }

// Level reads the level attribute of the player's stats.
func (p *Player) Level() int {
	level, ok := p.stats.Attribute("level")
	if !ok {
		return 1
	}
	return level
}

func (p *Player) HP() int    { return p.stats.HP() }
func (p *Player) MaxHP() int { return p.stats.MaxHP() }

func (p *Player) HasShout(s *host.Shout) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return s != nil && p.shouts[s]
}

func (p *Player) AddShout(s *host.Shout) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shouts[s] = true
}

// RemoveShout takes a shout away. A removed selected shout is deselected.
func (p *Player) RemoveShout(s *host.Shout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.shouts, s)
	if p.selected == s {
		p.selected = nil
	}
}

// Shouts lists the shouts the player knows, in no particular order.
func (p *Player) Shouts() []*host.Shout {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*host.Shout, 0, len(p.shouts))
	for s := range p.shouts {
		out = append(out, s)
	}
	return out
}

func (p *Player) UnlockWord(w *host.Word) {
	if w == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.words[w] = true
}

// KnowsWord reports whether w has been unlocked.
func (p *Player) KnowsWord(w *host.Word) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.words[w]
}

func (p *Player) SelectedShout() *host.Shout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// SelectShout readies s in the voice slot. Shouts the player does not know
// cannot be selected.
func (p *Player) SelectShout(s *host.Shout) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s != nil && !p.shouts[s] {
		return false
	}
	p.selected = s
	return true
}

func (p *Player) RightHandSpell() *spell.Spell {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rightHand
}

// EquipRightHand readies sp in the right hand; nil empties it.
func (p *Player) EquipRightHand(sp *spell.Spell) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rightHand = sp
}

func (p *Player) ShoutVariation() (host.VariationID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.variation, p.hasProcess
}

// SetShoutVariation sets the variation of the shout being performed.
func (p *Player) SetShoutVariation(v host.VariationID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.variation = v
}

// SetHasProcess toggles whether the player has high-level process data.
func (p *Player) SetHasProcess(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasProcess = ok
}

func (p *Player) SetVoiceRecoveryTime(seconds float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voiceRecovery = seconds
}

func (p *Player) VoiceRecoveryTime() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceRecovery
}

func (p *Player) Caster(src host.CastingSource) host.Caster {
	c := p.casters[src]
	if c == nil {
		return nil
	}
	return c
}

// SimCaster returns the concrete caster for src.
func (p *Player) SimCaster(src host.CastingSource) *Caster {
	return p.casters[src]
}

func (p *Player) Magicka() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.magicka
}

func (p *Player) MaxMagicka() float64 {
	return p.maxMagicka
}

// SetMagicka sets the current magicka, clamped to [0, max].
func (p *Player) SetMagicka(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.magicka = clamp(v, 0, p.maxMagicka)
}

func (p *Player) DamageMagicka(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.magicka = clamp(p.magicka-amount, 0, p.maxMagicka)
}

// MagickaCost is the spell's base cost scaled by the player's level.
func (p *Player) MagickaCost(sp *spell.Spell) float64 {
	if sp == nil {
		return 0
	}
	factor := 1 - p.costPerLvl*float64(p.Level()-1)
	if factor < MinCostFactor {
		factor = MinCostFactor
	}
	return sp.BaseCost * p.costMult * factor
}

// TakeDamage lowers HP on the player's stats.
func (p *Player) TakeDamage(amount int) error {
	hp := p.stats.HP() - amount
	if hp < 0 {
		hp = 0
	}
	return p.stats.SetHP(hp)
}

func (p *Player) PlaySound(id form.ID) host.SoundHandle {
	if id == 0 {
		return nil
	}
	s := &Sound{ID: id}
	p.mu.Lock()
	p.sounds = append(p.sounds, s)
	p.mu.Unlock()
	return s
}

// Sounds lists every sound played so far.
func (p *Player) Sounds() []*Sound {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Sound(nil), p.sounds...)
}

// GiveHandWeapon puts a bound weapon in a hand.
func (p *Player) GiveHandWeapon(left bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handWeapons[handIndex(left)] = true
}

func (p *Player) HasHandWeapon(left bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handWeapons[handIndex(left)]
}

func (p *Player) UnequipHand(left bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unequipErr != nil {
		return p.unequipErr
	}
	p.handWeapons[handIndex(left)] = false
	p.unequips++
	return nil
}

// Unequips counts successful UnequipHand calls.
func (p *Player) Unequips() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unequips
}

// FailUnequip makes UnequipHand return err until called with nil.
func (p *Player) FailUnequip(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unequipErr = err
}

func handIndex(left bool) int {
	if left {
		return 0
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// Sound is a sound handle that counts Stop calls.
type Sound struct {
	ID    form.ID
	mu    sync.Mutex
	stops int
}

func (s *Sound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *Sound) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *Sound) Playing() bool {
	return s.Stops() == 0
}
