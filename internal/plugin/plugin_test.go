package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	istorage "github.com/panic-sell/equip-spells-as-shouts/internal/storage"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/sim"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/spell"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/storage"
)

var (
	keyLShift = sim.Key(42)
	keyEquals = sim.Key(13)
	keyMinus  = sim.Key(12)

	assignChord   = sim.Frame(keyLShift.Held(0.5), keyEquals.Down())
	unassignChord = sim.Frame(keyLShift.Held(0.5), keyMinus.Down())
)

func newWorld(t *testing.T) *sim.World {
	t.Helper()
	w, err := sim.NewWorld(sim.Options{})
	require.NoError(t, err)
	return w
}

func hostOf(w *sim.World) Host {
	return Host{
		Engine:   w.Engine,
		Events:   w.Engine,
		Forms:    w.Forms,
		Resolver: w.Resolver,
		Console:  w.Console,
	}
}

func newService(t *testing.T, w *sim.World, settings config.Settings, store storage.Storage) *Service {
	t.Helper()
	svc := New(hostOf(w), settings, store, logger.Discard())
	require.NoError(t, svc.OnDataLoaded())
	return svc
}

// equipAndAssign assigns a spell the way a player would: ready it in the
// right hand and press the assign chord.
func equipAndAssign(t *testing.T, w *sim.World, sp *spell.Spell) {
	t.Helper()
	w.Player.EquipRightHand(sp)
	w.Engine.SendInput(assignChord)
	require.Equal(t, sp.Name+" (Spell Shout) added", w.Engine.LastNotification())
}

func TestOnDataLoaded_MissingContent(t *testing.T) {
	w, err := sim.NewWorld(sim.Options{SkipPlugin: true})
	require.NoError(t, err)

	svc := New(hostOf(w), config.DefaultSettings(), storage.NewMemoryStorage(), logger.Discard())
	err = svc.OnDataLoaded()
	require.Error(t, err)
	assert.True(t, errors.Is(err, shoutmap.ErrMissingContent))
	assert.Nil(t, svc.Registry())
}

func TestOnDataLoaded_MissingHost(t *testing.T) {
	svc := New(Host{}, config.DefaultSettings(), storage.NewMemoryStorage(), logger.Discard())
	assert.Error(t, svc.OnDataLoaded())
}

func TestOnDataLoaded_Twice(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w, config.DefaultSettings(), storage.NewMemoryStorage())
	assert.Error(t, svc.OnDataLoaded())
}

func TestService_AssignAndCast(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w, config.DefaultSettings(), storage.NewMemoryStorage())
	firebolt := w.Spell("Firebolt")
	flames := w.Spell("Flames")

	equipAndAssign(t, w, firebolt)
	equipAndAssign(t, w, flames)

	fireboltShout := w.PluginShout(shoutmap.FafShoutFirstLocalID)
	flamesShout := w.PluginShout(shoutmap.ConcShoutFirstLocalID)
	assert.Same(t, firebolt, svc.Registry().SpellFor(fireboltShout))
	assert.Same(t, flames, svc.Registry().SpellFor(flamesShout))

	require.True(t, w.Player.SelectShout(fireboltShout))
	require.True(t, w.Engine.Shout(host.VariationOne))
	assert.Equal(t, []*spell.Spell{firebolt}, w.Player.SimCaster(host.SourceInstant).Casts())

	require.True(t, w.Player.SelectShout(flamesShout))
	require.True(t, w.Engine.Shout(host.VariationOne))
	assert.True(t, svc.ConcState().Active())
	w.Engine.SendInput(sim.Frame(sim.ShoutKey.Up(0.4)))
	assert.False(t, svc.ConcState().Active())

	w.Engine.SendInput(unassignChord)
	assert.Equal(t, "Flames (Spell Shout) removed", w.Engine.LastNotification())
	assert.Nil(t, svc.Registry().SpellFor(flamesShout))
	assert.False(t, w.Player.HasShout(flamesShout))
}

func TestService_SharedLayout(t *testing.T) {
	w := newWorld(t)
	settings := config.DefaultSettings()
	settings.ShoutLayout = config.LayoutShared
	svc := newService(t, w, settings, storage.NewMemoryStorage())

	equipAndAssign(t, w, w.Spell("Firebolt"))
	equipAndAssign(t, w, w.Spell("Flames"))
	assert.Equal(t, shoutmap.LayoutShared, svc.Registry().Layout())

	records, err := svc.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, shoutmap.TagShared, records[0].Tag)
	assert.Equal(t, `[[2304,116617],[2305,77773]]`, string(records[0].Data))
}

func TestService_Records(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w, config.DefaultSettings(), storage.NewMemoryStorage())

	records, err := svc.Records()
	require.NoError(t, err)
	assert.Empty(t, records)

	equipAndAssign(t, w, w.Spell("Firebolt"))
	equipAndAssign(t, w, w.Spell("Healing"))

	records, err = svc.Records()
	require.NoError(t, err)
	assert.Equal(t, []storage.Record{
		{Tag: shoutmap.TagFaf, Version: shoutmap.RecordVersion, Data: []byte(`[[2304,116617]]`)},
		{Tag: shoutmap.TagConc, Version: shoutmap.RecordVersion, Data: []byte(`[[2432,178539]]`)},
	}, records)
}

func TestService_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	store := storage.NewMemoryStorage()
	svc := newService(t, w, config.DefaultSettings(), store)
	for _, name := range []string{"Firebolt", "Bound Sword", "Flames", "Healing"} {
		equipAndAssign(t, w, w.Spell(name))
	}
	before := svc.Registry().Slots()

	saveID := uuid.New()
	require.NoError(t, svc.OnSave(ctx, saveID))

	svc.OnRevert()
	for _, s := range svc.Registry().Slots() {
		assert.Nil(t, s.Spell)
	}

	n, err := svc.OnLoad(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, before, svc.Registry().Slots())
}

func TestService_SaveEmptyDeletes(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	store := storage.NewMemoryStorage()
	svc := newService(t, w, config.DefaultSettings(), store)
	saveID := uuid.New()

	equipAndAssign(t, w, w.Spell("Firebolt"))
	require.NoError(t, svc.OnSave(ctx, saveID))
	ids, err := store.ListSaves(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{saveID}, ids)

	svc.OnRevert()
	require.NoError(t, svc.OnSave(ctx, saveID))
	ids, err = store.ListSaves(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestService_LoadUnknownSave(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w, config.DefaultSettings(), storage.NewMemoryStorage())
	equipAndAssign(t, w, w.Spell("Firebolt"))

	n, err := svc.OnLoad(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, svc.Registry().HasSpell(w.Spell("Firebolt")))
}

func TestService_LoadDropsLostShouts(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc := newService(t, w, config.DefaultSettings(), storage.NewMemoryStorage())
	equipAndAssign(t, w, w.Spell("Firebolt"))
	equipAndAssign(t, w, w.Spell("Fireball"))
	saveID := uuid.New()
	require.NoError(t, svc.OnSave(ctx, saveID))

	w.Player.RemoveShout(w.PluginShout(shoutmap.FafShoutFirstLocalID))

	n, err := svc.OnLoad(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, svc.Registry().HasSpell(w.Spell("Firebolt")))
	assert.True(t, svc.Registry().HasSpell(w.Spell("Fireball")))
}

func TestService_LoadPartialResolution(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	w.Forms.AddPlugin("Apocalypse.esp", 0x0A)
	custom := &spell.Spell{
		ID: 0x0A000800, Name: "Vampiric Drain", Casting: spell.Concentration,
		EquipSlot: spell.EquipEitherHand, BaseCost: 20,
	}
	w.Forms.AddSpell(custom)

	svc := newService(t, w, config.DefaultSettings(), storage.NewMemoryStorage())
	equipAndAssign(t, w, custom)
	equipAndAssign(t, w, w.Spell("Flames"))
	saveID := uuid.New()
	require.NoError(t, svc.OnSave(ctx, saveID))

	w.Resolver.Remove(0x0A)

	n, err := svc.OnLoad(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, svc.Registry().HasSpell(custom))
	assert.True(t, svc.Registry().HasSpell(w.Spell("Flames")))
}

func TestService_LoadSkipsBadRecords(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	store := storage.NewMemoryStorage()
	svc := newService(t, w, config.DefaultSettings(), store)
	firebolt := w.Spell("Firebolt")
	flames := w.Spell("Flames")
	equipAndAssign(t, w, firebolt)
	equipAndAssign(t, w, flames)

	saveID := uuid.New()
	require.NoError(t, store.SaveRecords(ctx, saveID, []storage.Record{
		{Tag: shoutmap.TagFaf, Version: shoutmap.RecordVersion, Data: []byte(`[[2304,`)},
		{Tag: shoutmap.TagConc, Version: shoutmap.RecordVersion, Data: []byte(`[[2432,77773]]`)},
		{Tag: form.MakeTag("XYZW"), Version: shoutmap.RecordVersion, Data: []byte(`[]`)},
		{Tag: shoutmap.TagShared, Version: 99, Data: []byte(`[[2304,116617]]`)},
	}))

	n, err := svc.OnLoad(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, svc.Registry().HasSpell(firebolt))
	assert.True(t, svc.Registry().HasSpell(flames))
}

func TestService_LoadMergesRepeatedTags(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	store := storage.NewMemoryStorage()
	svc := newService(t, w, config.DefaultSettings(), store)
	firebolt := w.Spell("Firebolt")
	fireball := w.Spell("Fireball")
	equipAndAssign(t, w, firebolt)
	equipAndAssign(t, w, fireball)

	saveID := uuid.New()
	require.NoError(t, store.SaveRecords(ctx, saveID, []storage.Record{
		{Tag: shoutmap.TagFaf, Version: shoutmap.RecordVersion, Data: []byte(`[[2304,116617]]`)},
		{Tag: shoutmap.TagFaf, Version: shoutmap.RecordVersion, Data: []byte(`[[2305,116618]]`)},
	}))
	svc.OnRevert()

	n, err := svc.OnLoad(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, firebolt, svc.Registry().SpellFor(w.PluginShout(shoutmap.FafShoutFirstLocalID)))
	assert.Equal(t, fireball, svc.Registry().SpellFor(w.PluginShout(shoutmap.FafShoutFirstLocalID+1)))
}

// Loads and reverts run alongside gameplay reads and assigns. Every read
// sees either no assignments or a whole loaded save, never part of one.
func TestService_LoadIsAtomic(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc := newService(t, w, config.DefaultSettings(), storage.NewMemoryStorage())
	firebolt := w.Spell("Firebolt")
	flames := w.Spell("Flames")
	equipAndAssign(t, w, firebolt)
	equipAndAssign(t, w, flames)
	fafShout := w.PluginShout(shoutmap.FafShoutFirstLocalID)
	concShout := w.PluginShout(shoutmap.ConcShoutFirstLocalID)
	saved := map[*host.Shout]*spell.Spell{fafShout: firebolt, concShout: flames}

	saveID := uuid.New()
	require.NoError(t, svc.OnSave(ctx, saveID))
	reg := svc.Registry()

	const workers, iterations = 4, 200
	errs := make(chan error, workers*4)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(4)
		go func() {
			defer wg.Done()
			for range iterations {
				if _, err := svc.OnLoad(ctx, saveID); err != nil {
					errs <- err
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range iterations {
				svc.OnRevert()
			}
		}()
		go func() {
			defer wg.Done()
			for range iterations {
				reg.Assign(w.Player, firebolt)
			}
		}()
		go func() {
			defer wg.Done()
			for range iterations {
				if sp := reg.SpellFor(fafShout); sp != nil && sp != firebolt {
					errs <- fmt.Errorf("fire-and-forget shout holds %s", sp)
					return
				}
				if sp := reg.SpellFor(concShout); sp != nil && sp != flames {
					errs <- fmt.Errorf("concentration shout holds %s", sp)
					return
				}
				// Flames only ever arrives with a whole load, which also
				// brings Firebolt. Only a revert clears them, and it
				// clears both.
				assigned := map[*host.Shout]*spell.Spell{}
				for _, slot := range reg.Slots() {
					if slot.Spell != nil {
						assigned[slot.Shout] = slot.Spell
					}
				}
				for shout, sp := range assigned {
					if saved[shout] != sp {
						errs <- fmt.Errorf("unexpected assignment %s", sp)
						return
					}
				}
				if assigned[concShout] != nil && assigned[fafShout] == nil {
					errs <- errors.New("partial load visible")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	n, err := svc.OnLoad(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, firebolt, reg.SpellFor(fafShout))
	assert.Equal(t, flames, reg.SpellFor(concShout))
}

type failingStore struct {
	*storage.MemoryStorage
	err error
}

func (s failingStore) SaveRecords(context.Context, uuid.UUID, []storage.Record) error {
	return s.err
}

func (s failingStore) LoadRecords(context.Context, uuid.UUID) ([]storage.Record, error) {
	return nil, s.err
}

func TestService_StoreErrors(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	boom := errors.New("disk on fire")
	svc := newService(t, w, config.DefaultSettings(), failingStore{storage.NewMemoryStorage(), boom})
	equipAndAssign(t, w, w.Spell("Firebolt"))

	err := svc.OnSave(ctx, uuid.New())
	assert.ErrorIs(t, err, boom)

	_, err = svc.OnLoad(ctx, uuid.New())
	assert.ErrorIs(t, err, boom)
	assert.True(t, svc.Registry().HasSpell(w.Spell("Firebolt")), "a failed load keeps the current assignments")
}

func TestService_NotInitialized(t *testing.T) {
	w := newWorld(t)
	svc := New(hostOf(w), config.DefaultSettings(), storage.NewMemoryStorage(), logger.Discard())

	_, err := svc.Records()
	assert.Error(t, err)
	_, err = svc.OnLoad(context.Background(), uuid.New())
	assert.Error(t, err)
	svc.OnRevert()
}

func TestService_RedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store, err := istorage.NewRedisStorage("redis://"+mr.Addr(), time.Hour, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	w := newWorld(t)
	svc := newService(t, w, config.DefaultSettings(), store)
	equipAndAssign(t, w, w.Spell("Fireball"))
	equipAndAssign(t, w, w.Spell("Sparks"))
	before := svc.Registry().Slots()

	saveID := uuid.New()
	require.NoError(t, svc.OnSave(ctx, saveID))
	assert.True(t, mr.Exists("cosave:"+saveID.String()))

	svc.OnRevert()
	n, err := svc.OnLoad(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, before, svc.Registry().Slots())
}
