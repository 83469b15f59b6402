package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
)

func TestMemoryStorage_SaveLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	id := uuid.New()

	_, err := m.LoadRecords(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte(`[[2304,116617]]`)
	records := []Record{
		{Tag: form.MakeTag("FAF"), Version: 1, Data: data},
		{Tag: form.MakeTag("CONC"), Version: 1, Data: []byte(`[]`)},
	}
	require.NoError(t, m.SaveRecords(ctx, id, records))

	// Mutating the caller's buffer must not reach the store.
	data[0] = '{'

	got, err := m.LoadRecords(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CONC", got[0].Tag.String())
	assert.Equal(t, "FAF", got[1].Tag.String())
	assert.Equal(t, `[[2304,116617]]`, string(got[1].Data))
}

func TestMemoryStorage_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	a, b := uuid.New(), uuid.New()
	rec := []Record{{Tag: form.MakeTag("FAF"), Version: 1, Data: []byte(`[]`)}}
	require.NoError(t, m.SaveRecords(ctx, a, rec))
	require.NoError(t, m.SaveRecords(ctx, b, rec))

	ids, err := m.ListSaves(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)

	require.NoError(t, m.DeleteSave(ctx, a))
	_, err = m.LoadRecords(ctx, a)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_Ping(t *testing.T) {
	m := NewMemoryStorage()
	assert.NoError(t, m.Ping(context.Background()))
	m.SetPingError(errors.New("down"))
	assert.Error(t, m.Ping(context.Background()))
}
