package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStorage) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	r, err := NewRedisStorage(mr.Addr(), ttl, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return mr, r
}

func setupTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "cosave.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecords() []storage.Record {
	return []storage.Record{
		{Tag: form.MakeTag("FAF"), Version: 1, Data: []byte(`[[2304,116617],[2305,116618]]`)},
		{Tag: form.MakeTag("CONC"), Version: 1, Data: []byte(`[[2432,77773]]`)},
	}
}

// exerciseStorage runs the behavior every backend shares.
func exerciseStorage(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	a, b := uuid.New(), uuid.New()

	_, err := s.LoadRecords(ctx, a)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SaveRecords(ctx, a, sampleRecords()))
	got, err := s.LoadRecords(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CONC", got[0].Tag.String())
	assert.Equal(t, "FAF", got[1].Tag.String())
	assert.Equal(t, uint32(1), got[1].Version)
	assert.Equal(t, `[[2304,116617],[2305,116618]]`, string(got[1].Data))

	// A second save replaces every record.
	require.NoError(t, s.SaveRecords(ctx, a, sampleRecords()[:1]))
	got, err = s.LoadRecords(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FAF", got[0].Tag.String())

	require.NoError(t, s.SaveRecords(ctx, b, sampleRecords()))
	ids, err := s.ListSaves(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)

	require.NoError(t, s.DeleteSave(ctx, a))
	_, err = s.LoadRecords(ctx, a)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	ids, err = s.ListSaves(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, ids)

	// Saving nothing leaves nothing to load.
	require.NoError(t, s.SaveRecords(ctx, b, nil))
	_, err = s.LoadRecords(ctx, b)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStorage(t *testing.T) {
	_, r := setupTestRedis(t, 0)
	exerciseStorage(t, r)
}

func TestRedisStorage_Layout(t *testing.T) {
	mr, r := setupTestRedis(t, 0)
	id := uuid.New()
	require.NoError(t, r.SaveRecords(context.Background(), id, sampleRecords()))

	key := "cosave:" + id.String()
	assert.True(t, mr.Exists(key))
	fields, err := mr.HKeys(key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CONC", "FAF"}, fields)
	ok, err := mr.SIsMember("cosaves", id.String())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStorage_TTL(t *testing.T) {
	mr, r := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, r.SaveRecords(ctx, id, sampleRecords()))
	assert.Equal(t, time.Hour, mr.TTL("cosave:"+id.String()))

	mr.FastForward(2 * time.Hour)
	_, err := r.LoadRecords(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := r.ListSaves(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStorage_MalformedRecord(t *testing.T) {
	mr, r := setupTestRedis(t, 0)
	id := uuid.New()
	key := "cosave:" + id.String()
	mr.HSet(key, "FAF", "not json")
	mr.HSet(key, "CONC", `{"version":1,"data":"W10="}`)

	got, err := r.LoadRecords(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CONC", got[0].Tag.String())
	assert.Equal(t, "[]", string(got[0].Data))
}

func TestRedisStorage_PingFailure(t *testing.T) {
	mr, r := setupTestRedis(t, 0)
	mr.Close()
	assert.Error(t, r.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, r.WaitForConnection(ctx, 3, time.Millisecond))
}

func TestSQLiteStorage(t *testing.T) {
	exerciseStorage(t, setupTestSQLite(t))
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cosave.db")
	id := uuid.New()

	s, err := NewSQLiteStorage(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.SaveRecords(context.Background(), id, sampleRecords()))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStorage(path, testLogger())
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadRecords(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ", testLogger())
	assert.Error(t, err)
}

func TestMemoryStorageSharesBehavior(t *testing.T) {
	exerciseStorage(t, storage.NewMemoryStorage())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Config{Store: config.StoreMemory}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStorage{}, s)

	s, err = Open(ctx, &config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStorage{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, &config.Config{Store: config.StoreRedis, RedisURL: "redis://" + mr.Addr()}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &RedisStorage{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, &config.Config{Store: "tape"}, testLogger())
	assert.Error(t, err)
}
