package storage

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage keeps records in process memory. It backs tests and the
// console's default store.
type MemoryStorage struct {
	mu        sync.RWMutex
	saves     map[uuid.UUID][]Record
	pingError error
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		saves: make(map[uuid.UUID][]Record),
	}
}

// SetPingError makes Ping fail with err; nil restores it.
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) SaveRecords(ctx context.Context, saveID uuid.UUID, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(records) == 0 {
		delete(m.saves, saveID)
		return nil
	}
	m.saves[saveID] = SortRecords(cloneRecords(records))
	return nil
}

func (m *MemoryStorage) LoadRecords(ctx context.Context, saveID uuid.UUID) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, ok := m.saves[saveID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecords(records), nil
}

func (m *MemoryStorage) DeleteSave(ctx context.Context, saveID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, saveID)
	return nil
}

func (m *MemoryStorage) ListSaves(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.saves))
	for id := range m.saves {
		ids = append(ids, id)
	}
	SortSaveIDs(ids)
	return ids, nil
}

// SortRecords orders records by tag, in place.
func SortRecords(records []Record) []Record {
	slices.SortFunc(records, func(a, b Record) int {
		switch {
		case a.Tag < b.Tag:
			return -1
		case a.Tag > b.Tag:
			return 1
		}
		return 0
	})
	return records
}

// SortSaveIDs orders save IDs bytewise, in place.
func SortSaveIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{Tag: r.Tag, Version: r.Version, Data: bytes.Clone(r.Data)}
	}
	return out
}
