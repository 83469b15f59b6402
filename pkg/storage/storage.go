package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
)

// ErrNotFound is returned when a save has no records.
var ErrNotFound = errors.New("save not found")

// Record is one tagged cosave record.
type Record struct {
	Tag     form.Tag `json:"tag"`
	Version uint32   `json:"version"`
	Data    []byte   `json:"data"`
}

// Storage persists the cosave records of game saves.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveRecords replaces every record of a save. Saving no records
	// deletes the save.
	SaveRecords(ctx context.Context, saveID uuid.UUID, records []Record) error
	// LoadRecords returns the records of a save ordered by tag, or
	// ErrNotFound.
	LoadRecords(ctx context.Context, saveID uuid.UUID) ([]Record, error)
	DeleteSave(ctx context.Context, saveID uuid.UUID) error
	ListSaves(ctx context.Context) ([]uuid.UUID, error)
}
