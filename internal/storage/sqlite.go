package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/storage"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	save_id    TEXT    NOT NULL,
	tag        INTEGER NOT NULL,
	version    INTEGER NOT NULL,
	data       BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (save_id, tag)
)`

// SQLiteStorage keeps records in one table of a SQLite file.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates the database at path.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) SaveRecords(ctx context.Context, saveID uuid.UUID, records []storage.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE save_id = ?`, saveID.String()); err != nil {
		return fmt.Errorf("clear save: %w", err)
	}
	now := time.Now().UTC().UnixMilli()
	for _, rec := range records {
		data := rec.Data
		if data == nil {
			data = []byte{}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO records (save_id, tag, version, data, updated_at) VALUES (?, ?, ?, ?, ?)`,
			saveID.String(), int64(rec.Tag), int64(rec.Version), data, now,
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Tag, err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to save records", "save_id", saveID, "error", err)
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadRecords(ctx context.Context, saveID uuid.UUID) ([]storage.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag, version, data FROM records WHERE save_id = ? ORDER BY tag`,
		saveID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var (
			tag, version int64
			data         []byte
		)
		if err := rows.Scan(&tag, &version, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, storage.Record{Tag: form.Tag(tag), Version: uint32(version), Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records, nil
}

func (s *SQLiteStorage) DeleteSave(ctx context.Context, saveID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE save_id = ?`, saveID.String()); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListSaves(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT save_id FROM records`)
	if err != nil {
		return nil, fmt.Errorf("query saves: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Warn("Skipping malformed save ID", "save_id", raw)
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saves: %w", err)
	}
	storage.SortSaveIDs(ids)
	return ids, nil
}
