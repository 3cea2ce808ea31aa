package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"solar_planner/internal/config"
	"solar_planner/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_slots (
	slot       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// SQLiteStore keeps slots in a key/value table
type SQLiteStore struct {
	db   *sql.DB
	slot string
}

// NewSQLiteStore creates the kv_slots table if needed
func NewSQLiteStore(db *sql.DB, slot string) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db, slot: slot}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]domain.ProjectRecord, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE slot = ?`, s.slot).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.ProjectRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", s.slot, err)
	}
	return DecodeProjects([]byte(value))
}

func (s *SQLiteStore) SaveAll(ctx context.Context, list []domain.ProjectRecord) error {
	data, err := EncodeProjects(list)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv_slots (slot, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		s.slot, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save slot %s: %w", s.slot, err)
	}
	return nil
}

func (s *SQLiteStore) Type() string { return config.StoreSQLite }
