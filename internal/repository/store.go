package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"solar_planner/internal/config"
	"solar_planner/internal/domain"
)

// Store persists the whole project list under one named slot
type Store interface {
	// Load returns the saved list. An absent slot yields an empty list.
	Load(ctx context.Context) ([]domain.ProjectRecord, error)

	// SaveAll replaces the slot with list
	SaveAll(ctx context.Context, list []domain.ProjectRecord) error

	// Type returns the backend name
	Type() string
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// NewStore builds the store matching the open database
func NewStore(db config.Database, slot string) (Store, error) {
	switch d := db.(type) {
	case *config.FileDatabase:
		return NewFileStore(filepath.Join(d.Dir, slot+".json")), nil
	case *config.MemoryDatabase:
		return NewMemoryStore(), nil
	case *config.SQLiteDatabase:
		return NewSQLiteStore(d.DB, slot)
	case *config.MongoDatabase:
		return NewMongoStore(d, slot), nil
	case *config.PostgresDatabase:
		return NewPostgresStore(d.DB, slot)
	default:
		return nil, fmt.Errorf("unsupported database: %T", db)
	}
}
