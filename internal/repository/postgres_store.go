package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solar_planner/internal/config"
	"solar_planner/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoreSlot is the gorm model behind PostgresStore
type StoreSlot struct {
	Slot      string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (StoreSlot) TableName() string { return "store_slots" }

// PostgresStore keeps slots in PostgreSQL through gorm
type PostgresStore struct {
	db   *gorm.DB
	slot string
}

// NewPostgresStore migrates the store_slots table
func NewPostgresStore(db *gorm.DB, slot string) (*PostgresStore, error) {
	if err := db.AutoMigrate(&StoreSlot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store_slots: %w", err)
	}
	return &PostgresStore{db: db, slot: slot}, nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]domain.ProjectRecord, error) {
	var row StoreSlot
	err := s.db.WithContext(ctx).Where("slot = ?", s.slot).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []domain.ProjectRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", s.slot, err)
	}
	return DecodeProjects([]byte(row.Value))
}

func (s *PostgresStore) SaveAll(ctx context.Context, list []domain.ProjectRecord) error {
	data, err := EncodeProjects(list)
	if err != nil {
		return err
	}

	row := StoreSlot{Slot: s.slot, Value: string(data), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save slot %s: %w", s.slot, err)
	}
	return nil
}

func (s *PostgresStore) Type() string { return config.StorePostgres }
