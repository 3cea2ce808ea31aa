package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solar_planner/internal/config"
	"solar_planner/internal/domain"
	"solar_planner/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type slotDocument struct {
	Slot      string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps each slot as one document keyed by slot name
type MongoStore struct {
	db   *config.MongoDatabase
	slot string
}

// NewMongoStore creates a new MongoDB store
func NewMongoStore(db *config.MongoDatabase, slot string) *MongoStore {
	return &MongoStore{db: db, slot: slot}
}

func (s *MongoStore) Load(ctx context.Context) ([]domain.ProjectRecord, error) {
	var doc slotDocument
	err := s.db.Collection.FindOne(ctx, bson.M{"_id": s.slot}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []domain.ProjectRecord{}, nil
	}
	if err != nil {
		logger.Errorf("❌ MongoDB FindOne failed: %v (slot: %s)", err, s.slot)
		return nil, fmt.Errorf("load slot %s: %w", s.slot, err)
	}
	return DecodeProjects([]byte(doc.Value))
}

func (s *MongoStore) SaveAll(ctx context.Context, list []domain.ProjectRecord) error {
	data, err := EncodeProjects(list)
	if err != nil {
		return err
	}

	doc := slotDocument{Slot: s.slot, Value: string(data), UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)

	if _, err := s.db.Collection.ReplaceOne(ctx, bson.M{"_id": s.slot}, doc, opts); err != nil {
		logger.Errorf("❌ MongoDB ReplaceOne failed: %v (slot: %s)", err, s.slot)
		return fmt.Errorf("save slot %s: %w", s.slot, err)
	}

	logger.Debugf("✓ Saved %d projects to slot %s", len(list), s.slot)
	return nil
}

func (s *MongoStore) Type() string { return config.StoreMongo }
