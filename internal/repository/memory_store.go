package repository

import (
	"context"
	"sync"

	"solar_planner/internal/config"
	"solar_planner/internal/domain"
)

// MemoryStore holds the encoded slot in memory
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]domain.ProjectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DecodeProjects(s.data)
}

func (s *MemoryStore) SaveAll(_ context.Context, list []domain.ProjectRecord) error {
	data, err := EncodeProjects(list)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

// Bytes returns a copy of the stored slot
func (s *MemoryStore) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Seed replaces the stored slot without counting a save
func (s *MemoryStore) Seed(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}

// Saves reports how many times SaveAll succeeded
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Type() string { return config.StoreMemory }
