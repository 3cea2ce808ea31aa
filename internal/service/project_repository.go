package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"solar_planner/internal/domain"
	"solar_planner/internal/repository"
	"solar_planner/pkg/logger"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrDuplicateID     = errors.New("project id already exists")
)

// ProjectRepository is the in-memory ordered project list backed by a Store
type ProjectRepository struct {
	store repository.Store

	mu       sync.RWMutex
	projects []domain.ProjectRecord
}

func NewProjectRepository(store repository.Store) *ProjectRepository {
	return &ProjectRepository{
		store:    store,
		projects: []domain.ProjectRecord{},
	}
}

// Load reads the saved list. A missing or unreadable slot leaves the
// repository empty; the error is logged, not returned.
func (r *ProjectRepository) Load(ctx context.Context) {
	list, err := r.store.Load(ctx)
	if err != nil {
		logger.Errorf("❌ Failed to load projects from %s store: %v (starting empty)", r.store.Type(), err)
		list = []domain.ProjectRecord{}
	}

	r.mu.Lock()
	r.projects = list
	r.mu.Unlock()

	logger.Infof("✓ Loaded %d projects from %s store", len(list), r.store.Type())
}

func (r *ProjectRepository) Add(p domain.ProjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(p.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	r.projects = append(r.projects, p.Clone())
	return nil
}

func (r *ProjectRepository) Get(id string) (domain.ProjectRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ProjectRecord{}, false
	}
	return r.projects[i].Clone(), true
}

// Replace swaps in p for the record with the same id
func (r *ProjectRepository) Replace(p domain.ProjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, p.ID)
	}
	r.projects[i] = p.Clone()
	return nil
}

// ReplaceContent swaps in p but keeps the stored lastUpdated, which only
// the gateway stamps
func (r *ProjectRepository) ReplaceContent(p domain.ProjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, p.ID)
	}
	p = p.Clone()
	p.LastUpdated = r.projects[i].LastUpdated
	r.projects[i] = p
	return nil
}

// Touch stamps lastUpdated on the live record and returns it
func (r *ProjectRepository) Touch(id string, at time.Time) (domain.ProjectRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ProjectRecord{}, false
	}
	r.projects[i].LastUpdated = at
	return r.projects[i].Clone(), true
}

func (r *ProjectRepository) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.projects = append(r.projects[:i], r.projects[i+1:]...)
	return true
}

func (r *ProjectRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects)
}

// List returns a copy in stored order
func (r *ProjectRepository) List() []domain.ProjectRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ProjectRecord, len(r.projects))
	for i, p := range r.projects {
		out[i] = p.Clone()
	}
	return out
}

// ListByRecent returns a copy ordered by lastUpdated, newest first
func (r *ProjectRepository) ListByRecent() []domain.ProjectRecord {
	out := r.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out
}

// SaveAll writes the full list to the store
func (r *ProjectRepository) SaveAll(ctx context.Context) error {
	return r.store.SaveAll(ctx, r.List())
}

func (r *ProjectRepository) indexOf(id string) int {
	for i := range r.projects {
		if r.projects[i].ID == id {
			return i
		}
	}
	return -1
}
