package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"solar_planner/internal/domain"
	"solar_planner/internal/repository"
	"solar_planner/internal/sizing"
	"solar_planner/internal/wizard"
	"solar_planner/pkg/logger"

	"github.com/jonboulle/clockwork"
)

var ErrNoSession = errors.New("no project is open")

// FieldUpdate is one field edit in text form
type FieldUpdate struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// SessionView is the state of the open project as shown to the user
type SessionView struct {
	Project    domain.ProjectRecord  `json:"project"`
	Metrics    domain.DerivedMetrics `json:"metrics"`
	Step       wizard.Step           `json:"step"`
	IsNew      bool                  `json:"isNew"`
	Validation wizard.Result         `json:"validation"`
	Steps      []wizard.Result       `json:"steps"`
}

// Stats reports service health
type Stats struct {
	Projects      int          `json:"projects"`
	Store         string       `json:"store"`
	ActiveProject string       `json:"activeProject,omitempty"`
	Gateway       GatewayStats `json:"gateway"`
	Uptime        string       `json:"uptime"`
}

// Service ties the project list, the write gateway and the single open
// wizard session together
type Service struct {
	store   repository.Store
	repo    *ProjectRepository
	gateway *Gateway
	catalog domain.Catalog

	mu        sync.Mutex
	session   *wizard.Session
	startTime time.Time
}

// NewService loads the project list and starts the gateway
func NewService(ctx context.Context, store repository.Store, sink repository.SnapshotSink, clock clockwork.Clock, debounce time.Duration) *Service {
	repo := NewProjectRepository(store)
	repo.Load(ctx)

	return &Service{
		store:     store,
		repo:      repo,
		gateway:   NewGateway(repo, sink, clock, debounce),
		catalog:   domain.DefaultCatalog(),
		startTime: time.Now(),
	}
}

func (s *Service) Gateway() *Gateway { return s.gateway }

func (s *Service) Catalog() domain.Catalog { return s.catalog }

// Derive sizes a record without touching any state
func (s *Service) Derive(r domain.ProjectRecord) (domain.ProjectRecord, domain.DerivedMetrics) {
	r, _ = sizing.Sync(r)
	return r, sizing.Derive(r)
}

// ListProjects returns every project, most recently updated first
func (s *Service) ListProjects() []domain.ProjectRecord {
	return s.repo.ListByRecent()
}

func (s *Service) GetProject(id string) (domain.ProjectRecord, error) {
	return s.gateway.OpenProject(id)
}

// CreateProject adds a project and opens it as a new record
func (s *Service) CreateProject(ctx context.Context, name string) (SessionView, error) {
	p, err := s.gateway.CreateProject(ctx, name)
	if err != nil {
		return SessionView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.openLocked(ctx, p, true)
	return s.viewLocked(), nil
}

// OpenProject opens an existing project. Forward movement is not gated.
func (s *Service) OpenProject(ctx context.Context, id string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// flush the current record first so the reopened copy is current
	if s.session != nil {
		s.session.Close(ctx)
		s.session = nil
	}

	p, err := s.gateway.OpenProject(id)
	if err != nil {
		return SessionView{}, err
	}
	s.openLocked(ctx, p, false)
	return s.viewLocked(), nil
}

func (s *Service) RenameProject(ctx context.Context, id, name string) (domain.ProjectRecord, error) {
	p, err := s.gateway.RenameProject(ctx, id, name)
	if err != nil {
		return domain.ProjectRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil && s.session.Record().ID == id {
		if err := s.session.ApplyField("projectName", p.ProjectName); err != nil {
			logger.Warnf("Rename not applied to open session: %v", err)
		}
	}
	return p, nil
}

func (s *Service) RequestDelete(id string) error {
	return s.gateway.RequestDelete(id)
}

func (s *Service) CancelDelete() {
	s.gateway.CancelDelete()
}

// ConfirmDelete removes the pending project and closes it if open
func (s *Service) ConfirmDelete(ctx context.Context) (string, error) {
	id, err := s.gateway.ConfirmDelete(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.session != nil && s.session.Record().ID == id {
		s.session = nil
	}
	s.mu.Unlock()
	return id, nil
}

// Session returns the open project
func (s *Service) Session() (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return SessionView{}, ErrNoSession
	}
	return s.viewLocked(), nil
}

// ApplyFields applies updates in order and stops at the first failure
func (s *Service) ApplyFields(updates []FieldUpdate) (SessionView, error) {
	return s.withSession(func(ss *wizard.Session) error {
		for _, u := range updates {
			if err := ss.ApplyField(u.Field, u.Value); err != nil {
				return fmt.Errorf("field %s: %w", u.Field, err)
			}
		}
		return nil
	})
}

func (s *Service) AddAppliance() (SessionView, error) {
	return s.withSession(func(ss *wizard.Session) error {
		_, err := ss.AddAppliance()
		return err
	})
}

func (s *Service) UpdateAppliance(id string, updates []FieldUpdate) (SessionView, error) {
	return s.withSession(func(ss *wizard.Session) error {
		for _, u := range updates {
			if err := ss.UpdateAppliance(id, u.Field, u.Value); err != nil {
				return fmt.Errorf("appliance %s: %w", u.Field, err)
			}
		}
		return nil
	})
}

func (s *Service) RemoveAppliance(id string) (SessionView, error) {
	return s.withSession(func(ss *wizard.Session) error {
		return ss.RemoveAppliance(id)
	})
}

func (s *Service) Next() (SessionView, error) {
	return s.withSession(func(ss *wizard.Session) error { return ss.Next() })
}

func (s *Service) Back() (SessionView, error) {
	return s.withSession(func(ss *wizard.Session) error { return ss.Back() })
}

func (s *Service) JumpTo(step wizard.Step) (SessionView, error) {
	return s.withSession(func(ss *wizard.Session) error { return ss.JumpTo(step) })
}

// CloseSession flushes the open project and returns to the list
func (s *Service) CloseSession(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.Close(ctx)
		s.session = nil
	}
}

func (s *Service) Stats() Stats {
	st := Stats{
		Projects: s.repo.Len(),
		Store:    s.store.Type(),
		Gateway:  s.gateway.Stats(),
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
	}

	s.mu.Lock()
	if s.session != nil {
		st.ActiveProject = s.session.Record().ID
	}
	s.mu.Unlock()
	return st
}

// Close flushes everything for shutdown
func (s *Service) Close(ctx context.Context) {
	s.CloseSession(ctx)
	s.gateway.Close(ctx)
}

func (s *Service) openLocked(ctx context.Context, p domain.ProjectRecord, isNew bool) {
	if s.session != nil {
		s.session.Close(ctx)
	}
	s.session = wizard.NewSession(p, isNew, s.gateway)
}

// withSession runs fn on the open session. The view is returned even when
// fn fails so callers can show the unchanged state.
func (s *Service) withSession(fn func(*wizard.Session) error) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return SessionView{}, ErrNoSession
	}
	err := fn(s.session)
	return s.viewLocked(), err
}

func (s *Service) viewLocked() SessionView {
	ss := s.session
	record := ss.Record()
	metrics := ss.Metrics()
	if live, ok := s.repo.Get(record.ID); ok {
		record.LastUpdated = live.LastUpdated
	}

	steps := make([]wizard.Result, 0, len(wizard.Steps()))
	for _, step := range wizard.Steps() {
		steps = append(steps, wizard.ValidateStep(record, metrics, step, ss.IsNew()))
	}

	return SessionView{
		Project:    record,
		Metrics:    metrics,
		Step:       ss.Step(),
		IsNew:      ss.IsNew(),
		Validation: ss.Validation(),
		Steps:      steps,
	}
}
