package wizard

import (
	"context"
	"errors"
	"fmt"

	"solar_planner/internal/domain"
	"solar_planner/internal/sizing"
)

var (
	ErrStepBlocked = errors.New("step is not complete")
	ErrAtLastStep  = errors.New("already at the last step")
	ErrClosed      = errors.New("session is closed")
)

// Updater receives every edited record and is asked to flush when the
// session ends
type Updater interface {
	UpdateProject(r domain.ProjectRecord)
	Flush(ctx context.Context, id string)
}

// Session drives one record through the wizard. It is not safe for
// concurrent use.
type Session struct {
	record  domain.ProjectRecord
	metrics domain.DerivedMetrics
	step    Step
	isNew   bool
	closed  bool
	updater Updater
}

// NewSession opens r at the first step. isNew enables step gating.
func NewSession(r domain.ProjectRecord, isNew bool, updater Updater) *Session {
	s := &Session{
		record:  r.Clone(),
		step:    ProjectDetails,
		isNew:   isNew,
		updater: updater,
	}
	var changed bool
	s.record, changed = sizing.Sync(s.record)
	s.metrics = sizing.Derive(s.record)
	// stale audit totals are persisted, not just shown
	if changed && updater != nil {
		updater.UpdateProject(s.record.Clone())
	}
	return s
}

func (s *Session) Record() domain.ProjectRecord { return s.record.Clone() }

func (s *Session) Metrics() domain.DerivedMetrics { return s.metrics }

func (s *Session) Step() Step { return s.step }

func (s *Session) IsNew() bool { return s.isNew }

// Validation reports the state of the current step
func (s *Session) Validation() Result {
	return ValidateStep(s.record, s.metrics, s.step, s.isNew)
}

// ApplyField sets one record field from text
func (s *Session) ApplyField(field, raw string) error {
	return s.edit(func(r domain.ProjectRecord) (domain.ProjectRecord, error) {
		return sizing.ApplyFieldUpdate(r, field, raw)
	})
}

// AddAppliance appends an empty appliance line and returns it
func (s *Session) AddAppliance() (domain.ApplianceEntry, error) {
	var entry domain.ApplianceEntry
	err := s.edit(func(r domain.ProjectRecord) (domain.ProjectRecord, error) {
		var out domain.ProjectRecord
		out, entry = sizing.AddAppliance(r)
		return out, nil
	})
	return entry, err
}

func (s *Session) UpdateAppliance(id, field, raw string) error {
	return s.edit(func(r domain.ProjectRecord) (domain.ProjectRecord, error) {
		return sizing.UpdateAppliance(r, id, field, raw)
	})
}

func (s *Session) RemoveAppliance(id string) error {
	return s.edit(func(r domain.ProjectRecord) (domain.ProjectRecord, error) {
		return sizing.RemoveAppliance(r, id)
	})
}

// Next advances one step. A brand-new record must pass the current step
// first; existing records move freely.
func (s *Session) Next() error {
	if s.closed {
		return ErrClosed
	}
	if s.step == Summary {
		return ErrAtLastStep
	}
	if res := s.Validation(); res.Blocking {
		return fmt.Errorf("%w: %s", ErrStepBlocked, res.Message)
	}
	s.step++
	return nil
}

// Back moves one step backwards. It stays put on the first step.
func (s *Session) Back() error {
	if s.closed {
		return ErrClosed
	}
	if s.step > ProjectDetails {
		s.step--
	}
	return nil
}

// JumpTo selects any step regardless of validity
func (s *Session) JumpTo(step Step) error {
	if s.closed {
		return ErrClosed
	}
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}
	s.step = step
	return nil
}

// Close flushes any pending write for the record and ends the session
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true
	if s.updater != nil {
		s.updater.Flush(ctx, s.record.ID)
	}
}

func (s *Session) edit(fn func(domain.ProjectRecord) (domain.ProjectRecord, error)) error {
	if s.closed {
		return ErrClosed
	}

	updated, err := fn(s.record)
	if err != nil {
		return err
	}

	s.record = updated
	s.metrics = sizing.Derive(s.record)
	if s.updater != nil {
		s.updater.UpdateProject(s.record.Clone())
	}
	return nil
}
