package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/service/access"
	"github.com/jwalitptl/vetclinic/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/metrics"
)

type Service struct {
	repo      repository.AppointmentRepository
	pets      repository.PetRepository
	employees repository.EmployeeRepository
	guard     *access.Guard
	events    *event.Service
	metrics   *metrics.Metrics
}

func NewService(repos repository.Repositories, guard *access.Guard, events *event.Service, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repos.Appointments,
		pets:      repos.Pets,
		employees: repos.Employees,
		guard:     guard,
		events:    events,
		metrics:   m,
	}
}

// Schedule books a pending appointment. No overlap check is made against the
// employee's other appointments.
func (s *Service) Schedule(ctx context.Context, actor authz.Actor, start time.Time, reason string, petID, employeeID int64) (*model.Appointment, error) {
	_, err := s.guard.RequireResolved(ctx, actor, authz.ResourceAppointment, authz.ActionCreate, func() (*authz.Target, error) {
		pet, err := s.pets.Get(ctx, petID)
		if err != nil {
			return nil, fmt.Errorf("failed to get pet: %w", err)
		}
		return &authz.Target{OwnerID: pet.OwnerID(), EmployeeIDs: []int64{employeeID}}, nil
	})
	if err != nil {
		return nil, err
	}

	a, err := model.NewAppointment(start, reason, petID, employeeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.employees.Get(ctx, employeeID); err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if _, err := s.repo.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.metrics.AppointmentTransitions.WithLabelValues(string(model.AppointmentStatusPending)).Inc()
	s.events.Notify(ctx, actor, model.EventAppointmentScheduled, a.ID, a)
	return a, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*model.Appointment, error) {
	return s.load(ctx, actor, id, authz.ActionRead)
}

func (s *Service) List(ctx context.Context, actor authz.Actor, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	scope, err := s.guard.Scope(ctx, actor, authz.ResourceAppointment)
	if err != nil {
		return nil, err
	}
	appts, err := s.repo.ListBy(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) Reschedule(ctx context.Context, actor authz.Actor, id int64, start time.Time) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.EventAppointmentRescheduled, func(a *model.Appointment) error {
		return a.Reschedule(start)
	})
}

// Cancel is idempotent: an already cancelled appointment is returned as is.
func (s *Service) Cancel(ctx context.Context, actor authz.Actor, id int64) (*model.Appointment, error) {
	a, err := s.load(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if a.Status() == model.AppointmentStatusCancelled {
		return a, nil
	}
	if err := a.Cancel(); err != nil {
		return nil, err
	}
	return s.save(ctx, actor, a, model.EventAppointmentCancelled)
}

// Complete marks the appointment done at the clock time of end.
func (s *Service) Complete(ctx context.Context, actor authz.Actor, id int64, end time.Time) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.EventAppointmentCompleted, func(a *model.Appointment) error {
		return a.Complete(end)
	})
}

func (s *Service) Duration(ctx context.Context, actor authz.Actor, id int64) (time.Duration, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return 0, err
	}
	return a.Duration()
}

func (s *Service) load(ctx context.Context, actor authz.Actor, id int64, action authz.Action) (*model.Appointment, error) {
	var a *model.Appointment
	_, err := s.guard.RequireResolved(ctx, actor, authz.ResourceAppointment, action, func() (*authz.Target, error) {
		var err error
		if a, err = s.repo.Get(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to get appointment: %w", err)
		}
		return s.guard.AppointmentTarget(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) transition(ctx context.Context, actor authz.Actor, id int64, eventType string, mutate func(*model.Appointment) error) (*model.Appointment, error) {
	a, err := s.load(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := mutate(a); err != nil {
		return nil, err
	}
	return s.save(ctx, actor, a, eventType)
}

func (s *Service) save(ctx context.Context, actor authz.Actor, a *model.Appointment, eventType string) (*model.Appointment, error) {
	ok, err := s.repo.Update(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	if !ok {
		return nil, apperrors.Stale("appointment")
	}

	s.metrics.AppointmentTransitions.WithLabelValues(string(a.Status())).Inc()
	s.events.Notify(ctx, actor, eventType, a.ID, a)
	return a, nil
}
