package employee

import (
	"context"
	"fmt"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/service/access"
	"github.com/jwalitptl/vetclinic/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type Service struct {
	repo   repository.EmployeeRepository
	guard  *access.Guard
	events *event.Service
	hasher model.SecretHasher
}

func NewService(repo repository.EmployeeRepository, guard *access.Guard, events *event.Service, hasher model.SecretHasher) *Service {
	return &Service{
		repo:   repo,
		guard:  guard,
		events: events,
		hasher: hasher,
	}
}

func (s *Service) Hire(ctx context.Context, actor authz.Actor, p model.Person, baseSalary float64, details model.RoleDetails) (*model.Employee, error) {
	if _, err := s.guard.Require(ctx, actor, authz.ResourceEmployee, authz.ActionCreate, nil); err != nil {
		return nil, err
	}

	e, err := model.NewEmployee(p, baseSalary, details)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	s.events.Notify(ctx, actor, model.EventEmployeeHired, e.ID, e)
	return e, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*model.Employee, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if _, err := s.guard.Require(ctx, actor, authz.ResourceEmployee, authz.ActionRead, access.EmployeeTarget(e)); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, actor authz.Actor) ([]*model.Employee, error) {
	scope, err := s.guard.Scope(ctx, actor, authz.ResourceEmployee)
	if err != nil {
		return nil, err
	}
	employees, err := s.repo.ListBy(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

func (s *Service) UpdateSalary(ctx context.Context, actor authz.Actor, id int64, newBase float64) (*model.Employee, error) {
	return s.update(ctx, actor, id, func(e *model.Employee) error {
		return e.UpdateSalary(newBase)
	})
}

func (s *Service) UpdateContact(ctx context.Context, actor authz.Actor, id int64, u model.ContactUpdate) (*model.Employee, error) {
	return s.update(ctx, actor, id, func(e *model.Employee) error {
		return e.UpdateContact(u)
	})
}

// RegisterCredentials sets the login of an employee. Usernames are unique
// across employees.
func (s *Service) RegisterCredentials(ctx context.Context, actor authz.Actor, id int64, username, secret string) (*model.Employee, error) {
	return s.update(ctx, actor, id, func(e *model.Employee) error {
		return e.RegisterCredentials(username, secret, s.hasher)
	})
}

func (s *Service) update(ctx context.Context, actor authz.Actor, id int64, mutate func(*model.Employee) error) (*model.Employee, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if _, err := s.guard.Require(ctx, actor, authz.ResourceEmployee, authz.ActionUpdate, access.EmployeeTarget(e)); err != nil {
		return nil, err
	}
	if err := mutate(e); err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	if !ok {
		return nil, apperrors.Stale("employee")
	}

	s.events.Notify(ctx, actor, model.EventEmployeeUpdated, e.ID, e)
	return e, nil
}
