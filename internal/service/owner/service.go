package owner

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
	repo   repository.OwnerRepository
	guard  *access.Guard
	events *event.Service
}

func NewService(repo repository.OwnerRepository, guard *access.Guard, events *event.Service) *Service {
	return &Service{
		repo:   repo,
		guard:  guard,
		events: events,
	}
}

func (s *Service) Register(ctx context.Context, actor authz.Actor, p model.Person, address string) (*model.Owner, error) {
	if _, err := s.guard.Require(ctx, actor, authz.ResourceOwner, authz.ActionCreate, nil); err != nil {
		return nil, err
	}

	o, err := model.NewOwner(p, address)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Insert(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}

	s.events.Notify(ctx, actor, model.EventOwnerRegistered, o.ID, o)
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*model.Owner, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if _, err := s.guard.Require(ctx, actor, authz.ResourceOwner, authz.ActionRead, access.OwnerTarget(o)); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, actor authz.Actor) ([]*model.Owner, error) {
	scope, err := s.guard.Scope(ctx, actor, authz.ResourceOwner)
	if err != nil {
		return nil, err
	}
	owners, err := s.repo.ListBy(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}

func (s *Service) UpdateContact(ctx context.Context, actor authz.Actor, id int64, u model.ContactUpdate) (*model.Owner, error) {
	return s.update(ctx, actor, id, func(o *model.Owner) error {
		return o.UpdateContact(u)
	})
}

func (s *Service) UpdateAddress(ctx context.Context, actor authz.Actor, id int64, address string) (*model.Owner, error) {
	return s.update(ctx, actor, id, func(o *model.Owner) error {
		return o.UpdateAddress(address)
	})
}

func (s *Service) update(ctx context.Context, actor authz.Actor, id int64, mutate func(*model.Owner) error) (*model.Owner, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if _, err := s.guard.Require(ctx, actor, authz.ResourceOwner, authz.ActionUpdate, access.OwnerTarget(o)); err != nil {
		return nil, err
	}
	if err := mutate(o); err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to update owner: %w", err)
	}
	if !ok {
		return nil, apperrors.Stale("owner")
	}

	s.events.Notify(ctx, actor, model.EventOwnerUpdated, o.ID, o)
	return o, nil
}
