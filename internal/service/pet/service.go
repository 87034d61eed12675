package pet

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/service/access"
	"github.com/jwalitptl/vetclinic/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type Service struct {
	repo    repository.PetRepository
	owners  repository.OwnerRepository
	records repository.ClinicalRecordRepository
	guard   *access.Guard
	events  *event.Service
}

func NewService(repos repository.Repositories, guard *access.Guard, events *event.Service) *Service {
	return &Service{
		repo:    repos.Pets,
		owners:  repos.Owners,
		records: repos.ClinicalRecords,
		guard:   guard,
		events:  events,
	}
}

// Register creates a pet for an existing owner. Owners may only register
// pets for themselves.
func (s *Service) Register(ctx context.Context, actor authz.Actor, d model.PetData) (*model.Pet, error) {
	target := &authz.Target{OwnerID: d.OwnerID}
	if _, err := s.guard.Require(ctx, actor, authz.ResourcePet, authz.ActionCreate, target); err != nil {
		return nil, err
	}

	p, err := model.NewPet(d)
	if err != nil {
		return nil, err
	}
	if _, err := s.owners.Get(ctx, d.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if _, err := s.repo.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}

	s.events.Notify(ctx, actor, model.EventPetRegistered, p.ID, p)
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*model.Pet, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	target, err := s.guard.PetTarget(ctx, p)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor, authz.ResourcePet, authz.ActionRead, target); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, actor authz.Actor, filter model.PetFilter) ([]*model.Pet, error) {
	scope, err := s.guard.Scope(ctx, actor, authz.ResourcePet)
	if err != nil {
		return nil, err
	}
	pets, err := s.repo.ListBy(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

// SearchByName matches a case-insensitive substring of the name among the
// pets the actor may see.
func (s *Service) SearchByName(ctx context.Context, actor authz.Actor, name string) ([]*model.Pet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("search name must not be blank")
	}
	return s.List(ctx, actor, model.PetFilter{Name: name})
}

func (s *Service) UpdateWeight(ctx context.Context, actor authz.Actor, id int64, weight float64) (*model.Pet, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	target, err := s.guard.PetTarget(ctx, p)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor, authz.ResourcePet, authz.ActionUpdate, target); err != nil {
		return nil, err
	}
	if err := p.UpdateWeight(weight); err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update pet: %w", err)
	}
	if !ok {
		return nil, apperrors.Stale("pet")
	}

	s.events.Notify(ctx, actor, model.EventPetUpdated, p.ID, p)
	return p, nil
}

// History returns the clinical records of the pet the actor may read, in
// consultation order.
func (s *Service) History(ctx context.Context, actor authz.Actor, id int64) ([]*model.ClinicalRecord, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	scope, err := s.guard.Scope(ctx, actor, authz.ResourceClinicalRecord)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListBy(ctx, scope, model.ClinicalRecordFilter{PetID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}

	byID := make(map[int64]*model.ClinicalRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	history := make([]*model.ClinicalRecord, 0, len(records))
	for _, rid := range p.Consultations() {
		if r, ok := byID[rid]; ok {
			history = append(history, r)
		}
	}
	return history, nil
}
