package clinical

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
	"github.com/jwalitptl/vetclinic/pkg/logger"
)

// attempts at appending a consultation to the pet when the pet row keeps
// changing underneath.
const consultationAttempts = 3

type Service struct {
	repo         repository.ClinicalRecordRepository
	appointments repository.AppointmentRepository
	pets         repository.PetRepository
	guard        *access.Guard
	events       *event.Service
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(repos repository.Repositories, guard *access.Guard, events *event.Service, log *logger.Logger) *Service {
	return &Service{
		repo:         repos.ClinicalRecords,
		appointments: repos.Appointments,
		pets:         repos.Pets,
		guard:        guard,
		events:       events,
		logger:       log,
		now:          time.Now,
	}
}

// Open creates the clinical record of an appointment and appends it to the
// pet's consultation history.
func (s *Service) Open(ctx context.Context, actor authz.Actor, appointmentID int64, diagnosis, treatment, observations string) (*model.ClinicalRecord, error) {
	var appt *model.Appointment
	_, err := s.guard.RequireResolved(ctx, actor, authz.ResourceClinicalRecord, authz.ActionCreate, func() (*authz.Target, error) {
		var err error
		if appt, err = s.appointments.Get(ctx, appointmentID); err != nil {
			return nil, fmt.Errorf("failed to get appointment: %w", err)
		}
		return s.guard.AppointmentTarget(ctx, appt)
	})
	if err != nil {
		return nil, err
	}
	if appt.Status() == model.AppointmentStatusCancelled {
		return nil, apperrors.IllegalState("appointment is cancelled")
	}

	rec, err := model.NewClinicalRecord(appointmentID, diagnosis, treatment, observations, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create clinical record: %w", err)
	}

	if err := s.appendConsultation(ctx, appt.PetID(), rec.ID); err != nil {
		if _, delErr := s.repo.Delete(ctx, rec.ID); delErr != nil {
			s.logger.Error(delErr, "failed to remove orphaned clinical record", "record_id", rec.ID)
		}
		return nil, err
	}

	s.events.Notify(ctx, actor, model.EventRecordOpened, rec.ID, rec)
	return rec, nil
}

func (s *Service) appendConsultation(ctx context.Context, petID, recordID int64) error {
	for i := 0; i < consultationAttempts; i++ {
		pet, err := s.pets.Get(ctx, petID)
		if err != nil {
			return fmt.Errorf("failed to get pet: %w", err)
		}
		if err := pet.RegisterConsultation(recordID); err != nil {
			return err
		}
		ok, err := s.pets.Update(ctx, pet)
		if err != nil {
			return fmt.Errorf("failed to update pet: %w", err)
		}
		if ok {
			return nil
		}
	}
	return apperrors.Stale("pet")
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*model.ClinicalRecord, error) {
	return s.load(ctx, actor, id, authz.ActionRead)
}

func (s *Service) List(ctx context.Context, actor authz.Actor, filter model.ClinicalRecordFilter) ([]*model.ClinicalRecord, error) {
	scope, err := s.guard.Scope(ctx, actor, authz.ResourceClinicalRecord)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListBy(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}
	return records, nil
}

func (s *Service) RegisterDiagnosis(ctx context.Context, actor authz.Actor, id int64, text string) (*model.ClinicalRecord, error) {
	return s.update(ctx, actor, id, func(r *model.ClinicalRecord) error {
		return r.RegisterDiagnosis(text)
	})
}

func (s *Service) UpdateTreatment(ctx context.Context, actor authz.Actor, id int64, text string) (*model.ClinicalRecord, error) {
	return s.update(ctx, actor, id, func(r *model.ClinicalRecord) error {
		return r.UpdateTreatment(text)
	})
}

func (s *Service) AddObservation(ctx context.Context, actor authz.Actor, id int64, text string) (*model.ClinicalRecord, error) {
	return s.update(ctx, actor, id, func(r *model.ClinicalRecord) error {
		return r.AddObservation(text)
	})
}

func (s *Service) load(ctx context.Context, actor authz.Actor, id int64, action authz.Action) (*model.ClinicalRecord, error) {
	var rec *model.ClinicalRecord
	_, err := s.guard.RequireResolved(ctx, actor, authz.ResourceClinicalRecord, action, func() (*authz.Target, error) {
		var err error
		if rec, err = s.repo.Get(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to get clinical record: %w", err)
		}
		return s.guard.RecordTarget(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) update(ctx context.Context, actor authz.Actor, id int64, mutate func(*model.ClinicalRecord) error) (*model.ClinicalRecord, error) {
	rec, err := s.load(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := mutate(rec); err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to update clinical record: %w", err)
	}
	if !ok {
		return nil, apperrors.Stale("clinical record")
	}

	s.events.Notify(ctx, actor, model.EventRecordUpdated, rec.ID, rec)
	return rec, nil
}
