package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/email"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/service/access"
	"github.com/jwalitptl/vetclinic/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/logger"
	"github.com/jwalitptl/vetclinic/pkg/metrics"
)

type Service struct {
	repo         repository.InvoiceRepository
	records      repository.ClinicalRecordRepository
	appointments repository.AppointmentRepository
	pets         repository.PetRepository
	owners       repository.OwnerRepository
	guard        *access.Guard
	events       *event.Service
	mailer       email.Service
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func NewService(repos repository.Repositories, guard *access.Guard, events *event.Service, mailer email.Service, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:         repos.Invoices,
		records:      repos.ClinicalRecords,
		appointments: repos.Appointments,
		pets:         repos.Pets,
		owners:       repos.Owners,
		guard:        guard,
		events:       events,
		mailer:       mailer,
		metrics:      m,
		logger:       log,
	}
}

// Issue bills a clinical record. The invoice total is computed from the line
// items and the record is linked to the new invoice; a record can be billed
// only once.
func (s *Service) Issue(ctx context.Context, actor authz.Actor, recordID int64, items []model.LineItem, discount, taxRate float64) (*model.Invoice, error) {
	var rec *model.ClinicalRecord
	_, err := s.guard.RequireResolved(ctx, actor, authz.ResourceInvoice, authz.ActionCreate, func() (*authz.Target, error) {
		var err error
		if rec, err = s.records.Get(ctx, recordID); err != nil {
			return nil, fmt.Errorf("failed to get clinical record: %w", err)
		}
		return s.guard.RecordTarget(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	if linked, ok := rec.InvoiceID(); ok {
		return nil, apperrors.AlreadyLinked(fmt.Sprintf("clinical record %d is already billed by invoice %d", rec.ID, linked))
	}

	inv, err := model.NewInvoice(recordID)
	if err != nil {
		return nil, err
	}
	if err := inv.ComputeTotal(items, discount, taxRate); err != nil {
		return nil, err
	}
	if _, err := s.repo.Insert(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	if err := s.link(ctx, rec, inv.ID); err != nil {
		if _, delErr := s.repo.Delete(ctx, inv.ID); delErr != nil {
			s.logger.Error(delErr, "failed to remove unlinked invoice", "invoice_id", inv.ID)
		}
		return nil, err
	}

	s.metrics.InvoicesIssued.Inc()
	s.events.Notify(ctx, actor, model.EventInvoiceIssued, inv.ID, inv)
	return inv, nil
}

func (s *Service) link(ctx context.Context, rec *model.ClinicalRecord, invoiceID int64) error {
	if err := rec.LinkInvoice(invoiceID); err != nil {
		return err
	}
	ok, err := s.records.Update(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to link clinical record: %w", err)
	}
	if !ok {
		return apperrors.Stale("clinical record")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*model.Invoice, error) {
	return s.load(ctx, actor, id, authz.ActionRead)
}

func (s *Service) List(ctx context.Context, actor authz.Actor, filter model.InvoiceFilter) ([]*model.Invoice, error) {
	scope, err := s.guard.Scope(ctx, actor, authz.ResourceInvoice)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.ListBy(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// Recalculate replaces the line items and recomputes the total.
func (s *Service) Recalculate(ctx context.Context, actor authz.Actor, id int64, items []model.LineItem, discount, taxRate float64) (*model.Invoice, error) {
	return s.update(ctx, actor, id, model.EventInvoiceUpdated, func(inv *model.Invoice) error {
		return inv.ComputeTotal(items, discount, taxRate)
	})
}

// RegisterPayment records how and when the invoice was paid; a zero time
// means now.
func (s *Service) RegisterPayment(ctx context.Context, actor authz.Actor, id int64, method string, at time.Time) (*model.Invoice, error) {
	return s.update(ctx, actor, id, model.EventInvoicePaid, func(inv *model.Invoice) error {
		return inv.RegisterPayment(method, at)
	})
}

// Send mails the invoice summary to the owner of the billed pet.
func (s *Service) Send(ctx context.Context, actor authz.Actor, id int64) error {
	inv, err := s.load(ctx, actor, id, authz.ActionRead)
	if err != nil {
		return err
	}
	owner, err := s.ownerOf(ctx, inv)
	if err != nil {
		return err
	}
	to := strings.TrimSpace(owner.Person().Email)
	if to == "" {
		return apperrors.Validationf("owner %d has no email address", owner.ID)
	}

	subject := fmt.Sprintf("Invoice #%d", inv.ID)
	if err := s.mailer.SendCustom(ctx, to, subject, inv.Summary()); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to send invoice: %w", err))
	}

	s.events.Notify(ctx, actor, model.EventInvoiceSent, inv.ID, map[string]interface{}{"to": to})
	return nil
}

func (s *Service) ownerOf(ctx context.Context, inv *model.Invoice) (*model.Owner, error) {
	rec, err := s.records.Get(ctx, inv.ClinicalRecordID())
	if err != nil {
		return nil, fmt.Errorf("failed to get clinical record: %w", err)
	}
	appt, err := s.appointments.Get(ctx, rec.AppointmentID())
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	pet, err := s.pets.Get(ctx, appt.PetID())
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	owner, err := s.owners.Get(ctx, pet.OwnerID())
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return owner, nil
}

func (s *Service) load(ctx context.Context, actor authz.Actor, id int64, action authz.Action) (*model.Invoice, error) {
	var inv *model.Invoice
	_, err := s.guard.RequireResolved(ctx, actor, authz.ResourceInvoice, action, func() (*authz.Target, error) {
		var err error
		if inv, err = s.repo.Get(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to get invoice: %w", err)
		}
		return s.guard.InvoiceTarget(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) update(ctx context.Context, actor authz.Actor, id int64, eventType string, mutate func(*model.Invoice) error) (*model.Invoice, error) {
	inv, err := s.load(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := mutate(inv); err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	if !ok {
		return nil, apperrors.Stale("invoice")
	}

	s.events.Notify(ctx, actor, eventType, inv.ID, inv)
	return inv, nil
}
