package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
)

// All repository interfaces in one file.
//
// Insert assigns ID, Version and timestamps on the entity. Get returns a
// NotFound error when the row is absent. ListBy filters by the authorization
// scope in the store itself. Update is a compare-and-set on (ID, Version) and
// reports false when no row matched; on success the entity's Version is
// bumped. Delete reports whether a row was removed.
type (
	OwnerRepository interface {
		Insert(ctx context.Context, owner *model.Owner) (int64, error)
		Get(ctx context.Context, id int64) (*model.Owner, error)
		ListBy(ctx context.Context, scope authz.Scope) ([]*model.Owner, error)
		Update(ctx context.Context, owner *model.Owner) (bool, error)
		Delete(ctx context.Context, id int64) (bool, error)
	}

	PetRepository interface {
		Insert(ctx context.Context, pet *model.Pet) (int64, error)
		Get(ctx context.Context, id int64) (*model.Pet, error)
		ListBy(ctx context.Context, scope authz.Scope, filter model.PetFilter) ([]*model.Pet, error)
		Update(ctx context.Context, pet *model.Pet) (bool, error)
		Delete(ctx context.Context, id int64) (bool, error)
	}

	EmployeeRepository interface {
		Insert(ctx context.Context, employee *model.Employee) (int64, error)
		Get(ctx context.Context, id int64) (*model.Employee, error)
		GetByUsername(ctx context.Context, username string) (*model.Employee, error)
		ListBy(ctx context.Context, scope authz.Scope) ([]*model.Employee, error)
		Update(ctx context.Context, employee *model.Employee) (bool, error)
		Delete(ctx context.Context, id int64) (bool, error)
	}

	AppointmentRepository interface {
		Insert(ctx context.Context, appointment *model.Appointment) (int64, error)
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		ListBy(ctx context.Context, scope authz.Scope, filter model.AppointmentFilter) ([]*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) (bool, error)
		Delete(ctx context.Context, id int64) (bool, error)
	}

	ClinicalRecordRepository interface {
		Insert(ctx context.Context, record *model.ClinicalRecord) (int64, error)
		Get(ctx context.Context, id int64) (*model.ClinicalRecord, error)
		ListBy(ctx context.Context, scope authz.Scope, filter model.ClinicalRecordFilter) ([]*model.ClinicalRecord, error)
		Update(ctx context.Context, record *model.ClinicalRecord) (bool, error)
		Delete(ctx context.Context, id int64) (bool, error)
	}

	InvoiceRepository interface {
		Insert(ctx context.Context, invoice *model.Invoice) (int64, error)
		Get(ctx context.Context, id int64) (*model.Invoice, error)
		ListBy(ctx context.Context, scope authz.Scope, filter model.InvoiceFilter) ([]*model.Invoice, error)
		Update(ctx context.Context, invoice *model.Invoice) (bool, error)
		Delete(ctx context.Context, id int64) (bool, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.AuditLogFilter) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkAsProcessed(ctx context.Context, id uuid.UUID) error
		MarkAsFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)

// Repositories bundles one implementation of every repository so callers can
// switch stores in one place.
type Repositories struct {
	Owners          OwnerRepository
	Pets            PetRepository
	Employees       EmployeeRepository
	Appointments    AppointmentRepository
	ClinicalRecords ClinicalRecordRepository
	Invoices        InvoiceRepository
	Audit           AuditRepository
	Outbox          OutboxRepository
}
