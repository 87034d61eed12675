package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/vetclinic/internal/config"
	"github.com/jwalitptl/vetclinic/internal/repository"
)

//go:embed schema.sql
var schema string

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return Connect(cfg.DSN())
}

// Connect opens and pings a lib/pq connection for dsn.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the clinic tables when they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// NewRepositories returns every repository backed by db. cipher may be nil
// to store clinical text in the clear.
func NewRepositories(db *sqlx.DB, cipher FieldCipher) repository.Repositories {
	return repository.Repositories{
		Owners:          NewOwnerRepository(db),
		Pets:            NewPetRepository(db),
		Employees:       NewEmployeeRepository(db),
		Appointments:    NewAppointmentRepository(db),
		ClinicalRecords: NewClinicalRecordRepository(db, cipher),
		Invoices:        NewInvoiceRepository(db),
		Audit:           NewAuditRepository(db),
		Outbox:          NewOutboxRepository(db),
	}
}
