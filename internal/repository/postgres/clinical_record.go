package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

// FieldCipher encrypts clinical text columns at rest.
type FieldCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(value string) (string, error)
}

type clinicalRecordRepository struct {
	BaseRepository
	cipher FieldCipher
}

// NewClinicalRecordRepository stores diagnosis, treatment and observations
// encrypted when cipher is non-nil.
func NewClinicalRecordRepository(db *sqlx.DB, cipher FieldCipher) repository.ClinicalRecordRepository {
	return &clinicalRecordRepository{BaseRepository: NewBaseRepository(db), cipher: cipher}
}

type clinicalRecordRow struct {
	model.Base
	model.ClinicalRecordData
}

const clinicalRecordColumns = `r.id, r.version, r.created_at, r.updated_at,
	r.appointment_id, r.diagnosis, r.treatment, r.observations, r.registered_at, r.invoice_id`

func (r *clinicalRecordRepository) seal(d *model.ClinicalRecordData) error {
	if r.cipher == nil {
		return nil
	}
	for _, f := range []*string{&d.Diagnosis, &d.Treatment, &d.Observations} {
		enc, err := r.cipher.Encrypt(*f)
		if err != nil {
			return apperrors.Repository("encrypt clinical record", err)
		}
		*f = enc
	}
	return nil
}

func (r *clinicalRecordRepository) open(row clinicalRecordRow) (*model.ClinicalRecord, error) {
	if r.cipher != nil {
		d := &row.ClinicalRecordData
		for _, f := range []*string{&d.Diagnosis, &d.Treatment, &d.Observations} {
			plain, err := r.cipher.Decrypt(*f)
			if err != nil {
				return nil, apperrors.Repository("decrypt clinical record", err)
			}
			*f = plain
		}
	}
	return model.RestoreClinicalRecord(row.Base, row.ClinicalRecordData), nil
}

func (r *clinicalRecordRepository) Insert(ctx context.Context, record *model.ClinicalRecord) (int64, error) {
	d := record.Snapshot()
	if err := r.seal(&d); err != nil {
		return 0, err
	}
	b := record.Meta()
	query := `
		INSERT INTO clinical_records (appointment_id, diagnosis, treatment, observations, registered_at, invoice_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.AppointmentID, d.Diagnosis, d.Treatment, d.Observations, d.RegisteredAt, d.InvoiceID,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return 0, translate("insert clinical record", "clinical record", err)
	}
	return b.ID, nil
}

func (r *clinicalRecordRepository) Get(ctx context.Context, id int64) (*model.ClinicalRecord, error) {
	var row clinicalRecordRow
	query := `SELECT ` + clinicalRecordColumns + ` FROM clinical_records r WHERE r.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, translate("get clinical record", "clinical record", err)
	}
	return r.open(row)
}

func (r *clinicalRecordRepository) ListBy(ctx context.Context, scope authz.Scope, f model.ClinicalRecordFilter) ([]*model.ClinicalRecord, error) {
	var c conditions
	if f.AppointmentID != 0 {
		c.add("r.appointment_id = ?", f.AppointmentID)
	}
	if f.PetID != 0 {
		c.add("EXISTS (SELECT 1 FROM appointments fa WHERE fa.id = r.appointment_id AND fa.pet_id = ?)", f.PetID)
	}
	c.addScope(authz.ResourceClinicalRecord, scope)

	var rows []clinicalRecordRow
	query := `SELECT ` + clinicalRecordColumns + ` FROM clinical_records r` + c.where() + ` ORDER BY r.registered_at, r.id`
	if err := r.db.SelectContext(ctx, &rows, query, c.args...); err != nil {
		return nil, translate("list clinical records", "clinical record", err)
	}
	out := make([]*model.ClinicalRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := r.open(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update never clears an invoice link once stored.
func (r *clinicalRecordRepository) Update(ctx context.Context, record *model.ClinicalRecord) (bool, error) {
	d := record.Snapshot()
	if err := r.seal(&d); err != nil {
		return false, err
	}
	b := record.Meta()
	query := `
		UPDATE clinical_records
		SET diagnosis = $1, treatment = $2, observations = $3,
			invoice_id = COALESCE(invoice_id, $4),
			version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.Diagnosis, d.Treatment, d.Observations, d.InvoiceID, b.ID, b.Version,
	).Scan(&b.Version, &b.UpdatedAt)
	return casResult("update clinical record", err)
}

func (r *clinicalRecordRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, "clinical_records", id)
}
