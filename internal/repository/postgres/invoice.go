package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type invoiceRepository struct {
	BaseRepository
}

func NewInvoiceRepository(db *sqlx.DB) repository.InvoiceRepository {
	return &invoiceRepository{NewBaseRepository(db)}
}

type invoiceRow struct {
	model.Base
	model.InvoiceData
	ItemsJSON []byte `db:"items"`
}

func (row invoiceRow) toModel() (*model.Invoice, error) {
	if len(row.ItemsJSON) > 0 {
		if err := json.Unmarshal(row.ItemsJSON, &row.Items); err != nil {
			return nil, apperrors.Repository("decode invoice items", err)
		}
	}
	return model.RestoreInvoice(row.Base, row.InvoiceData), nil
}

const invoiceColumns = `i.id, i.version, i.created_at, i.updated_at,
	i.clinical_record_id, i.items, i.discount, i.tax_rate, i.total, i.payment_method, i.paid_at`

func encodeItems(items []model.LineItem) (string, error) {
	if items == nil {
		items = []model.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", apperrors.Repository("encode invoice items", err)
	}
	return string(raw), nil
}

func (r *invoiceRepository) Insert(ctx context.Context, invoice *model.Invoice) (int64, error) {
	d := invoice.Snapshot()
	b := invoice.Meta()
	items, err := encodeItems(d.Items)
	if err != nil {
		return 0, err
	}
	query := `
		INSERT INTO invoices (clinical_record_id, items, discount, tax_rate, total, payment_method, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, version, created_at, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query,
		d.ClinicalRecordID, items, d.Discount, d.TaxRate, d.Total, d.PaymentMethod, d.PaidAt,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if isUniqueViolation(err) {
		return 0, apperrors.AlreadyLinked("clinical record already has an invoice")
	}
	if err != nil {
		return 0, translate("insert invoice", "invoice", err)
	}
	return b.ID, nil
}

func (r *invoiceRepository) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	var row invoiceRow
	query := `SELECT ` + invoiceColumns + ` FROM invoices i WHERE i.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, translate("get invoice", "invoice", err)
	}
	return row.toModel()
}

func (r *invoiceRepository) ListBy(ctx context.Context, scope authz.Scope, f model.InvoiceFilter) ([]*model.Invoice, error) {
	var c conditions
	if f.ClinicalRecordID != 0 {
		c.add("i.clinical_record_id = ?", f.ClinicalRecordID)
	}
	if f.Paid != nil {
		if *f.Paid {
			c.add("i.paid_at IS NOT NULL")
		} else {
			c.add("i.paid_at IS NULL")
		}
	}
	c.addScope(authz.ResourceInvoice, scope)

	var rows []invoiceRow
	query := `SELECT ` + invoiceColumns + ` FROM invoices i` + c.where() + ` ORDER BY i.id`
	if err := r.db.SelectContext(ctx, &rows, query, c.args...); err != nil {
		return nil, translate("list invoices", "invoice", err)
	}
	out := make([]*model.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// Update writes the total and payment of an invoice as one row.
func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) (bool, error) {
	d := invoice.Snapshot()
	b := invoice.Meta()
	items, err := encodeItems(d.Items)
	if err != nil {
		return false, err
	}
	query := `
		UPDATE invoices
		SET items = $1, discount = $2, tax_rate = $3, total = $4,
			payment_method = $5, paid_at = $6,
			version = version + 1, updated_at = NOW()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query,
		items, d.Discount, d.TaxRate, d.Total, d.PaymentMethod, d.PaidAt, b.ID, b.Version,
	).Scan(&b.Version, &b.UpdatedAt)
	return casResult("update invoice", err)
}

func (r *invoiceRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, "invoices", id)
}
