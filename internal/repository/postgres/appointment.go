package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

type appointmentRow struct {
	model.Base
	model.AppointmentData
}

const appointmentColumns = `a.id, a.version, a.created_at, a.updated_at,
	a.start_time, a.end_time, a.reason, a.pet_id, a.employee_id, a.status`

func (r *appointmentRepository) Insert(ctx context.Context, appointment *model.Appointment) (int64, error) {
	d := appointment.Snapshot()
	b := appointment.Meta()
	query := `
		INSERT INTO appointments (start_time, end_time, reason, pet_id, employee_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.StartTime, d.EndTime, d.Reason, d.PetID, d.EmployeeID, d.Status,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return 0, translate("insert appointment", "appointment", err)
	}
	return b.ID, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var row appointmentRow
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, translate("get appointment", "appointment", err)
	}
	return model.RestoreAppointment(row.Base, row.AppointmentData), nil
}

func (r *appointmentRepository) ListBy(ctx context.Context, scope authz.Scope, f model.AppointmentFilter) ([]*model.Appointment, error) {
	var c conditions
	if f.PetID != 0 {
		c.add("a.pet_id = ?", f.PetID)
	}
	if f.EmployeeID != 0 {
		c.add("a.employee_id = ?", f.EmployeeID)
	}
	if f.Status != "" {
		c.add("a.status = ?", f.Status)
	}
	c.addScope(authz.ResourceAppointment, scope)

	var rows []appointmentRow
	query := `SELECT ` + appointmentColumns + ` FROM appointments a` + c.where() + ` ORDER BY a.start_time, a.id`
	if err := r.db.SelectContext(ctx, &rows, query, c.args...); err != nil {
		return nil, translate("list appointments", "appointment", err)
	}
	out := make([]*model.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.RestoreAppointment(row.Base, row.AppointmentData))
	}
	return out, nil
}

// Update is a single-row compare-and-set, so a status transition either
// lands on the version it was computed from or not at all.
func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) (bool, error) {
	d := appointment.Snapshot()
	b := appointment.Meta()
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, reason = $3, status = $4,
			version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.StartTime, d.EndTime, d.Reason, d.Status, b.ID, b.Version,
	).Scan(&b.Version, &b.UpdatedAt)
	return casResult("update appointment", err)
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, "appointments", id)
}
