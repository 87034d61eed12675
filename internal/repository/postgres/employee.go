package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type employeeRepository struct {
	BaseRepository
}

func NewEmployeeRepository(db *sqlx.DB) repository.EmployeeRepository {
	return &employeeRepository{NewBaseRepository(db)}
}

type employeeRow struct {
	model.Base
	model.EmployeeData
	DetailsJSON []byte `db:"details"`
}

func (row employeeRow) toModel() (*model.Employee, error) {
	details, err := model.DecodeRoleDetails(row.Role, row.DetailsJSON)
	if err != nil {
		return nil, apperrors.Repository("decode employee", err)
	}
	row.Details = details
	return model.RestoreEmployee(row.Base, row.EmployeeData), nil
}

const employeeColumns = `e.id, e.version, e.created_at, e.updated_at,
	e.name, e.national_id, e.phone, e.email, e.birth_date,
	e.role, e.base_salary, COALESCE(e.username, '') AS username, e.secret_hash, e.details`

// marshalDetails renders the role payload as text; lib/pq would send a
// []byte parameter as bytea, which jsonb rejects.
func marshalDetails(d model.RoleDetails) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode employee details: %w", err)
	}
	return string(raw), nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *employeeRepository) Insert(ctx context.Context, employee *model.Employee) (int64, error) {
	d := employee.Snapshot()
	b := employee.Meta()
	details, err := marshalDetails(d.Details)
	if err != nil {
		return 0, apperrors.Repository("insert employee", err)
	}
	query := `
		INSERT INTO employees (name, national_id, phone, email, birth_date,
			role, base_salary, username, secret_hash, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, version, created_at, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query,
		d.Name, d.NationalID, d.Phone, d.Email, d.BirthDate,
		d.Role, d.BaseSalary, nullString(d.Username), d.SecretHash, details,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return 0, translate("insert employee", "employee", err)
	}
	return b.ID, nil
}

func (r *employeeRepository) Get(ctx context.Context, id int64) (*model.Employee, error) {
	return r.getOne(ctx, `e.id = $1`, id)
}

func (r *employeeRepository) GetByUsername(ctx context.Context, username string) (*model.Employee, error) {
	return r.getOne(ctx, `e.username = $1`, username)
}

func (r *employeeRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Employee, error) {
	var row employeeRow
	query := `SELECT ` + employeeColumns + ` FROM employees e WHERE ` + where
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		return nil, translate("get employee", "employee", err)
	}
	return row.toModel()
}

func (r *employeeRepository) ListBy(ctx context.Context, scope authz.Scope) ([]*model.Employee, error) {
	var c conditions
	c.addScope(authz.ResourceEmployee, scope)

	var rows []employeeRow
	query := `SELECT ` + employeeColumns + ` FROM employees e` + c.where() + ` ORDER BY e.id`
	if err := r.db.SelectContext(ctx, &rows, query, c.args...); err != nil {
		return nil, translate("list employees", "employee", err)
	}
	out := make([]*model.Employee, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *employeeRepository) Update(ctx context.Context, employee *model.Employee) (bool, error) {
	d := employee.Snapshot()
	b := employee.Meta()
	details, err := marshalDetails(d.Details)
	if err != nil {
		return false, apperrors.Repository("update employee", err)
	}
	query := `
		UPDATE employees
		SET name = $1, phone = $2, email = $3, base_salary = $4,
			username = $5, secret_hash = $6, details = $7,
			version = version + 1, updated_at = NOW()
		WHERE id = $8 AND version = $9
		RETURNING version, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query,
		d.Name, d.Phone, d.Email, d.BaseSalary,
		nullString(d.Username), d.SecretHash, details, b.ID, b.Version,
	).Scan(&b.Version, &b.UpdatedAt)
	return casResult("update employee", err)
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, "employees", id)
}
