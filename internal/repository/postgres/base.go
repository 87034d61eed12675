package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/vetclinic/internal/authz"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Repository("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Repository("commit transaction", err)
	}
	return nil
}

// translate maps driver errors onto the application error kinds.
func translate(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, nil)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "foreign_key_violation":
			return apperrors.NotFound("referenced row", pqErr)
		case "unique_violation":
			return apperrors.Validationf("%s already exists", resource)
		case "check_violation":
			return apperrors.Validationf("invalid %s: %s", resource, pqErr.Constraint)
		}
	}
	return apperrors.Repository(op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

// nullTime stores a zero time as NULL.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// conditions accumulates WHERE clauses with numbered placeholders. A "?" in
// a clause is replaced by the next $n.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, args ...interface{}) {
	for _, a := range args {
		c.args = append(c.args, a)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// scopeClauses holds, per resource kind, the SQL predicate for each scope
// kind. Aliases: o owners, e employees, p pets, a appointments,
// r clinical_records, i invoices.
var scopeClauses = map[authz.ResourceKind]map[authz.ScopeKind]string{
	authz.ResourceOwner: {
		authz.ScopeSelf:  "o.id = ?",
		authz.ScopeOwned: "o.id = ?",
	},
	authz.ResourceEmployee: {
		authz.ScopeSelf:     "e.id = ?",
		authz.ScopeAssigned: "e.id = ?",
	},
	authz.ResourcePet: {
		authz.ScopeOwned:    "p.owner_id = ?",
		authz.ScopeAssigned: "EXISTS (SELECT 1 FROM appointments sa WHERE sa.pet_id = p.id AND sa.employee_id = ?)",
	},
	authz.ResourceAppointment: {
		authz.ScopeAssigned: "a.employee_id = ?",
		authz.ScopeOwned:    "EXISTS (SELECT 1 FROM pets sp WHERE sp.id = a.pet_id AND sp.owner_id = ?)",
	},
	authz.ResourceClinicalRecord: {
		authz.ScopeAssigned: "EXISTS (SELECT 1 FROM appointments sa WHERE sa.id = r.appointment_id AND sa.employee_id = ?)",
		authz.ScopeOwned: `EXISTS (SELECT 1 FROM appointments sa JOIN pets sp ON sp.id = sa.pet_id
			WHERE sa.id = r.appointment_id AND sp.owner_id = ?)`,
	},
	authz.ResourceInvoice: {
		authz.ScopeAssigned: `EXISTS (SELECT 1 FROM clinical_records sr JOIN appointments sa ON sa.id = sr.appointment_id
			WHERE sr.id = i.clinical_record_id AND sa.employee_id = ?)`,
		authz.ScopeOwned: `EXISTS (SELECT 1 FROM clinical_records sr JOIN appointments sa ON sa.id = sr.appointment_id
			JOIN pets sp ON sp.id = sa.pet_id WHERE sr.id = i.clinical_record_id AND sp.owner_id = ?)`,
	},
}

// addScope narrows the query to the rows the scope admits. Scopes with no
// translation for the kind admit nothing.
func (c *conditions) addScope(kind authz.ResourceKind, s authz.Scope) {
	switch s.Kind {
	case authz.ScopeAll:
		return
	case authz.ScopeNone:
		c.add("FALSE")
		return
	}
	clause, ok := scopeClauses[kind][s.Kind]
	if !ok {
		c.add("FALSE")
		return
	}
	c.add(clause, s.SubjectID)
}

// casResult interprets the outcome of an UPDATE ... WHERE id AND version
// RETURNING statement.
func casResult(op string, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, translate(op, "row", err)
}

func (r *BaseRepository) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return false, translate("delete from "+table, table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, translate("delete from "+table, table, err)
	}
	return rows > 0, nil
}
