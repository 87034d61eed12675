package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (actor_role, actor_id, action, entity_type, entity_id, outcome, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	metadata := "{}"
	if len(log.Metadata) > 0 {
		metadata = string(log.Metadata)
	}
	err := r.db.QueryRowxContext(ctx, query,
		log.ActorRole, log.ActorID, log.Action, log.EntityType, log.EntityID, log.Outcome, metadata,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", translate("insert audit log", "audit log", err))
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, f model.AuditLogFilter) ([]*model.AuditLog, error) {
	var c conditions
	if f.ActorRole != "" {
		c.add("actor_role = ?", f.ActorRole)
	}
	if f.ActorID != 0 {
		c.add("actor_id = ?", f.ActorID)
	}
	if f.EntityType != "" {
		c.add("entity_type = ?", f.EntityType)
	}
	if f.Outcome != "" {
		c.add("outcome = ?", f.Outcome)
	}
	if !f.Since.IsZero() {
		c.add("created_at >= ?", f.Since)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	c.args = append(c.args, limit)

	query := `
		SELECT id, actor_role, actor_id, action, entity_type, entity_id, outcome, metadata, created_at
		FROM audit_logs` + c.where() + fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(c.args))

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, c.args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", translate("list audit logs", "audit log", err))
	}
	return logs, nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", translate("delete audit logs", "audit log", err))
	}
	return result.RowsAffected()
}
