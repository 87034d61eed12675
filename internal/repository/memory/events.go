package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic/internal/model"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	log.ID = r.s.seq
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.s.now()
	}
	cp := *log
	r.s.audit = append(r.s.audit, &cp)
	return nil
}

func (r *auditRepo) List(ctx context.Context, f model.AuditLogFilter) ([]*model.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.AuditLog
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		l := r.s.audit[i]
		switch {
		case f.ActorRole != "" && l.ActorRole != f.ActorRole,
			f.ActorID != 0 && l.ActorID != f.ActorID,
			f.EntityType != "" && l.EntityType != f.EntityType,
			f.Outcome != "" && l.Outcome != f.Outcome,
			!f.Since.IsZero() && l.CreatedAt.Before(f.Since):
			continue
		}
		cp := *l
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *auditRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.audit[:0]
	var n int64
	for _, l := range r.s.audit {
		if l.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.s.audit = kept
	return n, nil
}

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Create(ctx context.Context, e *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = model.OutboxStatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.s.now()
	}
	cp := *e
	r.s.outbox = append(r.s.outbox, &cp)
	return nil
}

func (r *outboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.OutboxEvent
	for _, e := range r.s.outbox {
		if e.Status != model.OutboxStatusPending {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepo) MarkAsProcessed(ctx context.Context, id uuid.UUID) error {
	return r.mark(id, func(e *model.OutboxEvent) {
		now := r.s.now()
		e.Status = model.OutboxStatusProcessed
		e.ProcessedAt = &now
	})
}

func (r *outboxRepo) MarkAsFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.mark(id, func(e *model.OutboxEvent) {
		e.Status = model.OutboxStatusFailed
		e.ErrorMessage = &errMsg
		e.RetryCount++
	})
}

func (r *outboxRepo) mark(id uuid.UUID, fn func(e *model.OutboxEvent)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.outbox {
		if e.ID == id {
			fn(e)
			return nil
		}
	}
	return apperrors.NotFound("outbox event", nil)
}
