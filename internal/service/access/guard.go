// Package access runs the authorize-then-act step shared by every service:
// it resolves ownership facts through the repositories, asks the engine for
// a decision and turns denials into Unauthorized errors.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/service/audit"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/logger"
	"github.com/jwalitptl/vetclinic/pkg/metrics"
)

type Guard struct {
	engine  *authz.Engine
	repos   repository.Repositories
	auditor *audit.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewGuard(engine *authz.Engine, repos repository.Repositories, auditor *audit.Service, m *metrics.Metrics, log *logger.Logger) *Guard {
	return &Guard{
		engine:  engine,
		repos:   repos,
		auditor: auditor,
		metrics: m,
		logger:  log,
	}
}

// Require authorizes actor for action on kind. A nil target checks only that
// the action is permitted at all; the returned scope is what bulk reads must
// be narrowed to.
func (g *Guard) Require(ctx context.Context, actor authz.Actor, kind authz.ResourceKind, action authz.Action, target *authz.Target) (authz.Scope, error) {
	d := g.engine.Authorize(actor, kind, action, target)

	outcome := model.AuditOutcomeAllowed
	if !d.Allow {
		outcome = model.AuditOutcomeDenied
	}
	g.metrics.AuthzDecisions.WithLabelValues(string(actor.Role), string(kind), string(action), outcome).Inc()

	var entityID int64
	if target != nil {
		entityID = target.ID
	}
	if !d.Allow {
		return d.Scope, g.deny(ctx, actor, kind, action, entityID)
	}
	if kind == authz.ResourceClinicalRecord && action == authz.ActionRead && target != nil {
		g.record(ctx, actor, kind, action, entityID, outcome)
	}
	return d.Scope, nil
}

// RequireResolved checks that actor may perform action on kind at all before
// resolve reads the store, then checks the resolved target. An actor whose
// scope does not span every row gets Unauthorized for a missing row, the same
// answer a row outside its scope produces.
func (g *Guard) RequireResolved(ctx context.Context, actor authz.Actor, kind authz.ResourceKind, action authz.Action, resolve func() (*authz.Target, error)) (authz.Scope, error) {
	pre := g.engine.Authorize(actor, kind, action, nil)
	if !pre.Allow {
		return g.Require(ctx, actor, kind, action, nil)
	}

	target, err := resolve()
	if err != nil {
		if pre.Scope.Kind != authz.ScopeAll && errors.Is(err, apperrors.ErrKindNotFound) {
			g.metrics.AuthzDecisions.WithLabelValues(string(actor.Role), string(kind), string(action), model.AuditOutcomeDenied).Inc()
			return pre.Scope, g.deny(ctx, actor, kind, action, 0)
		}
		return pre.Scope, err
	}
	return g.Require(ctx, actor, kind, action, target)
}

// Scope returns the read scope of actor over kind.
func (g *Guard) Scope(ctx context.Context, actor authz.Actor, kind authz.ResourceKind) (authz.Scope, error) {
	return g.Require(ctx, actor, kind, authz.ActionRead, nil)
}

func (g *Guard) deny(ctx context.Context, actor authz.Actor, kind authz.ResourceKind, action authz.Action, entityID int64) error {
	g.logger.Warn("authorization denied",
		"actor", actor.String(),
		"resource", string(kind),
		"action", string(action),
		"entity_id", entityID)
	g.record(ctx, actor, kind, action, entityID, model.AuditOutcomeDenied)
	return apperrors.Unauthorized(fmt.Sprintf("%s may not %s %s", actor.Role, action, kind))
}

func (g *Guard) record(ctx context.Context, actor authz.Actor, kind authz.ResourceKind, action authz.Action, entityID int64, outcome string) {
	if err := g.auditor.Log(ctx, actor, string(action), string(kind), entityID, outcome, nil); err != nil {
		g.logger.Error(err, "failed to write audit entry", "actor", actor.String())
	}
}

func OwnerTarget(o *model.Owner) *authz.Target {
	return &authz.Target{ID: o.ID, OwnerID: o.ID}
}

func EmployeeTarget(e *model.Employee) *authz.Target {
	return &authz.Target{ID: e.ID, EmployeeIDs: []int64{e.ID}}
}

// PetTarget lists every employee who has an appointment with the pet.
func (g *Guard) PetTarget(ctx context.Context, p *model.Pet) (*authz.Target, error) {
	appts, err := g.repos.Appointments.ListBy(ctx, authz.Scope{Kind: authz.ScopeAll}, model.AppointmentFilter{PetID: p.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pet attendants: %w", err)
	}
	t := &authz.Target{ID: p.ID, OwnerID: p.OwnerID()}
	for _, a := range appts {
		t.EmployeeIDs = append(t.EmployeeIDs, a.EmployeeID())
	}
	return t, nil
}

func (g *Guard) AppointmentTarget(ctx context.Context, a *model.Appointment) (*authz.Target, error) {
	pet, err := g.repos.Pets.Get(ctx, a.PetID())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve appointment pet: %w", err)
	}
	return &authz.Target{ID: a.ID, OwnerID: pet.OwnerID(), EmployeeIDs: []int64{a.EmployeeID()}}, nil
}

func (g *Guard) RecordTarget(ctx context.Context, r *model.ClinicalRecord) (*authz.Target, error) {
	appt, err := g.repos.Appointments.Get(ctx, r.AppointmentID())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve record appointment: %w", err)
	}
	t, err := g.AppointmentTarget(ctx, appt)
	if err != nil {
		return nil, err
	}
	t.ID = r.ID
	return t, nil
}

func (g *Guard) InvoiceTarget(ctx context.Context, inv *model.Invoice) (*authz.Target, error) {
	rec, err := g.repos.ClinicalRecords.Get(ctx, inv.ClinicalRecordID())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invoice record: %w", err)
	}
	t, err := g.RecordTarget(ctx, rec)
	if err != nil {
		return nil, err
	}
	t.ID = inv.ID
	return t, nil
}
