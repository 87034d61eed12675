// Package authz decides whether an actor may perform an action on a kind of
// resource and, when it may, which rows it may see. Decisions are pure
// functions of their inputs; callers resolve ownership facts beforehand and
// must not cache decisions across operations.
package authz

import (
	"fmt"
	"slices"

	"github.com/jwalitptl/vetclinic/internal/model"
)

type ResourceKind string

const (
	ResourceAppointment    ResourceKind = "appointment"
	ResourcePet            ResourceKind = "pet"
	ResourceClinicalRecord ResourceKind = "clinical_record"
	ResourceInvoice        ResourceKind = "invoice"
	ResourceEmployee       ResourceKind = "employee"
	ResourceOwner          ResourceKind = "owner"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Actor is the authenticated principal of an operation. ID is the employee
// ID for staff roles and the owner ID for owners.
type Actor struct {
	Role model.Role
	ID   int64
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%d", a.Role, a.ID)
}

// Target carries the ownership facts of a concrete resource, resolved by the
// caller through the repositories.
type Target struct {
	// ID of the resource itself; used for self scopes on employees and owners.
	ID int64
	// OwnerID is the owner reached through the pet chain.
	OwnerID int64
	// EmployeeIDs are the employees assigned to, or who attended, the resource.
	EmployeeIDs []int64
}

type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeAll
	// ScopeAssigned limits to resources attended by the employee SubjectID.
	ScopeAssigned
	// ScopeOwned limits to resources whose pet belongs to owner SubjectID.
	ScopeOwned
	// ScopeSelf limits to the actor's own employee or owner row.
	ScopeSelf
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAll:
		return "all"
	case ScopeAssigned:
		return "assigned"
	case ScopeOwned:
		return "owned"
	case ScopeSelf:
		return "self"
	default:
		return "none"
	}
}

// Scope is both a predicate over targets and a data value that repositories
// translate into a query filter.
type Scope struct {
	Kind      ScopeKind
	SubjectID int64
}

func (s Scope) Matches(t Target) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeAssigned:
		return slices.Contains(t.EmployeeIDs, s.SubjectID)
	case ScopeOwned:
		return t.OwnerID != 0 && t.OwnerID == s.SubjectID
	case ScopeSelf:
		return t.ID != 0 && t.ID == s.SubjectID
	default:
		return false
	}
}

type Decision struct {
	Allow bool
	Scope Scope
}

var deny = Decision{Scope: Scope{Kind: ScopeNone}}

// Engine evaluates the policy table.
type Engine struct {
	policy Policy
}

func NewEngine() *Engine {
	return &Engine{policy: DefaultPolicy()}
}

// NewEngineWithPolicy is used by tests and tools that need a custom table.
func NewEngineWithPolicy(p Policy) *Engine {
	return &Engine{policy: p}
}

// Authorize returns the decision for actor performing action on kind. With a
// nil target the decision only says whether the action is permitted at all
// and which scope applies; with a target it also checks the target against
// that scope.
func (e *Engine) Authorize(actor Actor, kind ResourceKind, action Action, target *Target) Decision {
	if actor.Role == "" || actor.ID <= 0 {
		return deny
	}
	rule, ok := e.policy.lookup(actor.Role, kind, action)
	if !ok {
		return deny
	}
	scope := Scope{Kind: rule}
	if rule != ScopeAll {
		scope.SubjectID = actor.ID
	}
	if target != nil && !scope.Matches(*target) {
		return Decision{Allow: false, Scope: scope}
	}
	return Decision{Allow: true, Scope: scope}
}
