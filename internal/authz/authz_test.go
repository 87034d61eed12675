package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
)

var (
	vet          = authz.Actor{Role: model.RoleVeterinarian, ID: 10}
	nurse        = authz.Actor{Role: model.RoleNurse, ID: 11}
	receptionist = authz.Actor{Role: model.RoleReceptionist, ID: 12}
	concierge    = authz.Actor{Role: model.RoleConcierge, ID: 13}
	owner        = authz.Actor{Role: model.RoleOwner, ID: 20}
)

func TestAuthorize_VeterinarianAppointments(t *testing.T) {
	e := authz.NewEngine()

	own := &authz.Target{ID: 1, OwnerID: 20, EmployeeIDs: []int64{10}}
	other := &authz.Target{ID: 2, OwnerID: 20, EmployeeIDs: []int64{99}}

	assert.True(t, e.Authorize(vet, authz.ResourceAppointment, authz.ActionRead, own).Allow)
	assert.False(t, e.Authorize(vet, authz.ResourceAppointment, authz.ActionRead, other).Allow)
	assert.True(t, e.Authorize(vet, authz.ResourceAppointment, authz.ActionUpdate, own).Allow)
	assert.False(t, e.Authorize(vet, authz.ResourceAppointment, authz.ActionCreate, own).Allow)
}

func TestAuthorize_ConciergeCannotReadPets(t *testing.T) {
	e := authz.NewEngine()

	d := e.Authorize(concierge, authz.ResourcePet, authz.ActionRead, &authz.Target{ID: 1, OwnerID: 20})
	assert.False(t, d.Allow)
	assert.Equal(t, authz.ScopeNone, d.Scope.Kind)

	assert.True(t, e.Authorize(concierge, authz.ResourceEmployee, authz.ActionRead, &authz.Target{ID: 13}).Allow)
	assert.False(t, e.Authorize(concierge, authz.ResourceEmployee, authz.ActionRead, &authz.Target{ID: 10}).Allow)
}

func TestAuthorize_DenyByDefault(t *testing.T) {
	e := authz.NewEngine()
	target := &authz.Target{ID: 1}

	assert.False(t, e.Authorize(authz.Actor{}, authz.ResourceEmployee, authz.ActionRead, target).Allow)
	assert.False(t, e.Authorize(authz.Actor{Role: "janitor", ID: 5}, authz.ResourceEmployee, authz.ActionRead, target).Allow)
	assert.False(t, e.Authorize(authz.Actor{Role: model.RoleNurse}, authz.ResourcePet, authz.ActionRead, target).Allow)
	assert.False(t, e.Authorize(receptionist, "surgery_room", authz.ActionRead, target).Allow)
	assert.False(t, e.Authorize(receptionist, authz.ResourcePet, "delete", target).Allow)
}

func TestAuthorize_BulkScopes(t *testing.T) {
	e := authz.NewEngine()

	tests := []struct {
		name  string
		actor authz.Actor
		kind  authz.ResourceKind
		want  authz.Scope
	}{
		{"vet pets", vet, authz.ResourcePet, authz.Scope{Kind: authz.ScopeAssigned, SubjectID: 10}},
		{"vet records", vet, authz.ResourceClinicalRecord, authz.Scope{Kind: authz.ScopeAssigned, SubjectID: 10}},
		{"nurse appointments", nurse, authz.ResourceAppointment, authz.Scope{Kind: authz.ScopeAll}},
		{"receptionist invoices", receptionist, authz.ResourceInvoice, authz.Scope{Kind: authz.ScopeAll}},
		{"owner appointments", owner, authz.ResourceAppointment, authz.Scope{Kind: authz.ScopeOwned, SubjectID: 20}},
		{"owner self", owner, authz.ResourceOwner, authz.Scope{Kind: authz.ScopeSelf, SubjectID: 20}},
		{"concierge self", concierge, authz.ResourceEmployee, authz.Scope{Kind: authz.ScopeSelf, SubjectID: 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Authorize(tt.actor, tt.kind, authz.ActionRead, nil)
			assert.True(t, d.Allow)
			assert.Equal(t, tt.want, d.Scope)
		})
	}
}

func TestAuthorize_PolicyTable(t *testing.T) {
	e := authz.NewEngine()
	r, c, u := authz.ActionRead, authz.ActionCreate, authz.ActionUpdate

	allowed := map[model.Role]map[authz.ResourceKind][]authz.Action{
		model.RoleVeterinarian: {
			authz.ResourceAppointment:    {r, u},
			authz.ResourcePet:            {r, u},
			authz.ResourceClinicalRecord: {r, c, u},
			authz.ResourceEmployee:       {r},
		},
		model.RoleNurse: {
			authz.ResourceAppointment:    {r},
			authz.ResourcePet:            {r},
			authz.ResourceClinicalRecord: {r},
			authz.ResourceEmployee:       {r},
		},
		model.RoleReceptionist: {
			authz.ResourceAppointment:    {r, c, u},
			authz.ResourcePet:            {r, c, u},
			authz.ResourceClinicalRecord: {r},
			authz.ResourceInvoice:        {r, c, u},
			authz.ResourceEmployee:       {r, c, u},
			authz.ResourceOwner:          {r, c, u},
		},
		model.RoleConcierge: {
			authz.ResourceEmployee: {r},
		},
		model.RoleOwner: {
			authz.ResourceAppointment:    {r, c},
			authz.ResourcePet:            {r, c},
			authz.ResourceClinicalRecord: {r},
			authz.ResourceOwner:          {r},
		},
	}

	kinds := []authz.ResourceKind{
		authz.ResourceAppointment, authz.ResourcePet, authz.ResourceClinicalRecord,
		authz.ResourceInvoice, authz.ResourceEmployee, authz.ResourceOwner,
	}
	for role, byKind := range allowed {
		actor := authz.Actor{Role: role, ID: 1}
		for _, kind := range kinds {
			for _, action := range []authz.Action{r, c, u} {
				want := false
				for _, a := range byKind[kind] {
					if a == action {
						want = true
					}
				}
				got := e.Authorize(actor, kind, action, nil).Allow
				assert.Equal(t, want, got, "%s %s %s", role, action, kind)
			}
		}
	}
}

func TestAuthorize_OwnerChain(t *testing.T) {
	e := authz.NewEngine()

	mine := &authz.Target{ID: 5, OwnerID: 20}
	theirs := &authz.Target{ID: 6, OwnerID: 21}

	assert.True(t, e.Authorize(owner, authz.ResourceClinicalRecord, authz.ActionRead, mine).Allow)
	assert.False(t, e.Authorize(owner, authz.ResourceClinicalRecord, authz.ActionRead, theirs).Allow)
	assert.False(t, e.Authorize(owner, authz.ResourcePet, authz.ActionRead, &authz.Target{ID: 7}).Allow,
		"an unresolved owner never matches")
}

func TestAuthorize_Deterministic(t *testing.T) {
	e := authz.NewEngine()
	target := &authz.Target{ID: 1, EmployeeIDs: []int64{10}}

	first := e.Authorize(vet, authz.ResourceClinicalRecord, authz.ActionCreate, target)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Authorize(vet, authz.ResourceClinicalRecord, authz.ActionCreate, target))
	}
}

func TestNewEngineWithPolicy(t *testing.T) {
	p := authz.Policy{}
	p.Grant(model.RoleConcierge, authz.ResourcePet, authz.ActionRead, authz.ScopeAll)
	e := authz.NewEngineWithPolicy(p)

	assert.True(t, e.Authorize(concierge, authz.ResourcePet, authz.ActionRead, &authz.Target{ID: 1}).Allow)
	assert.False(t, e.Authorize(concierge, authz.ResourceEmployee, authz.ActionRead, &authz.Target{ID: 13}).Allow)
}

func TestScope_Matches(t *testing.T) {
	target := authz.Target{ID: 3, OwnerID: 20, EmployeeIDs: []int64{10, 11}}

	assert.True(t, authz.Scope{Kind: authz.ScopeAll}.Matches(target))
	assert.True(t, authz.Scope{Kind: authz.ScopeAssigned, SubjectID: 11}.Matches(target))
	assert.False(t, authz.Scope{Kind: authz.ScopeAssigned, SubjectID: 12}.Matches(target))
	assert.True(t, authz.Scope{Kind: authz.ScopeOwned, SubjectID: 20}.Matches(target))
	assert.True(t, authz.Scope{Kind: authz.ScopeSelf, SubjectID: 3}.Matches(target))
	assert.False(t, authz.Scope{Kind: authz.ScopeNone}.Matches(target))
}
