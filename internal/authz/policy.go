package authz

import "github.com/jwalitptl/vetclinic/internal/model"

type rule struct {
	role   model.Role
	kind   ResourceKind
	action Action
}

// Policy maps (role, resource, action) to the scope granted. Absent entries
// deny.
type Policy map[rule]ScopeKind

func (p Policy) lookup(role model.Role, kind ResourceKind, action Action) (ScopeKind, bool) {
	s, ok := p[rule{role, kind, action}]
	if !ok || s == ScopeNone {
		return ScopeNone, false
	}
	return s, true
}

// Grant adds or replaces one entry.
func (p Policy) Grant(role model.Role, kind ResourceKind, action Action, scope ScopeKind) Policy {
	p[rule{role, kind, action}] = scope
	return p
}

func DefaultPolicy() Policy {
	p := Policy{}

	// Veterinarian
	p.Grant(model.RoleVeterinarian, ResourceAppointment, ActionRead, ScopeAssigned)
	p.Grant(model.RoleVeterinarian, ResourceAppointment, ActionUpdate, ScopeAssigned)
	p.Grant(model.RoleVeterinarian, ResourcePet, ActionRead, ScopeAssigned)
	p.Grant(model.RoleVeterinarian, ResourcePet, ActionUpdate, ScopeAssigned)
	p.Grant(model.RoleVeterinarian, ResourceClinicalRecord, ActionRead, ScopeAssigned)
	p.Grant(model.RoleVeterinarian, ResourceClinicalRecord, ActionCreate, ScopeAssigned)
	p.Grant(model.RoleVeterinarian, ResourceClinicalRecord, ActionUpdate, ScopeAssigned)
	p.Grant(model.RoleVeterinarian, ResourceEmployee, ActionRead, ScopeAll)

	// Nurse
	for _, kind := range []ResourceKind{ResourceAppointment, ResourcePet, ResourceClinicalRecord, ResourceEmployee} {
		p.Grant(model.RoleNurse, kind, ActionRead, ScopeAll)
	}

	// Receptionist
	for _, a := range []Action{ActionRead, ActionCreate, ActionUpdate} {
		p.Grant(model.RoleReceptionist, ResourceAppointment, a, ScopeAll)
		p.Grant(model.RoleReceptionist, ResourceInvoice, a, ScopeAll)
		p.Grant(model.RoleReceptionist, ResourceOwner, a, ScopeAll)
		p.Grant(model.RoleReceptionist, ResourcePet, a, ScopeAll)
		p.Grant(model.RoleReceptionist, ResourceEmployee, a, ScopeAll)
	}
	p.Grant(model.RoleReceptionist, ResourceClinicalRecord, ActionRead, ScopeAll)

	// Concierge
	p.Grant(model.RoleConcierge, ResourceEmployee, ActionRead, ScopeSelf)

	// Owner
	p.Grant(model.RoleOwner, ResourceAppointment, ActionRead, ScopeOwned)
	p.Grant(model.RoleOwner, ResourceAppointment, ActionCreate, ScopeOwned)
	p.Grant(model.RoleOwner, ResourcePet, ActionRead, ScopeOwned)
	p.Grant(model.RoleOwner, ResourcePet, ActionCreate, ScopeOwned)
	p.Grant(model.RoleOwner, ResourceClinicalRecord, ActionRead, ScopeOwned)
	p.Grant(model.RoleOwner, ResourceOwner, ActionRead, ScopeSelf)

	return p
}
