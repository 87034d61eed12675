package memory

import (
	"context"
	"strings"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type ownerRepo struct{ s *Store }

func (r *ownerRepo) Insert(ctx context.Context, o *model.Owner) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return insertRow(r.s, r.s.owners, o), nil
}

func (r *ownerRepo) Get(ctx context.Context, id int64) (*model.Owner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, err := getRow(r.s.owners, id, "owner")
	if err != nil {
		return nil, err
	}
	o.AttachPets(r.s.petIDsOf(id))
	return o, nil
}

func (r *ownerRepo) ListBy(ctx context.Context, scope authz.Scope) ([]*model.Owner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Owner
	for _, id := range sortedKeys(r.s.owners) {
		o := r.s.owners[id]
		if !scope.Matches(authz.Target{ID: id, OwnerID: id}) {
			continue
		}
		c := o.Clone()
		c.AttachPets(r.s.petIDsOf(id))
		out = append(out, c)
	}
	return out, nil
}

func (r *ownerRepo) Update(ctx context.Context, o *model.Owner) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return updateRow(r.s, r.s.owners, o), nil
}

func (r *ownerRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return deleteRow(r.s.owners, id), nil
}

type petRepo struct{ s *Store }

func (r *petRepo) Insert(ctx context.Context, p *model.Pet) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.owners[p.OwnerID()]; !ok {
		return 0, apperrors.NotFound("owner", nil)
	}
	return insertRow(r.s, r.s.pets, p), nil
}

func (r *petRepo) Get(ctx context.Context, id int64) (*model.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return getRow(r.s.pets, id, "pet")
}

func (r *petRepo) ListBy(ctx context.Context, scope authz.Scope, f model.PetFilter) ([]*model.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Pet
	for _, id := range sortedKeys(r.s.pets) {
		p := r.s.pets[id]
		if f.OwnerID != 0 && p.OwnerID() != f.OwnerID {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(p.Name()), strings.ToLower(f.Name)) {
			continue
		}
		if !scope.Matches(r.s.petTarget(p)) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *petRepo) Update(ctx context.Context, p *model.Pet) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return updateRow(r.s, r.s.pets, p), nil
}

func (r *petRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return deleteRow(r.s.pets, id), nil
}

type employeeRepo struct{ s *Store }

func (r *employeeRepo) Insert(ctx context.Context, e *model.Employee) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.Username() != "" {
		for _, other := range r.s.employees {
			if other.Username() == e.Username() {
				return 0, apperrors.Validationf("username %q is taken", e.Username())
			}
		}
	}
	return insertRow(r.s, r.s.employees, e), nil
}

func (r *employeeRepo) Get(ctx context.Context, id int64) (*model.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return getRow(r.s.employees, id, "employee")
}

func (r *employeeRepo) GetByUsername(ctx context.Context, username string) (*model.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.employees {
		if e.Username() != "" && e.Username() == username {
			return e.Clone(), nil
		}
	}
	return nil, apperrors.NotFound("employee", nil)
}

func (r *employeeRepo) ListBy(ctx context.Context, scope authz.Scope) ([]*model.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Employee
	for _, id := range sortedKeys(r.s.employees) {
		if !scope.Matches(authz.Target{ID: id, EmployeeIDs: []int64{id}}) {
			continue
		}
		out = append(out, r.s.employees[id].Clone())
	}
	return out, nil
}

func (r *employeeRepo) Update(ctx context.Context, e *model.Employee) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.Username() != "" {
		for id, other := range r.s.employees {
			if id != e.ID && other.Username() == e.Username() {
				return false, apperrors.Validationf("username %q is taken", e.Username())
			}
		}
	}
	return updateRow(r.s, r.s.employees, e), nil
}

func (r *employeeRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return deleteRow(r.s.employees, id), nil
}

type appointmentRepo struct{ s *Store }

func (r *appointmentRepo) Insert(ctx context.Context, a *model.Appointment) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.pets[a.PetID()]; !ok {
		return 0, apperrors.NotFound("pet", nil)
	}
	if _, ok := r.s.employees[a.EmployeeID()]; !ok {
		return 0, apperrors.NotFound("employee", nil)
	}
	return insertRow(r.s, r.s.appointments, a), nil
}

func (r *appointmentRepo) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return getRow(r.s.appointments, id, "appointment")
}

func (r *appointmentRepo) ListBy(ctx context.Context, scope authz.Scope, f model.AppointmentFilter) ([]*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Appointment
	for _, id := range sortedKeys(r.s.appointments) {
		a := r.s.appointments[id]
		if f.PetID != 0 && a.PetID() != f.PetID {
			continue
		}
		if f.EmployeeID != 0 && a.EmployeeID() != f.EmployeeID {
			continue
		}
		if f.Status != "" && a.Status() != f.Status {
			continue
		}
		if !scope.Matches(r.s.appointmentTarget(a)) {
			continue
		}
		out = append(out, a.Clone())
	}
	return out, nil
}

func (r *appointmentRepo) Update(ctx context.Context, a *model.Appointment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return updateRow(r.s, r.s.appointments, a), nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return deleteRow(r.s.appointments, id), nil
}

type recordRepo struct{ s *Store }

func (r *recordRepo) Insert(ctx context.Context, rec *model.ClinicalRecord) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.appointments[rec.AppointmentID()]; !ok {
		return 0, apperrors.NotFound("appointment", nil)
	}
	return insertRow(r.s, r.s.records, rec), nil
}

func (r *recordRepo) Get(ctx context.Context, id int64) (*model.ClinicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return getRow(r.s.records, id, "clinical record")
}

func (r *recordRepo) ListBy(ctx context.Context, scope authz.Scope, f model.ClinicalRecordFilter) ([]*model.ClinicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.ClinicalRecord
	for _, id := range sortedKeys(r.s.records) {
		rec := r.s.records[id]
		if f.AppointmentID != 0 && rec.AppointmentID() != f.AppointmentID {
			continue
		}
		if f.PetID != 0 {
			a, ok := r.s.appointments[rec.AppointmentID()]
			if !ok || a.PetID() != f.PetID {
				continue
			}
		}
		if !scope.Matches(r.s.recordTarget(rec)) {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

// Update never unlinks an invoice: a stored link survives an incoming record
// that lacks one.
func (r *recordRepo) Update(ctx context.Context, rec *model.ClinicalRecord) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	merged := rec
	if stored, ok := r.s.records[rec.ID]; ok {
		linked, hasLink := stored.InvoiceID()
		if _, incoming := rec.InvoiceID(); hasLink && !incoming {
			merged = rec.Clone()
			if err := merged.LinkInvoice(linked); err != nil {
				return false, err
			}
		}
	}
	if !updateRow(r.s, r.s.records, merged) {
		return false, nil
	}
	*rec.Meta() = *merged.Meta()
	return true, nil
}

func (r *recordRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return deleteRow(r.s.records, id), nil
}

type invoiceRepo struct{ s *Store }

func (r *invoiceRepo) Insert(ctx context.Context, inv *model.Invoice) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.records[inv.ClinicalRecordID()]; !ok {
		return 0, apperrors.NotFound("clinical record", nil)
	}
	for _, other := range r.s.invoices {
		if other.ClinicalRecordID() == inv.ClinicalRecordID() {
			return 0, apperrors.AlreadyLinked("clinical record already has an invoice")
		}
	}
	return insertRow(r.s, r.s.invoices, inv), nil
}

func (r *invoiceRepo) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return getRow(r.s.invoices, id, "invoice")
}

func (r *invoiceRepo) ListBy(ctx context.Context, scope authz.Scope, f model.InvoiceFilter) ([]*model.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Invoice
	for _, id := range sortedKeys(r.s.invoices) {
		inv := r.s.invoices[id]
		if f.ClinicalRecordID != 0 && inv.ClinicalRecordID() != f.ClinicalRecordID {
			continue
		}
		if f.Paid != nil {
			_, _, paid := inv.Payment()
			if paid != *f.Paid {
				continue
			}
		}
		if !scope.Matches(r.s.invoiceTarget(inv)) {
			continue
		}
		out = append(out, inv.Clone())
	}
	return out, nil
}

func (r *invoiceRepo) Update(ctx context.Context, inv *model.Invoice) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return updateRow(r.s, r.s.invoices, inv), nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return deleteRow(r.s.invoices, id), nil
}
