// Package memory keeps every table in process memory. It backs tests and the
// "memory" storage driver and mirrors the scoping rules of the postgres
// repositories.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
)

// Store holds the tables. Rows are cloned on the way in and out so callers
// never share state with the store.
type Store struct {
	mu           sync.RWMutex
	seq          int64
	now          func() time.Time
	owners       map[int64]*model.Owner
	pets         map[int64]*model.Pet
	employees    map[int64]*model.Employee
	appointments map[int64]*model.Appointment
	records      map[int64]*model.ClinicalRecord
	invoices     map[int64]*model.Invoice
	audit        []*model.AuditLog
	outbox       []*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		now:          time.Now,
		owners:       make(map[int64]*model.Owner),
		pets:         make(map[int64]*model.Pet),
		employees:    make(map[int64]*model.Employee),
		appointments: make(map[int64]*model.Appointment),
		records:      make(map[int64]*model.ClinicalRecord),
		invoices:     make(map[int64]*model.Invoice),
	}
}

// Repositories returns every repository backed by this store.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Owners:          &ownerRepo{s},
		Pets:            &petRepo{s},
		Employees:       &employeeRepo{s},
		Appointments:    &appointmentRepo{s},
		ClinicalRecords: &recordRepo{s},
		Invoices:        &invoiceRepo{s},
		Audit:           &auditRepo{s},
		Outbox:          &outboxRepo{s},
	}
}

// stamp assigns identity and timestamps for an insert. Caller holds mu.
func (s *Store) stamp(b *model.Base) int64 {
	s.seq++
	now := s.now()
	b.ID = s.seq
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now
	return s.seq
}

// bump checks the expected version and advances it. Caller holds mu.
func (s *Store) bump(stored, incoming *model.Base) bool {
	if stored.Version != incoming.Version {
		return false
	}
	incoming.Version++
	incoming.UpdatedAt = s.now()
	return true
}

func (s *Store) ownerOfPet(petID int64) int64 {
	if p, ok := s.pets[petID]; ok {
		return p.OwnerID()
	}
	return 0
}

func (s *Store) appointmentTarget(a *model.Appointment) authz.Target {
	return authz.Target{
		ID:          a.ID,
		OwnerID:     s.ownerOfPet(a.PetID()),
		EmployeeIDs: []int64{a.EmployeeID()},
	}
}

func (s *Store) petTarget(p *model.Pet) authz.Target {
	t := authz.Target{ID: p.ID, OwnerID: p.OwnerID()}
	for _, a := range s.appointments {
		if a.PetID() == p.ID {
			t.EmployeeIDs = append(t.EmployeeIDs, a.EmployeeID())
		}
	}
	return t
}

func (s *Store) recordTarget(r *model.ClinicalRecord) authz.Target {
	t := authz.Target{ID: r.ID}
	if a, ok := s.appointments[r.AppointmentID()]; ok {
		at := s.appointmentTarget(a)
		t.OwnerID, t.EmployeeIDs = at.OwnerID, at.EmployeeIDs
	}
	return t
}

func (s *Store) invoiceTarget(i *model.Invoice) authz.Target {
	t := authz.Target{ID: i.ID}
	if r, ok := s.records[i.ClinicalRecordID()]; ok {
		rt := s.recordTarget(r)
		t.OwnerID, t.EmployeeIDs = rt.OwnerID, rt.EmployeeIDs
	}
	return t
}

func (s *Store) petIDsOf(ownerID int64) []int64 {
	var ids []int64
	for id, p := range s.pets {
		if p.OwnerID() == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys[T any](m map[int64]T) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
