// Package testutil builds an in-memory service environment for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/repository/memory"
	"github.com/jwalitptl/vetclinic/internal/service/access"
	"github.com/jwalitptl/vetclinic/internal/service/audit"
	"github.com/jwalitptl/vetclinic/internal/service/event"
	"github.com/jwalitptl/vetclinic/pkg/logger"
	"github.com/jwalitptl/vetclinic/pkg/metrics"
)

// Env wires the collaborators every service takes.
type Env struct {
	Repos   repository.Repositories
	Guard   *access.Guard
	Audit   *audit.Service
	Events  *event.Service
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	repos := memory.NewStore().Repositories()
	log := logger.Nop()
	m := metrics.New("test")
	auditor := audit.NewService(repos.Audit)
	return &Env{
		Repos:   repos,
		Guard:   access.NewGuard(authz.NewEngine(), repos, auditor, m, log),
		Audit:   auditor,
		Events:  event.NewService(repos.Outbox, log),
		Metrics: m,
		Logger:  log,
	}
}

func Person(name string) model.Person {
	return model.Person{
		Name:       name,
		NationalID: name + "-id",
		Phone:      "555-0100",
		Email:      name + "@example.com",
		BirthDate:  time.Date(1985, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func Receptionist(id int64) authz.Actor { return authz.Actor{Role: model.RoleReceptionist, ID: id} }
func Vet(id int64) authz.Actor          { return authz.Actor{Role: model.RoleVeterinarian, ID: id} }
func Nurse(id int64) authz.Actor        { return authz.Actor{Role: model.RoleNurse, ID: id} }
func Concierge(id int64) authz.Actor    { return authz.Actor{Role: model.RoleConcierge, ID: id} }
func Owner(id int64) authz.Actor        { return authz.Actor{Role: model.RoleOwner, ID: id} }

func (e *Env) SeedOwner(t *testing.T, name string) int64 {
	t.Helper()
	o, err := model.NewOwner(Person(name), "Main St 1")
	require.NoError(t, err)
	id, err := e.Repos.Owners.Insert(context.Background(), o)
	require.NoError(t, err)
	return id
}

func (e *Env) SeedEmployee(t *testing.T, name string, salary float64, details model.RoleDetails) int64 {
	t.Helper()
	emp, err := model.NewEmployee(Person(name), salary, details)
	require.NoError(t, err)
	id, err := e.Repos.Employees.Insert(context.Background(), emp)
	require.NoError(t, err)
	return id
}

func (e *Env) SeedVet(t *testing.T, name string) int64 {
	return e.SeedEmployee(t, name, 1000, model.VeterinarianDetails{LicenseNumber: "LIC-" + name})
}

func (e *Env) SeedPet(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	p, err := model.NewPet(model.PetData{Name: name, Species: "dog", Breed: "mixed", Weight: 10, Sex: "F", OwnerID: ownerID})
	require.NoError(t, err)
	id, err := e.Repos.Pets.Insert(context.Background(), p)
	require.NoError(t, err)
	return id
}

// SeedAppointment books a pending appointment at 09:00 on 10 May 2024.
func (e *Env) SeedAppointment(t *testing.T, petID, employeeID int64) int64 {
	t.Helper()
	a, err := model.NewAppointment(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), "checkup", petID, employeeID)
	require.NoError(t, err)
	id, err := e.Repos.Appointments.Insert(context.Background(), a)
	require.NoError(t, err)
	return id
}

// SeedRecord opens a clinical record for the appointment.
func (e *Env) SeedRecord(t *testing.T, appointmentID int64) int64 {
	t.Helper()
	r, err := model.NewClinicalRecord(appointmentID, "otitis", "drops", "", time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	id, err := e.Repos.ClinicalRecords.Insert(context.Background(), r)
	require.NoError(t, err)
	return id
}
