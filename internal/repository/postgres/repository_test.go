package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository/postgres"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/security"
)

func startDatabase(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vetclinic"),
		tcpostgres.WithUsername("vet"),
		tcpostgres.WithPassword("vet"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=vet password=vet dbname=vetclinic sslmode=disable", host, port.Port())
	db, err := postgres.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db))
	// applying twice must be harmless
	require.NoError(t, postgres.Migrate(ctx, db))
	return db
}

func person(name string) model.Person {
	return model.Person{Name: name, NationalID: name + "-id", BirthDate: time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestRepositories_Integration(t *testing.T) {
	db := startDatabase(t)
	ctx := context.Background()

	cipher, err := security.NewFieldCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	owners := postgres.NewOwnerRepository(db)
	pets := postgres.NewPetRepository(db)
	employees := postgres.NewEmployeeRepository(db)
	appointments := postgres.NewAppointmentRepository(db)
	records := postgres.NewClinicalRecordRepository(db, cipher)
	invoices := postgres.NewInvoiceRepository(db)

	ana, err := model.NewOwner(person("ana"), "street 1")
	require.NoError(t, err)
	anaID, err := owners.Insert(ctx, ana)
	require.NoError(t, err)
	luis, err := model.NewOwner(person("luis"), "street 2")
	require.NoError(t, err)
	luisID, err := owners.Insert(ctx, luis)
	require.NoError(t, err)

	vet, err := model.NewEmployee(person("vet"), 1000, model.VeterinarianDetails{LicenseNumber: "L-1", Specialty: "surgery"})
	require.NoError(t, err)
	vetID, err := employees.Insert(ctx, vet)
	require.NoError(t, err)

	maxPet, err := model.NewPet(model.PetData{Name: "Max", Species: "dog", Weight: 12, OwnerID: anaID})
	require.NoError(t, err)
	maxID, err := pets.Insert(ctx, maxPet)
	require.NoError(t, err)
	luna, err := model.NewPet(model.PetData{Name: "Luna", Species: "cat", Weight: 4, OwnerID: luisID})
	require.NoError(t, err)
	_, err = pets.Insert(ctx, luna)
	require.NoError(t, err)

	t.Run("pet with unknown owner", func(t *testing.T) {
		orphan, err := model.NewPet(model.PetData{Name: "Ghost", Species: "dog", Weight: 1, OwnerID: 9999})
		require.NoError(t, err)
		_, err = pets.Insert(ctx, orphan)
		assert.True(t, errors.Is(err, apperrors.ErrKindNotFound))
	})

	appt, err := model.NewAppointment(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), "checkup", maxID, vetID)
	require.NoError(t, err)
	apptID, err := appointments.Insert(ctx, appt)
	require.NoError(t, err)

	t.Run("owned scope", func(t *testing.T) {
		list, err := pets.ListBy(ctx, authz.Scope{Kind: authz.ScopeOwned, SubjectID: anaID}, model.PetFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Max", list[0].Name())

		all, err := pets.ListBy(ctx, authz.Scope{Kind: authz.ScopeAll}, model.PetFilter{Name: "lun"})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Luna", all[0].Name())
	})

	t.Run("assigned scope", func(t *testing.T) {
		list, err := appointments.ListBy(ctx, authz.Scope{Kind: authz.ScopeAssigned, SubjectID: vetID}, model.AppointmentFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, apptID, list[0].ID)

		attended, err := pets.ListBy(ctx, authz.Scope{Kind: authz.ScopeAssigned, SubjectID: vetID}, model.PetFilter{})
		require.NoError(t, err)
		require.Len(t, attended, 1)
		assert.Equal(t, maxID, attended[0].ID)
	})

	t.Run("compare and set", func(t *testing.T) {
		first, err := appointments.Get(ctx, apptID)
		require.NoError(t, err)
		second, err := appointments.Get(ctx, apptID)
		require.NoError(t, err)

		require.NoError(t, first.Complete(time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)))
		ok, err := appointments.Update(ctx, first)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, first.Version)

		require.NoError(t, second.Cancel())
		ok, err = appointments.Update(ctx, second)
		require.NoError(t, err)
		assert.False(t, ok)

		stored, err := appointments.Get(ctx, apptID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCompleted, stored.Status())
	})

	var recordID int64
	t.Run("clinical record and consultation history", func(t *testing.T) {
		rec, err := model.NewClinicalRecord(apptID, "otitis", "drops", "", time.Now())
		require.NoError(t, err)
		recordID, err = records.Insert(ctx, rec)
		require.NoError(t, err)

		var raw string
		require.NoError(t, db.GetContext(ctx, &raw, `SELECT diagnosis FROM clinical_records WHERE id = $1`, recordID))
		assert.NotEqual(t, "otitis", raw)

		got, err := records.Get(ctx, recordID)
		require.NoError(t, err)
		assert.Equal(t, "otitis", got.Diagnosis())

		pet, err := pets.Get(ctx, maxID)
		require.NoError(t, err)
		require.NoError(t, pet.RegisterConsultation(recordID))
		ok, err := pets.Update(ctx, pet)
		require.NoError(t, err)
		require.True(t, ok)

		reloaded, err := pets.Get(ctx, maxID)
		require.NoError(t, err)
		assert.Equal(t, []int64{recordID}, reloaded.Consultations())
	})

	t.Run("one invoice per record", func(t *testing.T) {
		inv, err := model.NewInvoice(recordID)
		require.NoError(t, err)
		_, err = invoices.Insert(ctx, inv)
		require.NoError(t, err)

		dup, err := model.NewInvoice(recordID)
		require.NoError(t, err)
		_, err = invoices.Insert(ctx, dup)
		assert.True(t, errors.Is(err, apperrors.ErrKindAlreadyLinked))
	})

	t.Run("missing rows", func(t *testing.T) {
		_, err := owners.Get(ctx, 9999)
		assert.True(t, errors.Is(err, apperrors.ErrKindNotFound))

		deleted, err := owners.Delete(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestEventRepositories_Integration(t *testing.T) {
	db := startDatabase(t)
	ctx := context.Background()

	audit := postgres.NewAuditRepository(db)
	outbox := postgres.NewOutboxRepository(db)

	require.NoError(t, audit.Create(ctx, &model.AuditLog{
		ActorRole:  model.RoleOwner,
		ActorID:    3,
		Action:     "read",
		EntityType: "pet",
		EntityID:   9,
		Outcome:    model.AuditOutcomeDenied,
	}))
	logs, err := audit.List(ctx, model.AuditLogFilter{Outcome: model.AuditOutcomeDenied})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(9), logs[0].EntityID)

	removed, err := audit.DeleteBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	event := &model.OutboxEvent{
		EventType: model.EventPetRegistered,
		EntityID:  9,
		ActorRole: model.RoleReceptionist,
		ActorID:   1,
		Payload:   json.RawMessage(`{"name":"Max"}`),
	}
	require.NoError(t, outbox.Create(ctx, event))

	pending, err := outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.JSONEq(t, `{"name":"Max"}`, string(pending[0].Payload))

	require.NoError(t, outbox.MarkAsFailed(ctx, event.ID, "broker down"))
	pending, err = outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
