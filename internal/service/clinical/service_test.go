package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/testutil"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type fixture struct {
	svc   *Service
	env   *testutil.Env
	ana   int64
	luis  int64
	vet   int64
	other int64
	pet   int64
	appt  int64
}

func setup(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	f := fixture{svc: NewService(env.Repos, env.Guard, env.Events, env.Logger), env: env}
	f.svc.now = func() time.Time { return time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC) }
	f.ana = env.SeedOwner(t, "ana")
	f.luis = env.SeedOwner(t, "luis")
	f.vet = env.SeedVet(t, "vet-a")
	f.other = env.SeedVet(t, "vet-b")
	f.pet = env.SeedPet(t, f.ana, "Max")
	f.appt = env.SeedAppointment(t, f.pet, f.vet)
	return f
}

func TestService_Open(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rec, err := f.svc.Open(ctx, testutil.Vet(f.vet), f.appt, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, model.DiagnosisNotRecorded, rec.Diagnosis())
	assert.Equal(t, model.TreatmentNotAssigned, rec.Treatment())
	assert.Equal(t, time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC), rec.RegisteredAt())

	pet, err := f.env.Repos.Pets.Get(ctx, f.pet)
	require.NoError(t, err)
	assert.Equal(t, []int64{rec.ID}, pet.Consultations())

	_, err = f.svc.Open(ctx, testutil.Vet(f.other), f.appt, "otitis", "", "")
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = f.svc.Open(ctx, testutil.Receptionist(1), f.appt, "otitis", "", "")
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = f.svc.Open(ctx, testutil.Vet(f.vet), 999, "otitis", "", "")
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}

func TestService_OpenOnCancelledAppointment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.env.Repos.Appointments.Get(ctx, f.appt)
	require.NoError(t, err)
	require.NoError(t, a.Cancel())
	_, err = f.env.Repos.Appointments.Update(ctx, a)
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, testutil.Vet(f.vet), f.appt, "otitis", "", "")
	assert.True(t, errors.Is(err, apperrors.ErrKindIllegalState))
}

func TestService_Updates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	vet := testutil.Vet(f.vet)

	rec, err := f.svc.Open(ctx, vet, f.appt, "", "", "first visit")
	require.NoError(t, err)

	rec, err = f.svc.RegisterDiagnosis(ctx, vet, rec.ID, "otitis")
	require.NoError(t, err)
	assert.Equal(t, "otitis", rec.Diagnosis())

	rec, err = f.svc.UpdateTreatment(ctx, vet, rec.ID, "drops twice a day")
	require.NoError(t, err)
	assert.Equal(t, "drops twice a day", rec.Treatment())

	rec, err = f.svc.AddObservation(ctx, vet, rec.ID, "ear clean")
	require.NoError(t, err)
	assert.Equal(t, "first visit\near clean", rec.Observations())

	_, err = f.svc.RegisterDiagnosis(ctx, vet, rec.ID, "   ")
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	_, err = f.svc.AddObservation(ctx, testutil.Vet(f.other), rec.ID, "not mine")
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = f.svc.UpdateTreatment(ctx, testutil.Nurse(1), rec.ID, "rest")
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}

func TestService_ReadScopesAndAudit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rec, err := f.svc.Open(ctx, testutil.Vet(f.vet), f.appt, "otitis", "", "")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, testutil.Owner(f.ana), rec.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, testutil.Owner(f.luis), rec.ID)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	owned, err := f.svc.List(ctx, testutil.Owner(f.luis), model.ClinicalRecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, owned)

	all, err := f.svc.List(ctx, testutil.Nurse(1), model.ClinicalRecordFilter{PetID: f.pet})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	logs, err := f.env.Audit.List(ctx, model.AuditLogFilter{EntityType: string(authz.ResourceClinicalRecord)})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// newest first
	assert.Equal(t, model.AuditOutcomeDenied, logs[0].Outcome)
	assert.Equal(t, f.luis, logs[0].ActorID)
	assert.Equal(t, model.AuditOutcomeAllowed, logs[1].Outcome)
}
