package pet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/testutil"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

func setup(t *testing.T) (*Service, *testutil.Env) {
	env := testutil.NewEnv(t)
	return NewService(env.Repos, env.Guard, env.Events), env
}

func TestService_Register(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")
	luis := env.SeedOwner(t, "luis")

	p, err := svc.Register(ctx, testutil.Receptionist(1), model.PetData{Name: "Max", Species: "dog", Weight: 12, OwnerID: ana})
	require.NoError(t, err)
	assert.Equal(t, ana, p.OwnerID())

	p, err = svc.Register(ctx, testutil.Owner(ana), model.PetData{Name: "Kira", Species: "cat", Weight: 3, OwnerID: ana})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	_, err = svc.Register(ctx, testutil.Owner(ana), model.PetData{Name: "Luna", Species: "cat", Weight: 3, OwnerID: luis})
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = svc.Register(ctx, testutil.Receptionist(1), model.PetData{Name: "Ghost", Species: "dog", Weight: 3, OwnerID: 999})
	assert.True(t, errors.Is(err, apperrors.ErrKindNotFound))

	_, err = svc.Register(ctx, testutil.Receptionist(1), model.PetData{Name: "Max", Species: "dog", Weight: 0, OwnerID: ana})
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	_, err = svc.Register(ctx, testutil.Nurse(1), model.PetData{Name: "Max", Species: "dog", Weight: 1, OwnerID: ana})
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}

func TestService_VetSeesOnlyAttendedPets(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")
	vet1 := env.SeedVet(t, "vet-a")
	vet2 := env.SeedVet(t, "vet-b")
	maxID := env.SeedPet(t, ana, "Max")
	lunaID := env.SeedPet(t, ana, "Luna")
	env.SeedAppointment(t, maxID, vet1)
	env.SeedAppointment(t, lunaID, vet2)

	list, err := svc.List(ctx, testutil.Vet(vet1), model.PetFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, maxID, list[0].ID)

	_, err = svc.Get(ctx, testutil.Vet(vet1), lunaID)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = svc.Get(ctx, testutil.Vet(vet1), maxID)
	assert.NoError(t, err)

	// concierges have no access to pets at all
	_, err = svc.List(ctx, testutil.Concierge(5), model.PetFilter{})
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}

func TestService_SearchByName(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")
	luis := env.SeedOwner(t, "luis")
	env.SeedPet(t, ana, "Max")
	env.SeedPet(t, luis, "Maxine")
	env.SeedPet(t, luis, "Luna")

	found, err := svc.SearchByName(ctx, testutil.Receptionist(1), "MAX")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = svc.SearchByName(ctx, testutil.Owner(ana), "max")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Max", found[0].Name())

	_, err = svc.SearchByName(ctx, testutil.Receptionist(1), "  ")
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))
}

func TestService_UpdateWeight(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")
	vet := env.SeedVet(t, "vet-a")
	other := env.SeedVet(t, "vet-b")
	maxID := env.SeedPet(t, ana, "Max")
	env.SeedAppointment(t, maxID, vet)

	p, err := svc.UpdateWeight(ctx, testutil.Vet(vet), maxID, 13.5)
	require.NoError(t, err)
	assert.Equal(t, 13.5, p.Weight())

	_, err = svc.UpdateWeight(ctx, testutil.Vet(other), maxID, 14)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = svc.UpdateWeight(ctx, testutil.Vet(vet), maxID, -1)
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	_, err = svc.UpdateWeight(ctx, testutil.Owner(ana), maxID, 14)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}

func TestService_History(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")
	vet := env.SeedVet(t, "vet-a")
	maxID := env.SeedPet(t, ana, "Max")
	appt := env.SeedAppointment(t, maxID, vet)
	rec := env.SeedRecord(t, appt)

	p, err := env.Repos.Pets.Get(ctx, maxID)
	require.NoError(t, err)
	require.NoError(t, p.RegisterConsultation(rec))
	ok, err := env.Repos.Pets.Update(ctx, p)
	require.NoError(t, err)
	require.True(t, ok)

	history, err := svc.History(ctx, testutil.Owner(ana), maxID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec, history[0].ID)
}
