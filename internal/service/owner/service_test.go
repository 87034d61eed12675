package owner

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
	return NewService(env.Repos.Owners, env.Guard, env.Events), env
}

func TestService_Register(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()

	o, err := svc.Register(ctx, testutil.Receptionist(1), testutil.Person("ana"), "Main St 1")
	require.NoError(t, err)
	assert.NotZero(t, o.ID)

	pending, err := env.Repos.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EventOwnerRegistered, pending[0].EventType)

	_, err = svc.Register(ctx, testutil.Vet(1), testutil.Person("luis"), "Main St 2")
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = svc.Register(ctx, testutil.Receptionist(1), testutil.Person("luis"), "  ")
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))
}

func TestService_OwnerSeesOnlySelf(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")
	luis := env.SeedOwner(t, "luis")
	env.SeedPet(t, ana, "Max")

	got, err := svc.Get(ctx, testutil.Owner(ana), ana)
	require.NoError(t, err)
	assert.Len(t, got.PetIDs(), 1)

	_, err = svc.Get(ctx, testutil.Owner(ana), luis)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	list, err := svc.List(ctx, testutil.Owner(ana))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ana, list[0].ID)

	all, err := svc.List(ctx, testutil.Receptionist(1))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, testutil.Vet(1))
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}

func TestService_UpdateContact(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")

	phone := "555-0199"
	o, err := svc.UpdateContact(ctx, testutil.Receptionist(1), ana, model.ContactUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", o.Person().Phone)
	assert.Equal(t, "ana", o.Person().Name)
	assert.Equal(t, 2, o.Version)

	blank := " "
	_, err = svc.UpdateContact(ctx, testutil.Receptionist(1), ana, model.ContactUpdate{Email: &blank})
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	// owners read themselves but may not edit
	_, err = svc.UpdateContact(ctx, testutil.Owner(ana), ana, model.ContactUpdate{Phone: &phone})
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}

func TestService_UpdateAddress(t *testing.T) {
	svc, env := setup(t)
	ctx := context.Background()
	ana := env.SeedOwner(t, "ana")

	o, err := svc.UpdateAddress(ctx, testutil.Receptionist(1), ana, "Elm St 9")
	require.NoError(t, err)
	assert.Equal(t, "Elm St 9", o.Address())

	_, err = svc.UpdateAddress(ctx, testutil.Receptionist(1), 999, "Elm St 9")
	assert.True(t, errors.Is(err, apperrors.ErrKindNotFound))
}
