package invoice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/testutil"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendCustom(ctx context.Context, to string, subject string, content string) error {
	args := m.Called(ctx, to, subject, content)
	return args.Error(0)
}

type fixture struct {
	svc    *Service
	env    *testutil.Env
	mailer *MockMailer
	ana    int64
	luis   int64
	vet    int64
	pet    int64
	record int64
}

func setup(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	mailer := new(MockMailer)
	f := fixture{
		svc:    NewService(env.Repos, env.Guard, env.Events, mailer, env.Metrics, env.Logger),
		env:    env,
		mailer: mailer,
	}
	f.ana = env.SeedOwner(t, "ana")
	f.luis = env.SeedOwner(t, "luis")
	f.vet = env.SeedVet(t, "vet-a")
	f.pet = env.SeedPet(t, f.ana, "Max")
	f.record = env.SeedRecord(t, env.SeedAppointment(t, f.pet, f.vet))
	return f
}

var allScope = authz.Scope{Kind: authz.ScopeAll}

var items = []model.LineItem{
	{Description: "consultation", Price: 50},
	{Description: "vaccine", Price: 30},
}

func TestService_Issue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Issue(ctx, testutil.Receptionist(1), f.record, items, 10, 0.16)
	require.NoError(t, err)
	assert.Equal(t, 81.2, inv.Total())

	rec, err := f.env.Repos.ClinicalRecords.Get(ctx, f.record)
	require.NoError(t, err)
	linked, ok := rec.InvoiceID()
	require.True(t, ok)
	assert.Equal(t, inv.ID, linked)

	_, err = f.svc.Issue(ctx, testutil.Receptionist(1), f.record, items, 0, 0)
	assert.True(t, errors.Is(err, apperrors.ErrKindAlreadyLinked))

	// the first link survives the second attempt
	rec, err = f.env.Repos.ClinicalRecords.Get(ctx, f.record)
	require.NoError(t, err)
	linked, _ = rec.InvoiceID()
	assert.Equal(t, inv.ID, linked)

	list, err := f.svc.List(ctx, testutil.Receptionist(1), model.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_IssueRejects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, testutil.Vet(f.vet), f.record, items, 0, 0)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = f.svc.Issue(ctx, testutil.Owner(f.ana), f.record, items, 0, 0)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))

	_, err = f.svc.Issue(ctx, testutil.Receptionist(1), f.record, []model.LineItem{{Description: "x", Price: -1}}, 0, 0)
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	_, err = f.svc.Issue(ctx, testutil.Receptionist(1), 999, items, 0, 0)
	assert.True(t, errors.Is(err, apperrors.ErrKindNotFound))

	// nothing was written by the failed attempts
	list, err := f.env.Repos.Invoices.ListBy(ctx, allScope, model.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_RegisterPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv, err := f.svc.Issue(ctx, testutil.Receptionist(1), f.record, items, 0, 0)
	require.NoError(t, err)

	paidAt := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	inv, err = f.svc.RegisterPayment(ctx, testutil.Receptionist(1), inv.ID, " CARD ", paidAt)
	require.NoError(t, err)
	method, at, ok := inv.Payment()
	require.True(t, ok)
	assert.Equal(t, model.PaymentCard, method)
	assert.Equal(t, paidAt, at)

	_, err = f.svc.RegisterPayment(ctx, testutil.Receptionist(1), inv.ID, "bitcoin", paidAt)
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	paid := true
	list, err := f.svc.List(ctx, testutil.Receptionist(1), model.InvoiceFilter{Paid: &paid})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_Recalculate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv, err := f.svc.Issue(ctx, testutil.Receptionist(1), f.record, items, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 80.0, inv.Total())

	inv, err = f.svc.Recalculate(ctx, testutil.Receptionist(1), inv.ID, items, 100, 0.16)
	require.NoError(t, err)
	assert.Equal(t, 0.0, inv.Total())
}

func TestService_Send(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv, err := f.svc.Issue(ctx, testutil.Receptionist(1), f.record, items, 0, 0)
	require.NoError(t, err)

	f.mailer.On("SendCustom", mock.Anything, "ana@example.com", mock.Anything, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "Total: 80.00")
	})).Return(nil).Once()

	require.NoError(t, f.svc.Send(ctx, testutil.Receptionist(1), inv.ID))
	f.mailer.AssertExpectations(t)

	pending, err := f.env.Repos.Outbox.GetPendingEvents(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, model.EventInvoiceSent, pending[len(pending)-1].EventType)
}

func TestService_SendFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv, err := f.svc.Issue(ctx, testutil.Receptionist(1), f.record, items, 0, 0)
	require.NoError(t, err)

	f.mailer.On("SendCustom", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err = f.svc.Send(ctx, testutil.Receptionist(1), inv.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	err = f.svc.Send(ctx, testutil.Nurse(1), inv.ID)
	assert.True(t, errors.Is(err, apperrors.ErrKindUnauthorized))
}
