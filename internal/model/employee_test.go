package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/vetclinic/internal/model"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/security"
)

func newEmployee(t *testing.T, base float64, d model.RoleDetails) *model.Employee {
	t.Helper()
	e, err := model.NewEmployee(testPerson(), base, d)
	require.NoError(t, err)
	return e
}

func TestEmployee_EffectiveSalary(t *testing.T) {
	tests := []struct {
		name    string
		details model.RoleDetails
		want    float64
	}{
		{"veterinarian", model.VeterinarianDetails{Specialty: "surgery", LicenseNumber: "MV-1"}, 1100},
		{"receptionist", model.ReceptionistDetails{Schedule: "mornings"}, 1100},
		{"nurse night", model.NurseDetails{Shift: model.ShiftNight, Area: "icu"}, 1150},
		{"nurse night mixed case", model.NurseDetails{Shift: "Night"}, 1150},
		{"nurse day", model.NurseDetails{Shift: model.ShiftDay}, 1000},
		{"concierge night", model.ConciergeDetails{Shift: model.ShiftNight}, 1200},
		{"concierge day", model.ConciergeDetails{Shift: model.ShiftDay}, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEmployee(t, 1000, tt.details)
			assert.Equal(t, tt.details.Role(), e.Role())
			assert.InDelta(t, tt.want, e.EffectiveSalary(), 0.001)
		})
	}
}

func TestEmployee_UpdateSalary(t *testing.T) {
	e := newEmployee(t, 1000, model.ReceptionistDetails{})

	for _, bad := range []float64{0, -1} {
		err := e.UpdateSalary(bad)
		assert.True(t, errors.Is(err, apperrors.ErrKindValidation))
		assert.Equal(t, 1000.0, e.BaseSalary())
	}

	require.NoError(t, e.UpdateSalary(1500))
	assert.InDelta(t, 1600, e.EffectiveSalary(), 0.001)
}

func TestNewEmployee_Validation(t *testing.T) {
	_, err := model.NewEmployee(testPerson(), 0, model.ReceptionistDetails{})
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	_, err = model.NewEmployee(testPerson(), 1000, nil)
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	_, err = model.NewEmployee(testPerson(), 1000, model.VeterinarianDetails{})
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation), "license number is required")
}

func TestEmployee_Credentials(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	e := newEmployee(t, 1000, model.NurseDetails{Shift: model.ShiftDay})
	assert.False(t, e.ValidateCredentials("", "", hasher))

	require.NoError(t, e.RegisterCredentials("nurse.ana", "s3cret", hasher))

	assert.True(t, e.ValidateCredentials("nurse.ana", "s3cret", hasher))
	assert.False(t, e.ValidateCredentials("nurse.ana", "wrong", hasher))
	assert.False(t, e.ValidateCredentials("other", "s3cret", hasher))
	assert.NotEqual(t, "s3cret", e.Snapshot().SecretHash, "secret is stored hashed")

	err := e.RegisterCredentials("", "x", hasher)
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))
}

func TestEmployee_JSONHidesSecret(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	e := newEmployee(t, 1000, model.VeterinarianDetails{LicenseNumber: "MV-9"})
	require.NoError(t, e.RegisterCredentials("vet", "pw", hasher))

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret_hash")
	assert.Contains(t, string(raw), `"effective_salary":1100`)
	assert.Contains(t, string(raw), `"license_number":"MV-9"`)
}

func TestDecodeRoleDetails(t *testing.T) {
	d, err := model.DecodeRoleDetails(model.RoleNurse, []byte(`{"shift":"night","area":"surgery"}`))
	require.NoError(t, err)
	assert.Equal(t, model.NurseDetails{Shift: model.ShiftNight, Area: "surgery"}, d)

	_, err = model.DecodeRoleDetails(model.RoleOwner, []byte(`{}`))
	assert.Error(t, err)
}
