package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic/internal/model"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func testPerson() model.Person {
	return model.Person{
		Name:       "Laura Gómez",
		NationalID: "1032456789",
		Phone:      "3001234567",
		Email:      "laura@example.com",
		BirthDate:  date(1990, time.June, 15),
	}
}

func TestPerson_AgeAt(t *testing.T) {
	p := testPerson()

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"day before birthday", date(2024, time.June, 14), 33},
		{"on birthday", date(2024, time.June, 15), 34},
		{"after birthday", date(2024, time.December, 1), 34},
		{"before birth", date(1980, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.AgeAt(tt.now))
		})
	}
}

func TestPerson_Validate(t *testing.T) {
	p := testPerson()
	require.NoError(t, p.Validate())

	p.Name = "  "
	assert.True(t, errors.Is(p.Validate(), apperrors.ErrKindValidation))
}

func TestOwner_UpdateContactIsPartial(t *testing.T) {
	o, err := model.NewOwner(testPerson(), "Calle 10 #5-20")
	require.NoError(t, err)

	require.NoError(t, o.UpdateContact(model.ContactUpdate{Email: strPtr("new@example.com")}))

	p := o.Person()
	assert.Equal(t, "new@example.com", p.Email)
	assert.Equal(t, "Laura Gómez", p.Name)
	assert.Equal(t, "3001234567", p.Phone)
}

func TestOwner_UpdateContactRejectsBlank(t *testing.T) {
	o, err := model.NewOwner(testPerson(), "Calle 10 #5-20")
	require.NoError(t, err)

	err = o.UpdateContact(model.ContactUpdate{Name: strPtr("Ana"), Phone: strPtr(" ")})
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))
	assert.Equal(t, "Laura Gómez", o.Person().Name, "no field changes when any is invalid")
}

func TestOwner_UpdateAddress(t *testing.T) {
	o, err := model.NewOwner(testPerson(), "Calle 10 #5-20")
	require.NoError(t, err)

	require.NoError(t, o.UpdateAddress("Carrera 7 #12-30"))
	assert.Equal(t, "Carrera 7 #12-30", o.Address())
	assert.Error(t, o.UpdateAddress(""))
}

func TestOwner_PetIDsIsACopy(t *testing.T) {
	o, err := model.NewOwner(testPerson(), "Calle 10")
	require.NoError(t, err)
	o.AttachPets([]int64{3, 7})

	ids := o.PetIDs()
	ids[0] = 99
	assert.Equal(t, []int64{3, 7}, o.PetIDs())
}
