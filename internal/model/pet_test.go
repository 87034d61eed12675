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

func newPet(t *testing.T) *model.Pet {
	t.Helper()
	p, err := model.NewPet(model.PetData{
		Name:      "Max",
		Species:   "dog",
		Breed:     "labrador",
		BirthDate: date(2020, time.March, 1),
		Weight:    25.5,
		Sex:       "male",
		OwnerID:   1,
	})
	require.NoError(t, err)
	return p
}

func TestNewPet_RejectsNonPositiveWeight(t *testing.T) {
	for _, w := range []float64{0, -3} {
		_, err := model.NewPet(model.PetData{Name: "Luna", Species: "cat", Weight: w, OwnerID: 1})
		assert.True(t, errors.Is(err, apperrors.ErrKindValidation))
	}
}

func TestPet_UpdateWeight(t *testing.T) {
	p := newPet(t)

	require.NoError(t, p.UpdateWeight(27))
	assert.Equal(t, 27.0, p.Weight())

	assert.True(t, errors.Is(p.UpdateWeight(0), apperrors.ErrKindValidation))
	assert.Equal(t, 27.0, p.Weight())
}

func TestPet_ConsultationHistory(t *testing.T) {
	p := newPet(t)

	_, ok := p.LastConsultation()
	assert.False(t, ok)

	require.NoError(t, p.RegisterConsultation(4))
	require.NoError(t, p.RegisterConsultation(9))

	err := p.RegisterConsultation(4)
	assert.True(t, errors.Is(err, apperrors.ErrKindValidation))

	assert.Equal(t, []int64{4, 9}, p.Consultations())
	last, ok := p.LastConsultation()
	assert.True(t, ok)
	assert.Equal(t, int64(9), last)
}

func TestPet_AgeAt(t *testing.T) {
	p := newPet(t)
	assert.Equal(t, 4, p.AgeAt(date(2024, time.March, 1)))
	assert.Equal(t, 3, p.AgeAt(date(2024, time.February, 28)))
}
