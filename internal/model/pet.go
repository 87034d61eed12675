package model

import (
	"encoding/json"
	"slices"
	"time"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type PetData struct {
	Name          string    `json:"name" db:"name"`
	Species       string    `json:"species" db:"species"`
	Breed         string    `json:"breed" db:"breed"`
	BirthDate     time.Time `json:"birth_date" db:"birth_date"`
	Weight        float64   `json:"weight" db:"weight"`
	Sex           string    `json:"sex" db:"sex"`
	OwnerID       int64     `json:"owner_id" db:"owner_id"`
	Consultations []int64   `json:"consultations" db:"-"`
}

type Pet struct {
	Base
	d PetData
}

// NewPet validates the pet's own fields. Whether the owner exists is checked
// by the caller against the owner repository.
func NewPet(d PetData) (*Pet, error) {
	if blank(d.Name) {
		return nil, apperrors.Validation("pet name is required")
	}
	if blank(d.Species) {
		return nil, apperrors.Validation("species is required")
	}
	if d.Weight <= 0 {
		return nil, apperrors.Validation("weight must be positive")
	}
	if d.OwnerID <= 0 {
		return nil, apperrors.Validation("owner id is required")
	}
	d.Consultations = nil
	return &Pet{d: d}, nil
}

func RestorePet(b Base, d PetData) *Pet {
	d.Consultations = slices.Clone(d.Consultations)
	return &Pet{Base: b, d: d}
}

func (p *Pet) Name() string         { return p.d.Name }
func (p *Pet) Species() string      { return p.d.Species }
func (p *Pet) Breed() string        { return p.d.Breed }
func (p *Pet) Sex() string          { return p.d.Sex }
func (p *Pet) Weight() float64      { return p.d.Weight }
func (p *Pet) OwnerID() int64       { return p.d.OwnerID }
func (p *Pet) BirthDate() time.Time { return p.d.BirthDate }

func (p *Pet) AgeAt(now time.Time) int {
	if p.d.BirthDate.IsZero() {
		return 0
	}
	return yearsBetween(p.d.BirthDate, now)
}

func (p *Pet) UpdateWeight(w float64) error {
	if w <= 0 {
		return apperrors.Validation("weight must be positive")
	}
	p.d.Weight = w
	return nil
}

// RegisterConsultation appends a clinical record ID to the history.
func (p *Pet) RegisterConsultation(recordID int64) error {
	if recordID <= 0 {
		return apperrors.Validation("consultation id must be positive")
	}
	if slices.Contains(p.d.Consultations, recordID) {
		return apperrors.Validationf("consultation %d already registered", recordID)
	}
	p.d.Consultations = append(p.d.Consultations, recordID)
	return nil
}

// Consultations returns the history in registration order.
func (p *Pet) Consultations() []int64 {
	return slices.Clone(p.d.Consultations)
}

func (p *Pet) LastConsultation() (int64, bool) {
	if len(p.d.Consultations) == 0 {
		return 0, false
	}
	return p.d.Consultations[len(p.d.Consultations)-1], true
}

func (p *Pet) Snapshot() PetData {
	d := p.d
	d.Consultations = p.Consultations()
	return d
}

func (p *Pet) Clone() *Pet {
	return RestorePet(p.Base, p.d)
}

func (p *Pet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Base
		PetData
		Age int `json:"age"`
	}{p.Base, p.Snapshot(), p.AgeAt(time.Now())})
}

// PetFilter narrows a scoped pet listing.
type PetFilter struct {
	OwnerID int64
	Name    string
}
