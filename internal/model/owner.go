package model

import (
	"encoding/json"
	"time"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

// OwnerData is the flat state of an owner. PetIDs is a view maintained by
// the repository from pets.owner_id and is never persisted on the owner.
type OwnerData struct {
	Person
	Address string  `json:"address" db:"address"`
	PetIDs  []int64 `json:"pet_ids" db:"-"`
}

type Owner struct {
	Base
	d OwnerData
}

func NewOwner(p Person, address string) (*Owner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if blank(address) {
		return nil, apperrors.Validation("address is required")
	}
	return &Owner{d: OwnerData{Person: p, Address: address}}, nil
}

// RestoreOwner rebuilds an owner from stored state without re-validating it.
func RestoreOwner(b Base, d OwnerData) *Owner {
	d.PetIDs = append([]int64(nil), d.PetIDs...)
	return &Owner{Base: b, d: d}
}

func (o *Owner) Person() Person  { return o.d.Person }
func (o *Owner) Address() string { return o.d.Address }
func (o *Owner) Age() int        { return o.d.AgeAt(time.Now()) }

func (o *Owner) PetIDs() []int64 {
	return append([]int64(nil), o.d.PetIDs...)
}

// AttachPets replaces the pet view; repositories call it when loading.
func (o *Owner) AttachPets(ids []int64) {
	o.d.PetIDs = append([]int64(nil), ids...)
}

func (o *Owner) UpdateContact(u ContactUpdate) error {
	return o.d.applyContact(u)
}

func (o *Owner) UpdateAddress(address string) error {
	if blank(address) {
		return apperrors.Validation("address must not be blank")
	}
	o.d.Address = address
	return nil
}

// Snapshot returns a copy of the owner's state.
func (o *Owner) Snapshot() OwnerData {
	d := o.d
	d.PetIDs = o.PetIDs()
	return d
}

func (o *Owner) Clone() *Owner {
	return RestoreOwner(o.Base, o.d)
}

func (o *Owner) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Base
		OwnerData
		Age int `json:"age"`
	}{o.Base, o.Snapshot(), o.Age()})
}
