package model

import (
	"time"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

// Person holds the identity fields shared by owners and employees.
type Person struct {
	Name       string    `json:"name" db:"name"`
	NationalID string    `json:"national_id" db:"national_id"`
	Phone      string    `json:"phone" db:"phone"`
	Email      string    `json:"email" db:"email"`
	BirthDate  time.Time `json:"birth_date" db:"birth_date"`
}

// Validate checks the fields every person must carry.
func (p Person) Validate() error {
	if blank(p.Name) {
		return apperrors.Validation("name is required")
	}
	if blank(p.NationalID) {
		return apperrors.Validation("national id is required")
	}
	if p.BirthDate.IsZero() {
		return apperrors.Validation("birth date is required")
	}
	return nil
}

// AgeAt returns the number of completed years between the birth date and now.
func (p Person) AgeAt(now time.Time) int {
	return yearsBetween(p.BirthDate, now)
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ContactUpdate is a partial contact change; nil fields are left untouched.
type ContactUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (p *Person) applyContact(u ContactUpdate) error {
	fields := []struct {
		name  string
		value *string
	}{{"name", u.Name}, {"email", u.Email}, {"phone", u.Phone}}
	for _, f := range fields {
		if f.value != nil && blank(*f.value) {
			return apperrors.Validationf("%s must not be blank", f.name)
		}
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	return nil
}
