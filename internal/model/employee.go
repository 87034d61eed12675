package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type Role string

const (
	RoleVeterinarian Role = "veterinarian"
	RoleReceptionist Role = "receptionist"
	RoleNurse        Role = "nurse"
	RoleConcierge    Role = "concierge"
	RoleOwner        Role = "owner"
)

// IsStaff reports whether r is one of the employee roles.
func (r Role) IsStaff() bool {
	switch r {
	case RoleVeterinarian, RoleReceptionist, RoleNurse, RoleConcierge:
		return true
	}
	return false
}

type Shift string

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

func (s Shift) IsNight() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(ShiftNight))
}

// RoleDetails is the role-specific payload of an employee. The concrete type
// fixes the employee's role.
type RoleDetails interface {
	Role() Role
	validate() error
}

type VeterinarianDetails struct {
	Specialty     string `json:"specialty"`
	LicenseNumber string `json:"license_number"`
	Schedule      string `json:"schedule"`
}

func (VeterinarianDetails) Role() Role { return RoleVeterinarian }

func (d VeterinarianDetails) validate() error {
	if blank(d.LicenseNumber) {
		return apperrors.Validation("license number is required")
	}
	return nil
}

type ReceptionistDetails struct {
	Schedule string `json:"schedule"`
}

func (ReceptionistDetails) Role() Role      { return RoleReceptionist }
func (ReceptionistDetails) validate() error { return nil }

type NurseDetails struct {
	Shift Shift  `json:"shift"`
	Area  string `json:"area"`
}

func (NurseDetails) Role() Role { return RoleNurse }

func (d NurseDetails) validate() error {
	if blank(string(d.Shift)) {
		return apperrors.Validation("shift is required")
	}
	return nil
}

type ConciergeDetails struct {
	Shift Shift `json:"shift"`
}

func (ConciergeDetails) Role() Role { return RoleConcierge }

func (d ConciergeDetails) validate() error {
	if blank(string(d.Shift)) {
		return apperrors.Validation("shift is required")
	}
	return nil
}

// DecodeRoleDetails decodes a stored payload for the given role.
func DecodeRoleDetails(role Role, raw []byte) (RoleDetails, error) {
	var (
		d   RoleDetails
		err error
	)
	switch role {
	case RoleVeterinarian:
		var v VeterinarianDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case RoleReceptionist:
		var v ReceptionistDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case RoleNurse:
		var v NurseDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case RoleConcierge:
		var v ConciergeDetails
		err = json.Unmarshal(raw, &v)
		d = v
	default:
		return nil, apperrors.Validationf("unknown employee role %q", role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", role, err)
	}
	return d, nil
}

const (
	veterinarianFactor   = 1.10
	receptionistBonus    = 100.0
	nurseNightFactor     = 1.15
	conciergeNightFactor = 1.20
)

type salaryRule func(base float64, d RoleDetails) float64

var salaryRules = map[Role]salaryRule{
	RoleVeterinarian: func(base float64, _ RoleDetails) float64 {
		return base * veterinarianFactor
	},
	RoleReceptionist: func(base float64, _ RoleDetails) float64 {
		return base + receptionistBonus
	},
	RoleNurse: func(base float64, d RoleDetails) float64 {
		if n, ok := d.(NurseDetails); ok && n.Shift.IsNight() {
			return base * nurseNightFactor
		}
		return base
	},
	RoleConcierge: func(base float64, d RoleDetails) float64 {
		if c, ok := d.(ConciergeDetails); ok && c.Shift.IsNight() {
			return base * conciergeNightFactor
		}
		return base
	},
}

// SecretHasher hashes and verifies credential secrets.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

type EmployeeData struct {
	Person
	Role       Role        `json:"role" db:"role"`
	BaseSalary float64     `json:"base_salary" db:"base_salary"`
	Username   string      `json:"username,omitempty" db:"username"`
	SecretHash string      `json:"-" db:"secret_hash"`
	Details    RoleDetails `json:"details" db:"-"`
}

type Employee struct {
	Base
	d EmployeeData
}

func NewEmployee(p Person, baseSalary float64, details RoleDetails) (*Employee, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if details == nil {
		return nil, apperrors.Validation("role details are required")
	}
	if err := details.validate(); err != nil {
		return nil, err
	}
	if baseSalary <= 0 {
		return nil, apperrors.Validation("base salary must be positive")
	}
	return &Employee{d: EmployeeData{
		Person:     p,
		Role:       details.Role(),
		BaseSalary: roundCents(baseSalary),
		Details:    details,
	}}, nil
}

// RestoreEmployee rebuilds an employee from stored state. The role is taken
// from the details payload when present.
func RestoreEmployee(b Base, d EmployeeData) *Employee {
	if d.Details != nil {
		d.Role = d.Details.Role()
	}
	return &Employee{Base: b, d: d}
}

func (e *Employee) Person() Person       { return e.d.Person }
func (e *Employee) Role() Role           { return e.d.Role }
func (e *Employee) BaseSalary() float64  { return e.d.BaseSalary }
func (e *Employee) Details() RoleDetails { return e.d.Details }
func (e *Employee) Username() string     { return e.d.Username }
func (e *Employee) HasCredentials() bool { return e.d.SecretHash != "" }
func (e *Employee) Age() int             { return e.d.AgeAt(time.Now()) }

// EffectiveSalary applies the role's compensation rule to the base salary.
func (e *Employee) EffectiveSalary() float64 {
	rule, ok := salaryRules[e.d.Role]
	if !ok {
		return e.d.BaseSalary
	}
	return roundCents(rule(e.d.BaseSalary, e.d.Details))
}

func (e *Employee) UpdateSalary(newBase float64) error {
	if newBase <= 0 {
		return apperrors.Validation("base salary must be positive")
	}
	e.d.BaseSalary = roundCents(newBase)
	return nil
}

func (e *Employee) UpdateContact(u ContactUpdate) error {
	return e.d.applyContact(u)
}

// RegisterCredentials stores the username and a hash of the secret.
func (e *Employee) RegisterCredentials(username, secret string, h SecretHasher) error {
	if blank(username) || blank(secret) {
		return apperrors.Validation("username and secret are required")
	}
	hash, err := h.Hash(secret)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}
	e.d.Username = strings.TrimSpace(username)
	e.d.SecretHash = hash
	return nil
}

// ValidateCredentials reports whether the pair matches the registered credentials.
func (e *Employee) ValidateCredentials(username, secret string, h SecretHasher) bool {
	if !e.HasCredentials() || strings.TrimSpace(username) != e.d.Username {
		return false
	}
	return h.Compare(e.d.SecretHash, secret) == nil
}

// Snapshot returns a copy of the employee's state, secret hash included.
func (e *Employee) Snapshot() EmployeeData {
	return e.d
}

func (e *Employee) Clone() *Employee {
	return RestoreEmployee(e.Base, e.d)
}

func (e *Employee) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Base
		EmployeeData
		Age             int     `json:"age"`
		EffectiveSalary float64 `json:"effective_salary"`
	}{e.Base, e.d, e.Age(), e.EffectiveSalary()})
}
