package model

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

const (
	DiagnosisNotRecorded = "not recorded"
	TreatmentNotAssigned = "not assigned"
)

type ClinicalRecordData struct {
	AppointmentID int64     `json:"appointment_id" db:"appointment_id"`
	Diagnosis     string    `json:"diagnosis" db:"diagnosis"`
	Treatment     string    `json:"treatment" db:"treatment"`
	Observations  string    `json:"observations" db:"observations"`
	RegisteredAt  time.Time `json:"registered_at" db:"registered_at"`
	InvoiceID     *int64    `json:"invoice_id,omitempty" db:"invoice_id"`
}

type ClinicalRecord struct {
	Base
	d ClinicalRecordData
}

// NewClinicalRecord opens a record for an appointment. Empty diagnosis and
// treatment fall back to their placeholders.
func NewClinicalRecord(appointmentID int64, diagnosis, treatment, observations string, now time.Time) (*ClinicalRecord, error) {
	if appointmentID <= 0 {
		return nil, apperrors.Validation("appointment id is required")
	}
	if blank(diagnosis) {
		diagnosis = DiagnosisNotRecorded
	}
	if blank(treatment) {
		treatment = TreatmentNotAssigned
	}
	return &ClinicalRecord{d: ClinicalRecordData{
		AppointmentID: appointmentID,
		Diagnosis:     diagnosis,
		Treatment:     treatment,
		Observations:  strings.TrimSpace(observations),
		RegisteredAt:  now,
	}}, nil
}

func RestoreClinicalRecord(b Base, d ClinicalRecordData) *ClinicalRecord {
	if d.InvoiceID != nil {
		id := *d.InvoiceID
		d.InvoiceID = &id
	}
	return &ClinicalRecord{Base: b, d: d}
}

func (r *ClinicalRecord) AppointmentID() int64    { return r.d.AppointmentID }
func (r *ClinicalRecord) Diagnosis() string       { return r.d.Diagnosis }
func (r *ClinicalRecord) Treatment() string       { return r.d.Treatment }
func (r *ClinicalRecord) Observations() string    { return r.d.Observations }
func (r *ClinicalRecord) RegisteredAt() time.Time { return r.d.RegisteredAt }

func (r *ClinicalRecord) InvoiceID() (int64, bool) {
	if r.d.InvoiceID == nil {
		return 0, false
	}
	return *r.d.InvoiceID, true
}

func (r *ClinicalRecord) RegisterDiagnosis(text string) error {
	if blank(text) {
		return apperrors.Validation("diagnosis must not be blank")
	}
	r.d.Diagnosis = text
	return nil
}

func (r *ClinicalRecord) UpdateTreatment(text string) error {
	if blank(text) {
		return apperrors.Validation("treatment must not be blank")
	}
	r.d.Treatment = text
	return nil
}

// AddObservation appends a line; earlier observations are never rewritten.
func (r *ClinicalRecord) AddObservation(text string) error {
	if blank(text) {
		return apperrors.Validation("observation must not be blank")
	}
	if r.d.Observations == "" {
		r.d.Observations = text
		return nil
	}
	r.d.Observations += "\n" + text
	return nil
}

// LinkInvoice attaches the invoice issued for this record. A record is
// invoiced at most once.
func (r *ClinicalRecord) LinkInvoice(invoiceID int64) error {
	if r.d.InvoiceID != nil {
		return apperrors.AlreadyLinked("clinical record already has an invoice")
	}
	if invoiceID <= 0 {
		return apperrors.Validation("invoice id must be positive")
	}
	r.d.InvoiceID = &invoiceID
	return nil
}

func (r *ClinicalRecord) Snapshot() ClinicalRecordData {
	return r.Clone().d
}

func (r *ClinicalRecord) Clone() *ClinicalRecord {
	return RestoreClinicalRecord(r.Base, r.d)
}

func (r *ClinicalRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Base
		ClinicalRecordData
	}{r.Base, r.Snapshot()})
}

type ClinicalRecordFilter struct {
	AppointmentID int64
	PetID         int64
}
