package model

import (
	"encoding/json"
	"time"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentData struct {
	StartTime  time.Time         `json:"start_time" db:"start_time"`
	EndTime    *time.Time        `json:"end_time,omitempty" db:"end_time"`
	Reason     string            `json:"reason" db:"reason"`
	PetID      int64             `json:"pet_id" db:"pet_id"`
	EmployeeID int64             `json:"employee_id" db:"employee_id"`
	Status     AppointmentStatus `json:"status" db:"status"`
}

// Appointment is a scheduled visit. Status moves pending -> completed or
// pending -> cancelled and never leaves a terminal state.
type Appointment struct {
	Base
	d AppointmentData
}

func NewAppointment(start time.Time, reason string, petID, employeeID int64) (*Appointment, error) {
	if start.IsZero() {
		return nil, apperrors.Validation("start time is required")
	}
	if blank(reason) {
		return nil, apperrors.Validation("reason is required")
	}
	if petID <= 0 || employeeID <= 0 {
		return nil, apperrors.Validation("pet and employee are required")
	}
	return &Appointment{d: AppointmentData{
		StartTime:  start,
		Reason:     reason,
		PetID:      petID,
		EmployeeID: employeeID,
		Status:     AppointmentStatusPending,
	}}, nil
}

func RestoreAppointment(b Base, d AppointmentData) *Appointment {
	if d.EndTime != nil {
		end := *d.EndTime
		d.EndTime = &end
	}
	return &Appointment{Base: b, d: d}
}

func (a *Appointment) StartTime() time.Time      { return a.d.StartTime }
func (a *Appointment) Reason() string            { return a.d.Reason }
func (a *Appointment) PetID() int64              { return a.d.PetID }
func (a *Appointment) EmployeeID() int64         { return a.d.EmployeeID }
func (a *Appointment) Status() AppointmentStatus { return a.d.Status }
func (a *Appointment) IsPending() bool           { return a.d.Status == AppointmentStatusPending }

func (a *Appointment) EndTime() (time.Time, bool) {
	if a.d.EndTime == nil {
		return time.Time{}, false
	}
	return *a.d.EndTime, true
}

// Reschedule moves a pending appointment to a new start date and time.
func (a *Appointment) Reschedule(start time.Time) error {
	if a.d.Status != AppointmentStatusPending {
		return apperrors.InvalidTransition(string(a.d.Status), "reschedule")
	}
	if start.IsZero() {
		return apperrors.Validation("start time is required")
	}
	a.d.StartTime = start
	return nil
}

// Cancel marks a pending appointment cancelled. Cancelling an already
// cancelled appointment is a no-op.
func (a *Appointment) Cancel() error {
	switch a.d.Status {
	case AppointmentStatusPending:
		a.d.Status = AppointmentStatusCancelled
		return nil
	case AppointmentStatusCancelled:
		return nil
	default:
		return apperrors.InvalidTransition(string(a.d.Status), "cancel")
	}
}

// Complete records the end clock time on the appointment's date and marks it
// completed. Only the hour, minute and second of end are used, read in the
// start's location.
func (a *Appointment) Complete(end time.Time) error {
	if a.d.Status != AppointmentStatusPending {
		return apperrors.InvalidTransition(string(a.d.Status), "complete")
	}
	start := a.d.StartTime
	end = end.In(start.Location())
	at := time.Date(start.Year(), start.Month(), start.Day(),
		end.Hour(), end.Minute(), end.Second(), 0, start.Location())
	if at.Before(start) {
		return apperrors.Validation("end time is before start time")
	}
	a.d.EndTime = &at
	a.d.Status = AppointmentStatusCompleted
	return nil
}

// Duration is the time between start and end of a completed appointment.
func (a *Appointment) Duration() (time.Duration, error) {
	if a.d.Status != AppointmentStatusCompleted || a.d.EndTime == nil {
		return 0, apperrors.IllegalState("appointment is not completed")
	}
	return a.d.EndTime.Sub(a.d.StartTime), nil
}

func (a *Appointment) Snapshot() AppointmentData {
	return RestoreAppointment(a.Base, a.d).d
}

func (a *Appointment) Clone() *Appointment {
	return RestoreAppointment(a.Base, a.d)
}

func (a *Appointment) MarshalJSON() ([]byte, error) {
	out := struct {
		Base
		AppointmentData
		DurationMinutes *float64 `json:"duration_minutes,omitempty"`
	}{Base: a.Base, AppointmentData: a.Snapshot()}
	if d, err := a.Duration(); err == nil {
		m := d.Minutes()
		out.DurationMinutes = &m
	}
	return json.Marshal(out)
}

type AppointmentFilter struct {
	PetID      int64
	EmployeeID int64
	Status     AppointmentStatus
}
