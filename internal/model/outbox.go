package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Domain event types written to the outbox.
const (
	EventOwnerRegistered        = "owner.registered"
	EventOwnerUpdated           = "owner.updated"
	EventPetRegistered          = "pet.registered"
	EventPetUpdated             = "pet.updated"
	EventEmployeeHired          = "employee.hired"
	EventEmployeeUpdated        = "employee.updated"
	EventAppointmentScheduled   = "appointment.scheduled"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventAppointmentCancelled   = "appointment.cancelled"
	EventAppointmentCompleted   = "appointment.completed"
	EventRecordOpened           = "clinical_record.opened"
	EventRecordUpdated          = "clinical_record.updated"
	EventInvoiceIssued          = "invoice.issued"
	EventInvoiceUpdated         = "invoice.updated"
	EventInvoicePaid            = "invoice.paid"
	EventInvoiceSent            = "invoice.sent"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	EntityID     int64           `db:"entity_id" json:"entity_id"`
	ActorRole    Role            `db:"actor_role" json:"actor_role"`
	ActorID      int64           `db:"actor_id" json:"actor_id"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}
