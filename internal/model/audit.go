package model

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID         int64           `json:"id" db:"id"`
	ActorRole  Role            `json:"actor_role" db:"actor_role"`
	ActorID    int64           `json:"actor_id" db:"actor_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   int64           `json:"entity_id" db:"entity_id"`
	Outcome    string          `json:"outcome" db:"outcome"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	AuditOutcomeAllowed = "allowed"
	AuditOutcomeDenied  = "denied"
)

type AuditLogFilter struct {
	ActorRole  Role
	ActorID    int64
	EntityType string
	Outcome    string
	Since      time.Time
	Limit      int
}
