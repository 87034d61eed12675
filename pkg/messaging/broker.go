package messaging

import (
	"context"
	"encoding/json"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope every domain event travels in.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	EntityID  int64           `json:"entity_id"`
	ActorRole string          `json:"actor_role"`
	ActorID   int64           `json:"actor_id"`
	Payload   json.RawMessage `json:"payload"`
}
