package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/pkg/logger"
)

// Service writes domain events to the outbox. The worker relays them to the
// broker.
type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, log *logger.Logger) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		logger:     log,
	}
}

func (s *Service) Emit(ctx context.Context, actor authz.Actor, eventType string, entityID int64, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		EntityID:  entityID,
		ActorRole: actor.Role,
		ActorID:   actor.ID,
		Payload:   payloadJSON,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// Notify emits and only logs a failure. The outbox row is written after, and
// outside, the state change it describes, so delivery is best effort: a
// failed write leaves the change committed and the event is lost, with the
// error log as the only trace.
func (s *Service) Notify(ctx context.Context, actor authz.Actor, eventType string, entityID int64, payload interface{}) {
	if err := s.Emit(ctx, actor, eventType, entityID, payload); err != nil {
		s.logger.Error(err, "failed to emit event",
			"event_type", eventType,
			"entity_id", entityID)
	}
}
