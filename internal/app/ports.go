package app

import (
	"context"

	"github.com/eventmesh-lab/events-service/internal/domain"
)

// EventRepository persists Event aggregates. Update must reject stale writes
// with domain.ErrConcurrentUpdate and unknown ids with domain.ErrEventNotFound.
type EventRepository interface {
	Add(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

// Validator checks a command and returns every violation found.
type Validator interface {
	Validate(request any) []FieldViolation
}
