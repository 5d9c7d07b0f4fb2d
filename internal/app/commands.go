package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventmesh-lab/events-service/internal/domain"
)

type CreateEventCommand struct {
	Name            string         `json:"name" validate:"notblank,max=200"`
	Description     string         `json:"description" validate:"max=2000"`
	Date            time.Time      `json:"date" validate:"required,notpast"`
	DurationHours   int            `json:"durationHours" validate:"gte=0"`
	DurationMinutes int            `json:"durationMinutes" validate:"gte=0"`
	Sections        []SectionInput `json:"sections" validate:"required,min=1,dive"`
}

type SectionInput struct {
	Name     string          `json:"name" validate:"notblank,max=200"`
	Capacity int             `json:"capacity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
}

type PublishEventCommand struct {
	EventID string `json:"eventId" validate:"required,uuid"`
}

type FinalizeEventCommand struct {
	EventID string `json:"eventId" validate:"required,uuid"`
}

type CancelEventCommand struct {
	EventID string `json:"eventId" validate:"required,uuid"`
}

type AddSectionCommand struct {
	EventID  string          `json:"eventId" validate:"required,uuid"`
	Name     string          `json:"name" validate:"notblank,max=200"`
	Capacity int             `json:"capacity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
}

// CommandResult describes what a successful command did. Dispatched holds the
// domain events handed to the publisher, in emission order.
type CommandResult struct {
	EventID    string
	SectionID  string
	Dispatched []domain.DomainEvent
}
