package domain

import "time"

// DomainEvent is an immutable fact about something that happened to an Event.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventCreated is raised when a new event is drafted.
type EventCreated struct {
	EventID    string    `json:"eventId"`
	Name       string    `json:"name"`
	OccurredOn time.Time `json:"occurredOn"`
}

func (EventCreated) EventType() string { return "EventCreated" }
func (e EventCreated) AggregateID() string { return e.EventID }
func (e EventCreated) OccurredAt() time.Time { return e.OccurredOn }

// EventPublished is raised when a draft goes on sale.
type EventPublished struct {
	EventID    string    `json:"eventId"`
	OccurredOn time.Time `json:"occurredOn"`
}

func (EventPublished) EventType() string { return "EventPublished" }
func (e EventPublished) AggregateID() string { return e.EventID }
func (e EventPublished) OccurredAt() time.Time { return e.OccurredOn }
