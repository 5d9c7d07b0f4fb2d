package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventSnapshot is the flat, serializable form of an Event used by
// repositories and caches. Pending domain events are not part of it.
type EventSnapshot struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Date            time.Time         `json:"date"`
	DurationHours   int               `json:"durationHours"`
	DurationMinutes int               `json:"durationMinutes"`
	State           State             `json:"state"`
	Sections        []SectionSnapshot `json:"sections"`
	Version         int64             `json:"version"`
	CreatedAt       time.Time         `json:"createdAt"`
	PublishedAt     *time.Time        `json:"publishedAt,omitempty"`
}

type SectionSnapshot struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Capacity int             `json:"capacity"`
	Price    decimal.Decimal `json:"price"`
}

func (e *Event) Snapshot() EventSnapshot {
	sections := make([]SectionSnapshot, 0, len(e.sections))
	for _, s := range e.sections {
		sections = append(sections, SectionSnapshot{
			ID:       s.id,
			Name:     s.name,
			Capacity: s.capacity,
			Price:    s.price.Amount(),
		})
	}
	return EventSnapshot{
		ID:              e.id,
		Name:            e.name,
		Description:     e.description,
		Date:            e.date.Time(),
		DurationHours:   e.duration.Hours(),
		DurationMinutes: e.duration.Minutes(),
		State:           e.state,
		Sections:        sections,
		Version:         e.version,
		CreatedAt:       e.createdAt,
		PublishedAt:     e.PublishedAt(),
	}
}

// RestoreEvent rebuilds an Event from stored state. Creation rules that
// depend on the clock (date not in the past) are not re-applied; structural
// rules are.
func RestoreEvent(s EventSnapshot) (*Event, error) {
	if s.ID == "" {
		return nil, nullValue("id")
	}
	state, err := ParseState(string(s.State))
	if err != nil {
		return nil, err
	}
	if s.Date.IsZero() {
		return nil, nullValue("date")
	}
	duration, err := NewDuration(s.DurationHours, s.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if len(s.Sections) == 0 {
		return nil, invalidArgument("sections", "must contain at least one section")
	}

	sections := make([]*Section, 0, len(s.Sections))
	for _, ss := range s.Sections {
		price, err := NewPrice(ss.Price)
		if err != nil {
			return nil, err
		}
		sec := RestoreSection(ss.ID, ss.Name, ss.Capacity, price)
		if err := checkUnique(sections, sec); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}

	e := &Event{
		id:          s.ID,
		name:        s.Name,
		description: s.Description,
		date:        EventDate{value: s.Date.UTC()},
		duration:    duration,
		state:       state,
		sections:    sections,
		version:     s.Version,
		createdAt:   s.CreatedAt.UTC(),
	}
	if s.PublishedAt != nil {
		t := s.PublishedAt.UTC()
		e.publishedAt = &t
	}
	return e, nil
}
