package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is the aggregate root for a ticketed event composed of priced sections.
// Lifecycle operations buffer domain events until the caller drains them.
type Event struct {
	id          string
	name        string
	description string
	date        EventDate
	duration    Duration
	state       State
	sections    []*Section
	version     int64
	createdAt   time.Time
	publishedAt *time.Time

	pending []DomainEvent
}

type NewEventParams struct {
	Name        string
	Description string
	Date        time.Time
	Duration    Duration
	Sections    []*Section
}

// NewEvent drafts a new event. now is used both for the date check and as the
// creation timestamp.
func NewEvent(p NewEventParams, now time.Time) (*Event, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, invalidArgument("name", "must not be empty")
	}
	if p.Sections == nil {
		return nil, nullValue("sections")
	}
	if len(p.Sections) == 0 {
		return nil, invalidArgument("sections", "must contain at least one section")
	}
	for _, s := range p.Sections {
		if s == nil {
			return nil, nullValue("section")
		}
	}
	date, err := NewEventDate(p.Date, now)
	if err != nil {
		return nil, err
	}
	if p.Duration.IsZero() {
		return nil, nullValue("duration")
	}

	sections := make([]*Section, 0, len(p.Sections))
	for _, s := range p.Sections {
		if err := checkUnique(sections, s); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}

	now = now.UTC()
	e := &Event{
		id:          uuid.NewString(),
		name:        p.Name,
		description: p.Description,
		date:        date,
		duration:    p.Duration,
		state:       StateDraft,
		sections:    sections,
		createdAt:   now,
	}
	e.raise(EventCreated{EventID: e.id, Name: e.name, OccurredOn: now})
	return e, nil
}

// Publish moves a draft on sale.
func (e *Event) Publish(now time.Time) error {
	if !e.state.IsDraft() {
		return &InvalidStateError{Operation: "publish", Current: e.state}
	}
	now = now.UTC()
	e.state = StatePublished
	e.publishedAt = &now
	e.raise(EventPublished{EventID: e.id, OccurredOn: now})
	return nil
}

func (e *Event) Finalize() error {
	if !e.state.CanTransitionTo(StateFinalized) {
		return &InvalidStateError{Operation: "finalize", Current: e.state}
	}
	e.state = StateFinalized
	return nil
}

// Cancel is idempotent for an already cancelled event.
func (e *Event) Cancel() error {
	if e.state.IsCancelled() {
		return nil
	}
	if !e.state.CanTransitionTo(StateCancelled) {
		return &InvalidStateError{Operation: "cancel", Current: e.state}
	}
	e.state = StateCancelled
	return nil
}

func (e *Event) AddSection(s *Section) error {
	if s == nil {
		return nullValue("section")
	}
	if err := checkUnique(e.sections, s); err != nil {
		return err
	}
	e.sections = append(e.sections, s)
	return nil
}

func checkUnique(existing []*Section, s *Section) error {
	for _, cur := range existing {
		if cur.id == s.id {
			return fmt.Errorf("%w: section id %s already exists", ErrDuplicateEntity, s.id)
		}
		if cur.name == s.name {
			return fmt.Errorf("%w: section name %q already exists", ErrDuplicateEntity, s.name)
		}
	}
	return nil
}

func (e *Event) raise(ev DomainEvent) {
	e.pending = append(e.pending, ev)
}

// PendingEvents returns a snapshot of the events raised since the last clear.
// Calling it does not consume the buffer.
func (e *Event) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(e.pending))
	copy(out, e.pending)
	return out
}

func (e *Event) ClearPendingEvents() {
	e.pending = nil
}

func (e *Event) ID() string { return e.id }
func (e *Event) Name() string { return e.name }
func (e *Event) Description() string { return e.description }
func (e *Event) Date() EventDate { return e.date }
func (e *Event) Duration() Duration { return e.duration }
func (e *Event) State() State { return e.state }
func (e *Event) Version() int64 { return e.version }
func (e *Event) CreatedAt() time.Time {
	return e.createdAt
}

// PublishedAt is nil until the event has been published.
func (e *Event) PublishedAt() *time.Time {
	if e.publishedAt == nil {
		return nil
	}
	t := *e.publishedAt
	return &t
}

// Sections returns the sections in insertion order.
func (e *Event) Sections() []*Section {
	out := make([]*Section, len(e.sections))
	copy(out, e.sections)
	return out
}

// SetVersion is called by repositories after a successful write.
func (e *Event) SetVersion(v int64) {
	e.version = v
}
