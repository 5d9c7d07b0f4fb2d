package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/eventmesh-lab/events-service/internal/clock"
	"github.com/eventmesh-lab/events-service/internal/domain"
)

const tracerName = "github.com/eventmesh-lab/events-service/internal/app"

// EventService runs the Event commands. Every command follows the same steps:
// validate the request, load or build the aggregate, mutate and persist it,
// then publish its pending domain events and clear them.
type EventService struct {
	repo      EventRepository
	publisher EventPublisher
	validator Validator
	clock     clock.Clock
	logger    *zap.Logger
	tracer    trace.Tracer
}

func NewEventService(repo EventRepository, publisher EventPublisher, validator Validator, clk clock.Clock, opts ...EventServiceOption) *EventService {
	svc := &EventService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		clock:     clk,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type EventServiceOption func(*EventService)

func WithLogger(l *zap.Logger) EventServiceOption {
	return func(s *EventService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracerProvider overrides the global otel tracer provider.
func WithTracerProvider(tp trace.TracerProvider) EventServiceOption {
	return func(s *EventService) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

func (s *EventService) CreateEvent(ctx context.Context, cmd CreateEventCommand) (res CommandResult, err error) {
	ctx, span := s.tracer.Start(ctx, "EventService.CreateEvent")
	defer func() { endSpan(span, err) }()

	if err := s.validate(cmd); err != nil {
		return CommandResult{}, err
	}

	sections := make([]*domain.Section, 0, len(cmd.Sections))
	for _, in := range cmd.Sections {
		section, err := newSection(in.Name, in.Capacity, in.Price)
		if err != nil {
			return CommandResult{}, err
		}
		sections = append(sections, section)
	}

	// A zero duration is left unset so the aggregate reports it as missing.
	var duration domain.Duration
	if cmd.DurationHours != 0 || cmd.DurationMinutes != 0 {
		if duration, err = domain.NewDuration(cmd.DurationHours, cmd.DurationMinutes); err != nil {
			return CommandResult{}, err
		}
	}

	event, err := domain.NewEvent(domain.NewEventParams{
		Name:        cmd.Name,
		Description: cmd.Description,
		Date:        cmd.Date,
		Duration:    duration,
		Sections:    sections,
	}, s.clock.Now())
	if err != nil {
		return CommandResult{}, err
	}
	span.SetAttributes(attribute.String("event.id", event.ID()))

	if err := s.repo.Add(ctx, event); err != nil {
		return CommandResult{}, fmt.Errorf("add event: %w", err)
	}
	return s.dispatch(ctx, event)
}

func (s *EventService) PublishEvent(ctx context.Context, cmd PublishEventCommand) (CommandResult, error) {
	return s.apply(ctx, "EventService.PublishEvent", cmd, cmd.EventID, func(e *domain.Event) error {
		return e.Publish(s.clock.Now())
	})
}

func (s *EventService) FinalizeEvent(ctx context.Context, cmd FinalizeEventCommand) (CommandResult, error) {
	return s.apply(ctx, "EventService.FinalizeEvent", cmd, cmd.EventID, func(e *domain.Event) error {
		return e.Finalize()
	})
}

func (s *EventService) CancelEvent(ctx context.Context, cmd CancelEventCommand) (CommandResult, error) {
	return s.apply(ctx, "EventService.CancelEvent", cmd, cmd.EventID, func(e *domain.Event) error {
		return e.Cancel()
	})
}

func (s *EventService) AddSection(ctx context.Context, cmd AddSectionCommand) (CommandResult, error) {
	var sectionID string
	res, err := s.apply(ctx, "EventService.AddSection", cmd, cmd.EventID, func(e *domain.Event) error {
		section, err := newSection(cmd.Name, cmd.Capacity, cmd.Price)
		if err != nil {
			return err
		}
		if err := e.AddSection(section); err != nil {
			return err
		}
		sectionID = section.ID()
		return nil
	})
	res.SectionID = sectionID
	return res, err
}

// GetEvent loads an event for reading. Malformed ids are reported as
// domain.ErrInvalidID without touching the repository.
func (s *EventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.GetEvent", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidID
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return event, nil
}

// apply runs a command against an existing aggregate.
func (s *EventService) apply(ctx context.Context, name string, cmd any, id string, mutate func(*domain.Event) error) (res CommandResult, err error) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("event.id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.validate(cmd); err != nil {
		return CommandResult{}, err
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return CommandResult{}, err
	}
	if err := mutate(event); err != nil {
		return CommandResult{}, err
	}
	if err := s.repo.Update(ctx, event); err != nil {
		return CommandResult{}, fmt.Errorf("update event: %w", err)
	}
	return s.dispatch(ctx, event)
}

func (s *EventService) validate(cmd any) error {
	if violations := s.validator.Validate(cmd); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// dispatch publishes pending events in order and clears the buffer only when
// all of them were accepted. The aggregate is already persisted at this point.
// dispatch runs after the write has committed, so it ignores cancellation of
// the caller's context; the transport's own timeouts bound it.
func (s *EventService) dispatch(ctx context.Context, event *domain.Event) (CommandResult, error) {
	ctx = context.WithoutCancel(ctx)
	pending := event.PendingEvents()
	res := CommandResult{EventID: event.ID()}

	for i, ev := range pending {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			res.Dispatched = pending[:i]
			s.logger.Warn("event persisted with undelivered domain events",
				zap.String("event_id", event.ID()),
				zap.String("failed_type", ev.EventType()),
				zap.Int("delivered", i),
				zap.Int("undelivered", len(pending)-i),
			)
			return res, &PublishError{
				EventID:     event.ID(),
				Delivered:   pending[:i],
				Undelivered: pending[i:],
				Err:         err,
			}
		}
	}

	event.ClearPendingEvents()
	res.Dispatched = pending
	return res, nil
}

func newSection(name string, capacity int, amount decimal.Decimal) (*domain.Section, error) {
	price, err := domain.NewPrice(amount)
	if err != nil {
		return nil, err
	}
	return domain.NewSection(name, capacity, price)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		var verr *ValidationError
		if errors.As(err, &verr) {
			span.SetAttributes(attribute.Int("validation.violations", len(verr.Violations)))
		}
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
