package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/eventmesh-lab/events-service/internal/clock"
	"github.com/eventmesh-lab/events-service/internal/domain"
)

// Transport delivers an encoded message to the bus.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder counts publish outcomes per event type.
type Recorder interface {
	EventPublished(eventType string)
	EventPublishFailed(eventType string)
}

type nopRecorder struct{}

func (nopRecorder) EventPublished(string)     {}
func (nopRecorder) EventPublishFailed(string) {}

// Publisher encodes domain events and hands them to a Transport. Failures are
// logged and counted, then returned as-is; there is no retry.
type Publisher struct {
	transport Transport
	clock     clock.Clock
	logger    *zap.Logger
	metrics   Recorder
}

type PublisherOption func(*Publisher)

func WithLogger(l *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithRecorder(r Recorder) PublisherOption {
	return func(p *Publisher) {
		if r != nil {
			p.metrics = r
		}
	}
}

func NewPublisher(transport Transport, clk clock.Clock, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		transport: transport,
		clock:     clk,
		logger:    zap.NewNop(),
		metrics:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	msg, err := Encode(event, p.clock.Now())
	if err != nil {
		p.logger.Error("encode domain event", zap.Error(err))
		return err
	}

	if err := p.transport.Send(ctx, msg); err != nil {
		p.metrics.EventPublishFailed(msg.Type)
		p.logger.Error("publish domain event",
			zap.String("type", msg.Type),
			zap.String("routing_key", msg.RoutingKey),
			zap.String("aggregate_id", event.AggregateID()),
			zap.Error(err),
		)
		return err
	}

	p.metrics.EventPublished(msg.Type)
	p.logger.Debug("domain event published",
		zap.String("type", msg.Type),
		zap.String("aggregate_id", event.AggregateID()),
	)
	return nil
}
