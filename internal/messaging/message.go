package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eventmesh-lab/events-service/internal/domain"
)

// Message is a domain event in wire form. Payload is the JSON encoding of the
// event; RoutingKey is the lowercased event type. AggregateID identifies the
// event the fact belongs to and orders messages on partitioned transports.
type Message struct {
	Type        string
	RoutingKey  string
	AggregateID string
	Payload     []byte
	Timestamp   time.Time
}

// Encode converts a domain event into a Message stamped with now (UTC).
func Encode(event domain.DomainEvent, now time.Time) (Message, error) {
	if event == nil {
		return Message{}, fmt.Errorf("encode: %w", domain.ErrNullValue)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	return Message{
		Type:        event.EventType(),
		RoutingKey:  RoutingKey(event.EventType()),
		AggregateID: event.AggregateID(),
		Payload:     payload,
		Timestamp:   now.UTC(),
	}, nil
}

func RoutingKey(eventType string) string {
	return strings.ToLower(eventType)
}
