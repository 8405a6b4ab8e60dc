// Package bus carries order and product events between the handlers and
// the queue workers. The publisher stamps each message with an eventType
// attribute so topic subscriptions can filter without parsing the body.
package bus

import (
	"context"
	"encoding/json"
	"time"
)

// Event types carried on the topic.
const (
	OrderCreated   = "ORDER_CREATED"
	OrderUpdated   = "ORDER_UPDATED"
	OrderDeleted   = "ORDER_DELETED"
	ProductCreated = "PRODUCT_CREATED"
	ProductUpdated = "PRODUCT_UPDATED"
	ProductDeleted = "PRODUCT_DELETED"
)

// Event is the message envelope. Payload is a snapshot of the entity at
// the time of the event.
type Event struct {
	Type       string          `json:"type"`
	EntityID   string          `json:"entityId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent snapshots the payload into an envelope.
func NewEvent(eventType, entityID string, payload any) (Event, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		raw = data
	}
	return Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Publisher pushes events onto the topic.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler processes one delivered event. Returning an error leaves the
// message on the queue for redelivery; the broker dead-letters it after
// the declared receive limit.
type Handler func(ctx context.Context, ev Event) error

// Consumer pulls events off a queue and dispatches them to a handler
// until the context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handle Handler) error
}
