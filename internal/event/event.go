// Package event keeps the audit trail. Each row snapshots an entity at
// the moment something happened to it; the table's TTL attribute expires
// rows after the configured retention.
package event

import (
	"fmt"
	"strings"
	"time"
)

// Entity kinds the trail covers.
const (
	KindOrder   = "order"
	KindProduct = "product"
)

// Record is one audit row. The partition key encodes the entity
// ("order#<id>"), the sort key the event type and timestamp
// ("ORDER_CREATED#2026-08-30T12:00:00.000000001Z"), so rows for one
// entity sort chronologically within an event type.
type Record struct {
	PK         string    `dynamodbav:"pk" json:"-"`
	SK         string    `dynamodbav:"sk" json:"-"`
	EventType  string    `dynamodbav:"event_type" json:"eventType"`
	EntityID   string    `dynamodbav:"entity_id" json:"entityId"`
	OccurredAt time.Time `dynamodbav:"occurred_at" json:"occurredAt"`
	Payload    string    `dynamodbav:"payload,omitempty" json:"payload,omitempty"`
}

func (r Record) IsValid() error {
	if r.PK == "" || r.SK == "" {
		return fmt.Errorf("event record is missing its key")
	}
	if r.EventType == "" {
		return fmt.Errorf("event record has no event type")
	}
	return nil
}

// NewRecord builds the keyed row for one event.
func NewRecord(kind, entityID, eventType string, occurredAt time.Time, payload []byte) Record {
	return Record{
		PK:         PartitionFor(kind, entityID),
		SK:         eventType + "#" + occurredAt.UTC().Format(time.RFC3339Nano),
		EventType:  eventType,
		EntityID:   entityID,
		OccurredAt: occurredAt.UTC(),
		Payload:    string(payload),
	}
}

// PartitionFor encodes the partition key for an entity's audit rows.
func PartitionFor(kind, entityID string) string {
	return kind + "#" + entityID
}

// KindForEventType maps an event type like ORDER_CREATED to the entity
// kind its audit rows are filed under.
func KindForEventType(eventType string) (string, error) {
	switch {
	case strings.HasPrefix(eventType, "ORDER_"):
		return KindOrder, nil
	case strings.HasPrefix(eventType, "PRODUCT_"):
		return KindProduct, nil
	default:
		return "", fmt.Errorf("unrecognized event type %q", eventType)
	}
}
