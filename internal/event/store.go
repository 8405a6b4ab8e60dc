package event

import (
	"context"
	"fmt"
	"time"

	"github.com/acksell/storefront/dynamo"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// Store writes and queries audit rows.
type Store struct {
	client    *dynamo.Client
	def       dynamo.Table
	retention time.Duration
}

func NewStore(client *dynamo.Client, def dynamo.Table, retention time.Duration) *Store {
	return &Store{client: client, def: def, retention: retention}
}

// Record writes one audit row with its expiry stamped from the store's
// retention. Rewriting the same row on redelivery is harmless.
func (s *Store) Record(ctx context.Context, r Record) error {
	put := dynamo.NewPut(s.def, r).WithTTL(r.OccurredAt.Add(s.retention))
	if err := s.client.PutItem(ctx, put); err != nil {
		return fmt.Errorf("record %s for %s: %w", r.EventType, r.PK, err)
	}
	return nil
}

// List returns an entity's audit rows in chronological order within each
// event type. typePrefix narrows to one event type when non-empty.
func (s *Store) List(ctx context.Context, kind, entityID, typePrefix string) ([]Record, error) {
	partition := PartitionFor(kind, entityID)
	kc := dynamo.PartitionOnly(partition)
	if typePrefix != "" {
		kc = dynamo.NewKeyCondition(partition, dynamo.BeginsWith(typePrefix))
	}
	items, err := s.client.NewQuery(s.def, kc).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", partition, err)
	}
	records := make([]Record, len(items))
	for i, item := range items {
		if err := attributevalue.UnmarshalMap(item, &records[i]); err != nil {
			return nil, fmt.Errorf("unmarshal event row: %w", err)
		}
	}
	return records, nil
}
