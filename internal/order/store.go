package order

import (
	"context"
	"fmt"

	"github.com/acksell/storefront/dynamo"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// Store persists orders. Status updates and deletes are conditional on
// the order existing, so callers can report 404 instead of silently
// creating or no-opping.
type Store struct {
	client *dynamo.Client
	def    dynamo.Table
}

func NewStore(client *dynamo.Client, def dynamo.Table) *Store {
	return &Store{client: client, def: def}
}

// Create fails with dynamo.ErrConditionFailed when the (email, id) pair
// is already taken. With generated ids that only happens on a replayed
// request.
func (s *Store) Create(ctx context.Context, o Order) error {
	if err := s.client.PutItem(ctx, dynamo.NewCreate(s.def, o)); err != nil {
		return fmt.Errorf("create order %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, email, id string) (Order, error) {
	key, err := s.def.Key(email, id)
	if err != nil {
		return Order{}, fmt.Errorf("key for order %s: %w", id, err)
	}
	item, err := s.client.NewLookup().GetItem(ctx, s.def, key)
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	var o Order
	if err := attributevalue.UnmarshalMap(item, &o); err != nil {
		return Order{}, fmt.Errorf("unmarshal order %s: %w", id, err)
	}
	return o, nil
}

// ListByEmail queries the customer's partition. IDs sort by placement
// time, so the result is oldest first.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	items, err := s.client.NewQuery(s.def, dynamo.PartitionOnly(email)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", email, err)
	}
	orders := make([]Order, len(items))
	for i, item := range items {
		if err := attributevalue.UnmarshalMap(item, &orders[i]); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
	}
	return orders, nil
}

// UpdateStatus sets the status only if the order exists; fails with
// dynamo.ErrConditionFailed otherwise.
func (s *Store) UpdateStatus(ctx context.Context, email, id, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("unknown order status %q", status)
	}
	key, err := s.def.Key(email, id)
	if err != nil {
		return fmt.Errorf("key for order %s: %w", id, err)
	}
	u := dynamo.NewExistingUpdate(s.def, key).
		Set(dynamo.SetField("status", status))
	if err := s.client.UpdateItem(ctx, u); err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	return nil
}

// Delete fails with dynamo.ErrConditionFailed when the order is missing.
func (s *Store) Delete(ctx context.Context, email, id string) error {
	key, err := s.def.Key(email, id)
	if err != nil {
		return fmt.Errorf("key for order %s: %w", id, err)
	}
	if err := s.client.DeleteItem(ctx, dynamo.NewExistingDelete(s.def, key)); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}
