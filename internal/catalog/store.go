package catalog

import (
	"context"
	"fmt"

	"github.com/acksell/storefront/dynamo"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// Store persists products. Creates and replacements are conditional so
// the HTTP layer can tell "already exists" and "never existed" apart.
type Store struct {
	client *dynamo.Client
	def    dynamo.Table
}

func NewStore(client *dynamo.Client, def dynamo.Table) *Store {
	return &Store{client: client, def: def}
}

// Create fails with dynamo.ErrConditionFailed when the id is taken.
func (s *Store) Create(ctx context.Context, p Product) error {
	if err := s.client.PutItem(ctx, dynamo.NewCreate(s.def, p)); err != nil {
		return fmt.Errorf("create product %s: %w", p.ID, err)
	}
	return nil
}

// Replace overwrites an existing product. Fails with
// dynamo.ErrConditionFailed when no product has the id.
func (s *Store) Replace(ctx context.Context, p Product) error {
	if err := s.client.PutItem(ctx, dynamo.NewReplace(s.def, p)); err != nil {
		return fmt.Errorf("replace product %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Product, error) {
	key, err := s.def.Key(id)
	if err != nil {
		return Product{}, fmt.Errorf("key for product %s: %w", id, err)
	}
	item, err := s.client.NewLookup().GetItem(ctx, s.def, key)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	var p Product
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return Product{}, fmt.Errorf("unmarshal product %s: %w", id, err)
	}
	return p, nil
}

// List scans the whole catalog. The catalog is small; a scan per listing
// is the simplest contract.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	items, err := s.client.NewScan(s.def).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]Product, len(items))
	for i, item := range items {
		if err := attributevalue.UnmarshalMap(item, &products[i]); err != nil {
			return nil, fmt.Errorf("unmarshal product: %w", err)
		}
	}
	return products, nil
}

// Delete fails with dynamo.ErrConditionFailed when no product has the id.
func (s *Store) Delete(ctx context.Context, id string) error {
	key, err := s.def.Key(id)
	if err != nil {
		return fmt.Errorf("key for product %s: %w", id, err)
	}
	if err := s.client.DeleteItem(ctx, dynamo.NewExistingDelete(s.def, key)); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}
