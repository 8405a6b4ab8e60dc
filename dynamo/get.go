package dynamo

import (
	"context"
	"fmt"

	"github.com/acksell/storefront/dynamo/table"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type Getter struct {
	awsddb AWSClient
	opts   getOpts
}

type getOpts struct {
	// Reads are strongly consistent unless opted out; stale reads after a
	// conditional write are an easy way to confuse callers.
	eventuallyConsistent bool
}

// GetOption configures the getter.
type GetOption func(*getOpts)

// WithEventualConsistency opts into eventually consistent reads.
func WithEventualConsistency() GetOption {
	return func(o *getOpts) {
		o.eventuallyConsistent = true
	}
}

func NewGetter(awsddb AWSClient, opts ...GetOption) *Getter {
	g := &Getter{awsddb: awsddb}
	for _, opt := range opts {
		opt(&g.opts)
	}
	return g
}

// GetItem retrieves a single item. Returns ErrNotFound when no item exists
// under the key.
func (g *Getter) GetItem(ctx context.Context, def Table, key table.PrimaryKey) (Item, error) {
	ddbKey, err := key.DDB()
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	res, err := g.awsddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &def.Name,
		Key:            ddbKey,
		ConsistentRead: ptr(!g.opts.eventuallyConsistent),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if res.Item == nil {
		return nil, ErrNotFound
	}
	return res.Item, nil
}

func ptr[T any](v T) *T {
	return &v
}
