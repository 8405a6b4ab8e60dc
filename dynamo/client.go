package dynamo

import (
	"context"
	"fmt"
)

func New(awsddb AWSClient) *Client {
	return &Client{awsddb: awsddb}
}

type Client struct {
	awsddb AWSClient
}

func (c *Client) PutItem(ctx context.Context, p *Put) error {
	in, err := p.ToPutItem()
	if err != nil {
		return fmt.Errorf("build put item: %w", err)
	}
	if _, err := c.awsddb.PutItem(ctx, in); err != nil {
		return fmt.Errorf("put item: %w", mapWriteError(err))
	}
	return nil
}

func (c *Client) UpdateItem(ctx context.Context, u *Update) error {
	in, err := u.ToUpdateItem()
	if err != nil {
		return fmt.Errorf("build update item: %w", err)
	}
	if _, err := c.awsddb.UpdateItem(ctx, in); err != nil {
		return fmt.Errorf("update item: %w", mapWriteError(err))
	}
	return nil
}

func (c *Client) DeleteItem(ctx context.Context, d *Delete) error {
	in, err := d.ToDeleteItem()
	if err != nil {
		return fmt.Errorf("build delete item: %w", err)
	}
	if _, err := c.awsddb.DeleteItem(ctx, in); err != nil {
		return fmt.Errorf("delete item: %w", mapWriteError(err))
	}
	return nil
}

// NewLookup creates a getter for direct lookups by primary key.
//
// Options: [WithEventualConsistency]
func (c *Client) NewLookup(opts ...GetOption) *Getter {
	return NewGetter(c.awsddb, opts...)
}

// NewQuery creates a querier over one partition.
//
// Configure with method chaining: WithDescending(), WithPageSize(n),
// WithProjection(...), WithEventuallyConsistentReads().
func (c *Client) NewQuery(def Table, kc KeyCondition) *Querier {
	return NewQuerier(c.awsddb, def, kc)
}

// NewScan creates a scanner over a whole table.
func (c *Client) NewScan(def Table) *Scanner {
	return NewScanner(c.awsddb, def)
}
