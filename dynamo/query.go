package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type Querier struct {
	awsddb AWSClient

	def     Table
	keyCond KeyCondition

	lastCursor map[string]types.AttributeValue
	done       bool

	opts queryOptions
}

type queryOptions struct {
	eventuallyConsistent bool
	pageSize             int32
	descending           bool
	filter               expression.ConditionBuilder
	projection           []string
}

const defaultPageSize = 25

// KeyCondition pins the partition and optionally narrows the sort key range.
type KeyCondition struct {
	partition any
	strategy  SortKeyStrategy
}

func NewKeyCondition(partition any, strategy SortKeyStrategy) KeyCondition {
	return KeyCondition{partition: partition, strategy: strategy}
}

// PartitionOnly matches every item in the partition.
func PartitionOnly(partition any) KeyCondition {
	return KeyCondition{partition: partition}
}

func NewQuerier(awsddb AWSClient, def Table, kc KeyCondition) *Querier {
	return &Querier{
		awsddb:  awsddb,
		def:     def,
		keyCond: kc,
		opts:    queryOptions{pageSize: defaultPageSize},
	}
}

type QueryResult struct {
	Items  []Item
	IsDone bool
}

// Next returns the next page. IsDone is true when the cursor is exhausted.
func (q *Querier) Next(ctx context.Context) (*QueryResult, error) {
	if q.done {
		return &QueryResult{IsDone: true}, nil
	}
	key := expression.KeyEqual(
		expression.Key(q.def.Keys.PartitionKey.Name),
		expression.Value(q.keyCond.partition))
	if q.keyCond.strategy != nil {
		key = key.And(q.keyCond.strategy(q.def.Keys.SortKey.Name))
	}
	b := expression.NewBuilder().WithKeyCondition(key)
	if q.opts.filter.IsSet() {
		b = b.WithFilter(q.opts.filter)
	}
	if len(q.opts.projection) > 0 {
		b = b.WithProjection(namesList(q.opts.projection))
	}
	expr, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	res, err := q.awsddb.Query(ctx, &dynamodb.QueryInput{
		TableName:                 &q.def.Name,
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeValues: expr.Values(),
		ExpressionAttributeNames:  expr.Names(),
		ConsistentRead:            ptr(!q.opts.eventuallyConsistent),
		Limit:                     ptr(q.opts.pageSize),
		ScanIndexForward:          ptr(!q.opts.descending),
		ExclusiveStartKey:         q.lastCursor,
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	q.lastCursor = res.LastEvaluatedKey
	q.done = res.LastEvaluatedKey == nil
	return &QueryResult{
		Items:  res.Items,
		IsDone: q.done,
	}, nil
}

// All drains the cursor and returns every matching item.
func (q *Querier) All(ctx context.Context) ([]Item, error) {
	var items []Item
	for {
		res, err := q.Next(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, res.Items...)
		if res.IsDone {
			return items, nil
		}
	}
}

func (q *Querier) WithEventuallyConsistentReads() *Querier {
	q.opts.eventuallyConsistent = true
	return q
}

func (q *Querier) WithDescending() *Querier {
	q.opts.descending = true
	return q
}

func (q *Querier) WithPageSize(limit int) *Querier {
	q.opts.pageSize = int32(limit)
	return q
}

func (q *Querier) WithFilter(c expression.ConditionBuilder) *Querier {
	q.opts.filter = c
	return q
}

// WithProjection limits which attributes are returned.
func (q *Querier) WithProjection(attrs ...string) *Querier {
	q.opts.projection = attrs
	return q
}

func namesList(attrs []string) expression.ProjectionBuilder {
	var proj expression.ProjectionBuilder
	for i, attr := range attrs {
		if i == 0 {
			proj = expression.NamesList(expression.Name(attr))
		} else {
			proj = proj.AddNames(expression.Name(attr))
		}
	}
	return proj
}
