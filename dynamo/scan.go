package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Scanner pages through a whole table. The catalog listing is the only
// caller; everything else queries a partition.
type Scanner struct {
	awsddb AWSClient
	def    Table

	lastCursor map[string]types.AttributeValue
	done       bool

	pageSize   int32
	filter     expression.ConditionBuilder
	projection []string
}

func NewScanner(awsddb AWSClient, def Table) *Scanner {
	return &Scanner{
		awsddb:   awsddb,
		def:      def,
		pageSize: defaultPageSize,
	}
}

func (s *Scanner) WithPageSize(limit int) *Scanner {
	s.pageSize = int32(limit)
	return s
}

func (s *Scanner) WithFilter(c expression.ConditionBuilder) *Scanner {
	s.filter = c
	return s
}

func (s *Scanner) WithProjection(attrs ...string) *Scanner {
	s.projection = attrs
	return s
}

func (s *Scanner) Next(ctx context.Context) (*QueryResult, error) {
	if s.done {
		return &QueryResult{IsDone: true}, nil
	}
	in := &dynamodb.ScanInput{
		TableName:         &s.def.Name,
		Limit:             ptr(s.pageSize),
		ExclusiveStartKey: s.lastCursor,
	}
	if s.filter.IsSet() || len(s.projection) > 0 {
		b := expression.NewBuilder()
		if s.filter.IsSet() {
			b = b.WithFilter(s.filter)
		}
		if len(s.projection) > 0 {
			b = b.WithProjection(namesList(s.projection))
		}
		expr, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("build scan expression: %w", err)
		}
		in.FilterExpression = expr.Filter()
		in.ProjectionExpression = expr.Projection()
		in.ExpressionAttributeValues = expr.Values()
		in.ExpressionAttributeNames = expr.Names()
	}

	res, err := s.awsddb.Scan(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	s.lastCursor = res.LastEvaluatedKey
	s.done = res.LastEvaluatedKey == nil
	return &QueryResult{
		Items:  res.Items,
		IsDone: s.done,
	}, nil
}

// All drains the scan and returns every item in the table.
func (s *Scanner) All(ctx context.Context) ([]Item, error) {
	var items []Item
	for {
		res, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, res.Items...)
		if res.IsDone {
			return items, nil
		}
	}
}
