package localstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/acksell/storefront/dynamo/table"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

func (s *Store) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	def, err := s.tableFor(params.TableName)
	if err != nil {
		return nil, err
	}
	if params.KeyConditionExpression == nil {
		return nil, fmt.Errorf("key condition expression is required")
	}

	matches, err := s.collect(def, func(item map[string]types.AttributeValue) (bool, error) {
		ok, err := evalCondition(*params.KeyConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, item)
		if err != nil || !ok {
			return false, err
		}
		if params.FilterExpression != nil {
			return evalCondition(*params.FilterExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, item)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		reverse(matches)
	}

	page, last, err := paginate(def, matches, params.ExclusiveStartKey, params.Limit)
	if err != nil {
		return nil, err
	}
	page, err = project(page, params.ProjectionExpression, params.ExpressionAttributeNames)
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{
		Items:            page,
		Count:            int32(len(page)),
		LastEvaluatedKey: last,
	}, nil
}

func (s *Store) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	def, err := s.tableFor(params.TableName)
	if err != nil {
		return nil, err
	}
	matches, err := s.collect(def, func(item map[string]types.AttributeValue) (bool, error) {
		if params.FilterExpression != nil {
			return evalCondition(*params.FilterExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, item)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	page, last, err := paginate(def, matches, params.ExclusiveStartKey, params.Limit)
	if err != nil {
		return nil, err
	}
	page, err = project(page, params.ProjectionExpression, params.ExpressionAttributeNames)
	if err != nil {
		return nil, err
	}
	return &dynamodb.ScanOutput{
		Items:            page,
		Count:            int32(len(page)),
		LastEvaluatedKey: last,
	}, nil
}

// collect walks the table prefix in key order and keeps matching items.
// Keys encode partition then sort key, so matches for one partition come
// back sorted.
func (s *Store) collect(def table.Definition, match func(map[string]types.AttributeValue) (bool, error)) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = tablePrefix(def)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var item map[string]types.AttributeValue
			err := it.Item().Value(func(val []byte) error {
				var err error
				item, err = deserializeItem(val)
				return err
			})
			if err != nil {
				return err
			}
			ok, err := match(item)
			if err != nil {
				return err
			}
			if ok {
				items = append(items, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// paginate applies the exclusive start cursor and the page limit, returning
// the page and the cursor for the next one (nil when exhausted).
func paginate(def table.Definition, items []map[string]types.AttributeValue, startKey map[string]types.AttributeValue, limit *int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	start := 0
	if startKey != nil {
		startPK, err := def.ExtractKey(startKey)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid exclusive start key: %w", err)
		}
		for i, item := range items {
			pk, err := def.ExtractKey(item)
			if err != nil {
				return nil, nil, err
			}
			if pk.Partition == startPK.Partition && pk.Sort == startPK.Sort {
				start = i + 1
				break
			}
		}
	}
	items = items[start:]
	if limit == nil || int(*limit) >= len(items) {
		return items, nil, nil
	}
	page := items[:*limit]
	lastItem := page[len(page)-1]
	last := make(map[string]types.AttributeValue, 2)
	last[def.Keys.PartitionKey.Name] = lastItem[def.Keys.PartitionKey.Name]
	if def.HasSortKey() {
		last[def.Keys.SortKey.Name] = lastItem[def.Keys.SortKey.Name]
	}
	return page, last, nil
}

func project(items []map[string]types.AttributeValue, expr *string, names map[string]string) ([]map[string]types.AttributeValue, error) {
	if expr == nil {
		return items, nil
	}
	var attrs []string
	for _, token := range strings.Split(*expr, ",") {
		name, err := resolveName(strings.TrimSpace(token), names)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, name)
	}
	projected := make([]map[string]types.AttributeValue, len(items))
	for i, item := range items {
		p := make(map[string]types.AttributeValue, len(attrs))
		for _, attr := range attrs {
			if v, ok := item[attr]; ok {
				p[attr] = v
			}
		}
		projected[i] = p
	}
	return projected, nil
}

func reverse(items []map[string]types.AttributeValue) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
