// Package localstore is a BadgerDB-backed stand-in for DynamoDB. It
// implements the narrow client interface the dynamo package uses, covering
// the expression shapes this repo generates: SET/REMOVE updates,
// attribute_exists / attribute_not_exists / comparison conditions, and
// partition-equality key conditions with an optional sort-key range.
// Tests and the `serve --local` development mode run against it.
package localstore

import (
	"context"
	"fmt"

	"github.com/acksell/storefront/dynamo/table"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

type Store struct {
	db     *badger.DB
	tables map[string]table.Definition
}

// Options configures the underlying BadgerDB.
type Options struct {
	// Path to the database directory. Empty means in-memory.
	Path string
}

func New(opts Options, defs ...table.Definition) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	tables := make(map[string]table.Definition, len(defs))
	for _, def := range defs {
		tables[def.Name] = def
	}
	return &Store{db: db, tables: tables}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) tableFor(name *string) (table.Definition, error) {
	if name == nil {
		return table.Definition{}, fmt.Errorf("table name is required")
	}
	def, ok := s.tables[*name]
	if !ok {
		return table.Definition{}, &types.ResourceNotFoundException{Message: name}
	}
	return def, nil
}

func (s *Store) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	def, err := s.tableFor(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := def.ExtractKey(params.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	item, err := s.load(def, pk)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (s *Store) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	def, err := s.tableFor(params.TableName)
	if err != nil {
		return nil, err
	}
	if params.Item == nil {
		return nil, fmt.Errorf("item is required")
	}
	pk, err := def.ExtractKey(params.Item)
	if err != nil {
		return nil, fmt.Errorf("item does not carry the table key: %w", err)
	}
	key, err := encodeItemKey(def, pk)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		existing, err := loadTxn(txn, key)
		if err != nil {
			return err
		}
		if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing); err != nil {
			return err
		}
		data, err := serializeItem(params.Item)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (s *Store) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	def, err := s.tableFor(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := def.ExtractKey(params.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	key, err := encodeItemKey(def, pk)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		existing, err := loadTxn(txn, key)
		if err != nil {
			return err
		}
		if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (s *Store) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	def, err := s.tableFor(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := def.ExtractKey(params.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	key, err := encodeItemKey(def, pk)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		existing, err := loadTxn(txn, key)
		if err != nil {
			return err
		}
		if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing); err != nil {
			return err
		}
		// An update of a missing item creates it, keys included, as
		// DynamoDB does.
		if existing == nil {
			existing = make(map[string]types.AttributeValue, len(params.Key))
			for k, v := range params.Key {
				existing[k] = v
			}
		}
		updated, err := applyUpdate(params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing)
		if err != nil {
			return err
		}
		data, err := serializeItem(updated)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

// load fetches and deserializes one item. Returns nil when absent.
func (s *Store) load(def table.Definition, pk table.PrimaryKey) (map[string]types.AttributeValue, error) {
	key, err := encodeItemKey(def, pk)
	if err != nil {
		return nil, err
	}
	var item map[string]types.AttributeValue
	err = s.db.View(func(txn *badger.Txn) error {
		item, err = loadTxn(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func loadTxn(txn *badger.Txn, key []byte) (map[string]types.AttributeValue, error) {
	entry, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	var item map[string]types.AttributeValue
	err = entry.Value(func(val []byte) error {
		item, err = deserializeItem(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}
