// Package dynamo is a thin typed layer over the AWS DynamoDB client.
// Writes go through action builders (Put, Update, Delete) that carry the
// table definition, condition expressions and TTL; reads go through Getter,
// Querier and Scanner. Condition failures and missing items surface as
// sentinel errors so callers can map them to their own contracts.
package dynamo

import (
	"context"

	"github.com/acksell/storefront/dynamo/table"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AWSClient is the subset of the DynamoDB API this repo uses.
// Both the real *dynamodb.Client and localstore.Store satisfy it.
type AWSClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Item is a raw DynamoDB item. Callers unmarshal with attributevalue.UnmarshalMap.
type Item = map[string]types.AttributeValue

// Table aliases the table definition type so call sites read
// dynamo.Table without a second import.
type Table = table.Definition
