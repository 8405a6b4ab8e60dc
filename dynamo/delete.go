package dynamo

import (
	"fmt"

	"github.com/acksell/storefront/dynamo/table"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type Delete struct {
	def  Table
	key  table.PrimaryKey
	cond expression.ConditionBuilder
}

func NewDelete(def Table, key table.PrimaryKey) *Delete {
	return &Delete{def: def, key: key}
}

// NewExistingDelete deletes an item only if it exists, so callers can
// distinguish "deleted" from "was never there".
func NewExistingDelete(def Table, key table.PrimaryKey) *Delete {
	return NewDelete(def, key).WithCondition(
		expression.AttributeExists(expression.Name(def.Keys.PartitionKey.Name)))
}

func (d *Delete) WithCondition(c expression.ConditionBuilder) *Delete {
	if d.cond.IsSet() {
		d.cond = d.cond.And(c)
		return d
	}
	d.cond = c
	return d
}

func (d *Delete) ToDeleteItem() (*dynamodb.DeleteItemInput, error) {
	key, err := d.key.DDB()
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	in := &dynamodb.DeleteItemInput{
		TableName: &d.def.Name,
		Key:       key,
	}
	if d.cond.IsSet() {
		expr, err := expression.NewBuilder().WithCondition(d.cond).Build()
		if err != nil {
			return nil, fmt.Errorf("build expression: %w", err)
		}
		in.ConditionExpression = expr.Condition()
		in.ExpressionAttributeValues = expr.Values()
		in.ExpressionAttributeNames = expr.Names()
	}
	return in, nil
}
