package dynamo

import (
	"fmt"
	"time"

	"github.com/acksell/storefront/dynamo/table"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type Update struct {
	def Table
	key table.PrimaryKey

	fields    map[string]FieldOp
	cond      expression.ConditionBuilder
	ttlExpiry *time.Time
}

func NewUpdate(def Table, key table.PrimaryKey) *Update {
	return &Update{def: def, key: key}
}

// NewExistingUpdate updates an item only if it already exists.
func NewExistingUpdate(def Table, key table.PrimaryKey) *Update {
	return NewUpdate(def, key).WithCondition(
		expression.AttributeExists(expression.Name(def.Keys.PartitionKey.Name)))
}

func (u *Update) Set(op FieldOp) *Update {
	if u.fields == nil {
		u.fields = make(map[string]FieldOp)
	}
	if _, ok := u.fields[op.Field()]; ok {
		panic(fmt.Sprintf("field %s already has an operation in this update", op.Field()))
	}
	u.fields[op.Field()] = op
	return u
}

func (u *Update) RefreshTTL(expiry time.Time) *Update {
	u.ttlExpiry = &expiry
	return u
}

func (u *Update) WithCondition(c expression.ConditionBuilder) *Update {
	if u.cond.IsSet() {
		u.cond = u.cond.And(c)
		return u
	}
	u.cond = c
	return u
}

func (u *Update) build() (expression.Expression, error) {
	var up expression.UpdateBuilder
	if u.ttlExpiry != nil {
		if u.def.TimeToLiveKey == "" {
			return expression.Expression{}, fmt.Errorf("table %s has no TTL attribute", u.def.Name)
		}
		up = up.Set(expression.Name(u.def.TimeToLiveKey), expression.Value(ttlDDB(*u.ttlExpiry)))
	}
	if len(u.fields) == 0 && u.ttlExpiry == nil {
		return expression.Expression{}, fmt.Errorf("update has no operations")
	}
	for _, op := range u.fields {
		up = op.Apply(up)
	}
	b := expression.NewBuilder().WithUpdate(up)
	if u.cond.IsSet() {
		b = b.WithCondition(u.cond)
	}
	expr, err := b.Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build expression: %w", err)
	}
	return expr, nil
}

func (u *Update) ToUpdateItem() (*dynamodb.UpdateItemInput, error) {
	expr, err := u.build()
	if err != nil {
		return nil, err
	}
	key, err := u.key.DDB()
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return &dynamodb.UpdateItemInput{
		TableName:                 &u.def.Name,
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeValues: expr.Values(),
		ExpressionAttributeNames:  expr.Names(),
	}, nil
}
