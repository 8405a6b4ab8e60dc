package dynamo

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Entity is anything storable. IsValid is called before building the write.
type Entity interface {
	IsValid() error
}

type Put struct {
	def    Table
	entity Entity

	cond      expression.ConditionBuilder
	ttlExpiry *time.Time
}

func NewPut(def Table, e Entity) *Put {
	return &Put{def: def, entity: e}
}

// NewCreate is a put that only succeeds when no item exists under the key.
func NewCreate(def Table, e Entity) *Put {
	return NewPut(def, e).WithCondition(
		expression.AttributeNotExists(expression.Name(def.Keys.PartitionKey.Name)))
}

// NewReplace is a put that only succeeds when the item already exists,
// i.e. "update only if item exists".
func NewReplace(def Table, e Entity) *Put {
	return NewPut(def, e).WithCondition(
		expression.AttributeExists(expression.Name(def.Keys.PartitionKey.Name)))
}

func (p *Put) WithTTL(expiry time.Time) *Put {
	p.ttlExpiry = &expiry
	return p
}

// WithCondition ANDs a condition expression onto the put.
func (p *Put) WithCondition(c expression.ConditionBuilder) *Put {
	if p.cond.IsSet() {
		p.cond = p.cond.And(c)
		return p
	}
	p.cond = c
	return p
}

func (p *Put) build() (expression.Expression, Item, error) {
	if err := p.entity.IsValid(); err != nil {
		return expression.Expression{}, nil, fmt.Errorf("entity not valid: %w", err)
	}
	doc, err := attributevalue.MarshalMap(p.entity)
	if err != nil {
		return expression.Expression{}, nil, fmt.Errorf("marshal entity: %w", err)
	}
	if _, err := p.def.ExtractKey(doc); err != nil {
		return expression.Expression{}, nil, fmt.Errorf("entity does not carry the table key: %w", err)
	}
	if p.ttlExpiry != nil {
		if p.def.TimeToLiveKey == "" {
			return expression.Expression{}, nil, fmt.Errorf("table %s has no TTL attribute", p.def.Name)
		}
		doc[p.def.TimeToLiveKey] = ttlDDB(*p.ttlExpiry)
	}
	// The builder rejects an empty build; only invoke it when a condition
	// is actually set.
	if !p.cond.IsSet() {
		return expression.Expression{}, doc, nil
	}
	expr, err := expression.NewBuilder().WithCondition(p.cond).Build()
	if err != nil {
		return expression.Expression{}, nil, fmt.Errorf("build expression: %w", err)
	}
	return expr, doc, nil
}

func (p *Put) ToPutItem() (*dynamodb.PutItemInput, error) {
	expr, doc, err := p.build()
	if err != nil {
		return nil, err
	}
	return &dynamodb.PutItemInput{
		TableName:                 &p.def.Name,
		Item:                      doc,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeValues: expr.Values(),
		ExpressionAttributeNames:  expr.Names(),
	}, nil
}
