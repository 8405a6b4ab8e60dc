package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"golang.org/x/exp/constraints"
)

// FieldOp is a single-field mutation inside an Update. Only idempotent
// operations are exposed; reprocessing a queue delivery must not corrupt
// state.
type FieldOp interface {
	Field() string
	Apply(expression.UpdateBuilder) expression.UpdateBuilder
}

type number interface {
	constraints.Integer | constraints.Float
}

type setField[T any] struct {
	field string
	value T
}

// SetField overwrites the value of a field.
func SetField[T any](field string, value T) FieldOp {
	return setField[T]{field: field, value: value}
}

func (o setField[T]) Field() string { return o.field }

func (o setField[T]) Apply(up expression.UpdateBuilder) expression.UpdateBuilder {
	return up.Set(expression.Name(o.field), expression.Value(o.value))
}

type removeField struct {
	field string
}

// RemoveField deletes a field from the item.
func RemoveField(field string) FieldOp {
	return removeField{field: field}
}

func (o removeField) Field() string { return o.field }

func (o removeField) Apply(up expression.UpdateBuilder) expression.UpdateBuilder {
	return up.Remove(expression.Name(o.field))
}

type setNumber[T number] struct {
	field string
	value T
}

// SetNumber overwrites a numeric field. Prefer this over counters;
// absolute values stay idempotent under redelivery.
func SetNumber[T number](field string, value T) FieldOp {
	return setNumber[T]{field: field, value: value}
}

func (o setNumber[T]) Field() string { return o.field }

func (o setNumber[T]) Apply(up expression.UpdateBuilder) expression.UpdateBuilder {
	return up.Set(expression.Name(o.field), expression.Value(o.value))
}
