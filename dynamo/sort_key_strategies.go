package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// SortKeyStrategy narrows the sort key range of a query.
type SortKeyStrategy func(skName string) expression.KeyConditionBuilder

// Equals matches items whose sort key equals the value.
func Equals[T any](v T) SortKeyStrategy {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyEqual(expression.Key(skName), expression.Value(v))
	}
}

// BeginsWith matches items whose sort key starts with the prefix.
func BeginsWith(prefix string) SortKeyStrategy {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyBeginsWith(expression.Key(skName), prefix)
	}
}

// Between matches items whose sort key is between start and end, inclusive.
func Between[T any](start, end T) SortKeyStrategy {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyBetween(expression.Key(skName), expression.Value(start), expression.Value(end))
	}
}

// GreaterThanOrEqual matches items whose sort key is >= the value.
func GreaterThanOrEqual[T any](v T) SortKeyStrategy {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyGreaterThanEqual(expression.Key(skName), expression.Value(v))
	}
}

// LessThan matches items whose sort key is < the value.
func LessThan[T any](v T) SortKeyStrategy {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyLessThan(expression.Key(skName), expression.Value(v))
	}
}
