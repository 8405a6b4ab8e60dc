// Package table describes DynamoDB table shapes: the composite primary key
// and the time-to-live attribute. Definitions are plain data; the typed
// client in package dynamo and the provisioner both consume them.
package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type Definition struct {
	Name          string
	Keys          PrimaryKeyDefinition
	TimeToLiveKey string
}

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef
	// SortKey is optional. A zero value means the table has a simple key.
	SortKey KeyDef
}

type KeyDef struct {
	Name string
	Kind KeyKind
}

type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

func (d Definition) HasSortKey() bool {
	return d.Keys.SortKey.Name != ""
}

// ExtractKey pulls the primary key values out of a stored document and
// checks them against the definition.
func (d Definition) ExtractKey(doc map[string]types.AttributeValue) (PrimaryKey, error) {
	part, ok := doc[d.Keys.PartitionKey.Name]
	if !ok {
		return PrimaryKey{}, fmt.Errorf("partition key %q not found on document", d.Keys.PartitionKey.Name)
	}
	if err := attributeMatchesKind(d.Keys.PartitionKey.Kind, part); err != nil {
		return PrimaryKey{}, fmt.Errorf("partition key %q: %w", d.Keys.PartitionKey.Name, err)
	}
	pk := PrimaryKey{
		Definition: d.Keys,
		Partition:  keyValueFromAV(part),
	}
	if !d.HasSortKey() {
		return pk, nil
	}
	sort, ok := doc[d.Keys.SortKey.Name]
	if !ok {
		return PrimaryKey{}, fmt.Errorf("sort key %q not found on document", d.Keys.SortKey.Name)
	}
	if err := attributeMatchesKind(d.Keys.SortKey.Kind, sort); err != nil {
		return PrimaryKey{}, fmt.Errorf("sort key %q: %w", d.Keys.SortKey.Name, err)
	}
	pk.Sort = keyValueFromAV(sort)
	return pk, nil
}

func keyValueFromAV(av types.AttributeValue) any {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	case *types.AttributeValueMemberB:
		return v.Value
	default:
		panic(fmt.Sprintf("unsupported attribute value %T for dynamodb keys", v))
	}
}
