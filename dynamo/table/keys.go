package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PrimaryKey is a concrete key value pair for one item.
type PrimaryKey struct {
	Definition PrimaryKeyDefinition
	Partition  any
	Sort       any
}

// Key builds a PrimaryKey for a table definition. For simple-key tables
// pass only the partition value.
func (d Definition) Key(partition any, sort ...any) (PrimaryKey, error) {
	pk := PrimaryKey{
		Definition: d.Keys,
		Partition:  partition,
	}
	switch {
	case d.HasSortKey() && len(sort) == 1:
		pk.Sort = sort[0]
	case d.HasSortKey():
		return PrimaryKey{}, fmt.Errorf("table %s requires a sort key value", d.Name)
	case len(sort) > 0:
		return PrimaryKey{}, fmt.Errorf("table %s has no sort key", d.Name)
	}
	return pk, nil
}

// DDB marshals the key into attribute values, checking value kinds against
// the definition.
func (k PrimaryKey) DDB() (map[string]types.AttributeValue, error) {
	part, err := attributevalue.Marshal(k.Partition)
	if err != nil {
		return nil, fmt.Errorf("marshal partition key %v: %w", k.Partition, err)
	}
	if err := attributeMatchesKind(k.Definition.PartitionKey.Kind, part); err != nil {
		return nil, fmt.Errorf("partition key %q: %w", k.Definition.PartitionKey.Name, err)
	}
	if k.Definition.SortKey.Name == "" {
		return map[string]types.AttributeValue{
			k.Definition.PartitionKey.Name: part,
		}, nil
	}
	if k.Sort == nil {
		return nil, fmt.Errorf("sort key %q is required but got nil", k.Definition.SortKey.Name)
	}
	sort, err := attributevalue.Marshal(k.Sort)
	if err != nil {
		return nil, fmt.Errorf("marshal sort key %v: %w", k.Sort, err)
	}
	if err := attributeMatchesKind(k.Definition.SortKey.Kind, sort); err != nil {
		return nil, fmt.Errorf("sort key %q: %w", k.Definition.SortKey.Name, err)
	}
	return map[string]types.AttributeValue{
		k.Definition.PartitionKey.Name: part,
		k.Definition.SortKey.Name:      sort,
	}, nil
}

func attributeMatchesKind(want KeyKind, v types.AttributeValue) error {
	var got KeyKind
	switch v.(type) {
	case *types.AttributeValueMemberS:
		got = KeyKindS
	case *types.AttributeValueMemberN:
		got = KeyKindN
	case *types.AttributeValueMemberB:
		got = KeyKindB
	default:
		return fmt.Errorf("unexpected key attribute type %T", v)
	}
	if got != want {
		return fmt.Errorf("got key kind %q want %q", got, want)
	}
	return nil
}
