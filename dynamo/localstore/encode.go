package localstore

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Items are stored as gob-encoded trees of typed values. gob round-trips
// the DynamoDB number strings untouched, which JSON would not.

type storedValue struct {
	Type  string
	Value any
}

func init() {
	gob.Register(map[string]storedValue{})
	gob.Register([]storedValue{})
	gob.Register([]string{})
}

func serializeItem(item map[string]types.AttributeValue) ([]byte, error) {
	stored := make(map[string]storedValue, len(item))
	for k, v := range item {
		sv, err := toStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		stored[k] = sv
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

func deserializeItem(data []byte) (map[string]types.AttributeValue, error) {
	var stored map[string]storedValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	item := make(map[string]types.AttributeValue, len(stored))
	for k, v := range stored {
		av, err := fromStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func toStored(av types.AttributeValue) (storedValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedValue{Type: "S", Value: v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedValue{Type: "N", Value: v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedValue{Type: "B", Value: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedValue{Type: "BOOL", Value: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedValue{Type: "NULL", Value: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return storedValue{Type: "SS", Value: v.Value}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]storedValue, len(v.Value))
		for k, val := range v.Value {
			sv, err := toStored(val)
			if err != nil {
				return storedValue{}, err
			}
			m[k] = sv
		}
		return storedValue{Type: "M", Value: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]storedValue, len(v.Value))
		for i, val := range v.Value {
			sv, err := toStored(val)
			if err != nil {
				return storedValue{}, err
			}
			l[i] = sv
		}
		return storedValue{Type: "L", Value: l}, nil
	default:
		return storedValue{}, fmt.Errorf("unsupported attribute value type %T", av)
	}
}

func fromStored(sv storedValue) (types.AttributeValue, error) {
	switch sv.Type {
	case "S":
		return &types.AttributeValueMemberS{Value: sv.Value.(string)}, nil
	case "N":
		return &types.AttributeValueMemberN{Value: sv.Value.(string)}, nil
	case "B":
		return &types.AttributeValueMemberB{Value: sv.Value.([]byte)}, nil
	case "BOOL":
		return &types.AttributeValueMemberBOOL{Value: sv.Value.(bool)}, nil
	case "NULL":
		return &types.AttributeValueMemberNULL{Value: sv.Value.(bool)}, nil
	case "SS":
		return &types.AttributeValueMemberSS{Value: sv.Value.([]string)}, nil
	case "M":
		stored := sv.Value.(map[string]storedValue)
		m := make(map[string]types.AttributeValue, len(stored))
		for k, v := range stored {
			av, err := fromStored(v)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case "L":
		stored := sv.Value.([]storedValue)
		l := make([]types.AttributeValue, len(stored))
		for i, v := range stored {
			av, err := fromStored(v)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unknown stored value type %q", sv.Type)
	}
}
