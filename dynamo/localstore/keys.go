package localstore

import (
	"bytes"
	"fmt"

	"github.com/acksell/storefront/dynamo/table"
)

// Badger keys are laid out as [table][0x00][partition][0x00][sort] with
// 0x00 escaped inside components, so a partition prefix scan sees sort keys
// in lexicographic order. All tables in this repo use string keys.

const keySeparator byte = 0x00

func encodeItemKey(def table.Definition, pk table.PrimaryKey) ([]byte, error) {
	buf, err := encodePartitionPrefix(def, pk.Partition)
	if err != nil {
		return nil, err
	}
	if def.HasSortKey() {
		sk, err := keyString(pk.Sort, def.Keys.SortKey)
		if err != nil {
			return nil, err
		}
		buf = append(buf, escapeBytes([]byte(sk))...)
	}
	return buf, nil
}

func encodePartitionPrefix(def table.Definition, partition any) ([]byte, error) {
	pk, err := keyString(partition, def.Keys.PartitionKey)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(def.Name)
	buf.WriteByte(keySeparator)
	buf.Write(escapeBytes([]byte(pk)))
	buf.WriteByte(keySeparator)
	return buf.Bytes(), nil
}

func tablePrefix(def table.Definition) []byte {
	return append([]byte(def.Name), keySeparator)
}

func keyString(v any, kd table.KeyDef) (string, error) {
	if kd.Kind != table.KeyKindS {
		return "", fmt.Errorf("local store only supports string keys, %q is kind %q", kd.Name, kd.Kind)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string for key %q, got %T", kd.Name, v)
	}
	return s, nil
}

// escapeBytes rewrites 0x00 to 0x01 0x01 and 0x01 to 0x01 0x02 so component
// boundaries stay unambiguous.
func escapeBytes(b []byte) []byte {
	var buf bytes.Buffer
	for _, c := range b {
		switch c {
		case 0x00:
			buf.WriteByte(0x01)
			buf.WriteByte(0x01)
		case 0x01:
			buf.WriteByte(0x01)
			buf.WriteByte(0x02)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.Bytes()
}
