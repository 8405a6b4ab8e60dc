package localstore

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// applyUpdate interprets an UpdateExpression over a copy of the stored
// item. Only SET and REMOVE are supported; those are the only clauses the
// dynamo package emits.
func applyUpdate(expr *string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	if expr == nil {
		return nil, fmt.Errorf("update expression is required")
	}
	updated := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		updated[k] = v
	}
	for _, clause := range strings.Split(*expr, "\n") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		keyword, rest, found := strings.Cut(clause, " ")
		if !found {
			return nil, fmt.Errorf("malformed update clause %q", clause)
		}
		switch keyword {
		case "SET":
			for _, assign := range strings.Split(rest, ",") {
				name, value, found := strings.Cut(assign, "=")
				if !found {
					return nil, fmt.Errorf("malformed SET assignment %q", assign)
				}
				attr, err := resolveName(strings.TrimSpace(name), names)
				if err != nil {
					return nil, err
				}
				av, err := resolveValue(strings.TrimSpace(value), values)
				if err != nil {
					return nil, err
				}
				updated[attr] = av
			}
		case "REMOVE":
			for _, name := range strings.Split(rest, ",") {
				attr, err := resolveName(strings.TrimSpace(name), names)
				if err != nil {
					return nil, err
				}
				delete(updated, attr)
			}
		default:
			return nil, fmt.Errorf("unsupported update clause %q", keyword)
		}
	}
	return updated, nil
}
