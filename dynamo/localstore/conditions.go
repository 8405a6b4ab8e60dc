package localstore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// checkCondition evaluates a ConditionExpression against the currently
// stored item (nil when absent), the way DynamoDB does. Unsupported syntax
// is an error, not a silent pass.
func checkCondition(expr *string, names map[string]string, values map[string]types.AttributeValue, existing map[string]types.AttributeValue) error {
	if expr == nil {
		return nil
	}
	ok, err := evalCondition(*expr, names, values, existing)
	if err != nil {
		return err
	}
	if !ok {
		return &types.ConditionalCheckFailedException{}
	}
	return nil
}

var (
	existsRe    = regexp.MustCompile(`^attribute_exists\s*\(\s*([^)\s]+)\s*\)$`)
	notExistsRe = regexp.MustCompile(`^attribute_not_exists\s*\(\s*([^)\s]+)\s*\)$`)
	beginsRe    = regexp.MustCompile(`^begins_with\s*\(\s*([^,\s]+)\s*,\s*([^)\s]+)\s*\)$`)
	compareRe   = regexp.MustCompile(`^(\S+)\s*(=|<>|<=|>=|<|>)\s*(\S+)$`)
	betweenRe   = regexp.MustCompile(`^(\S+)\s+BETWEEN\s+(\S+)\s+AND\s+(\S+)$`)
)

func evalCondition(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (bool, error) {
	expr = strings.TrimSpace(expr)
	expr = stripOuterParens(expr)

	// BETWEEN carries its own AND; match it before splitting on the
	// conjunction.
	if m := betweenRe.FindStringSubmatch(expr); m != nil {
		return evalBetween(m, names, values, item)
	}
	if parts := splitTopLevel(expr, " AND "); len(parts) > 1 {
		for _, p := range parts {
			ok, err := evalCondition(p, names, values, item)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
	if parts := splitTopLevel(expr, " OR "); len(parts) > 1 {
		for _, p := range parts {
			ok, err := evalCondition(p, names, values, item)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	if m := existsRe.FindStringSubmatch(expr); m != nil {
		name, err := resolveName(m[1], names)
		if err != nil {
			return false, err
		}
		_, ok := item[name]
		return ok, nil
	}
	if m := notExistsRe.FindStringSubmatch(expr); m != nil {
		name, err := resolveName(m[1], names)
		if err != nil {
			return false, err
		}
		_, ok := item[name]
		return !ok, nil
	}
	if m := beginsRe.FindStringSubmatch(expr); m != nil {
		name, err := resolveName(m[1], names)
		if err != nil {
			return false, err
		}
		val, err := resolveValue(m[2], values)
		if err != nil {
			return false, err
		}
		got, ok := item[name].(*types.AttributeValueMemberS)
		want, okV := val.(*types.AttributeValueMemberS)
		if !ok || !okV {
			return false, nil
		}
		return strings.HasPrefix(got.Value, want.Value), nil
	}
	if m := compareRe.FindStringSubmatch(expr); m != nil {
		name, err := resolveName(m[1], names)
		if err != nil {
			return false, err
		}
		val, err := resolveValue(m[3], values)
		if err != nil {
			return false, err
		}
		got, ok := item[name]
		if !ok {
			return false, nil
		}
		cmp, err := compareAV(got, val)
		if err != nil {
			return false, err
		}
		switch m[2] {
		case "=":
			return cmp == 0, nil
		case "<>":
			return cmp != 0, nil
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">":
			return cmp > 0, nil
		case ">=":
			return cmp >= 0, nil
		}
	}
	return false, fmt.Errorf("unsupported condition expression: %q", expr)
}

// evalBetween evaluates "name BETWEEN lo AND hi", inclusive on both ends.
func evalBetween(m []string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (bool, error) {
	name, err := resolveName(m[1], names)
	if err != nil {
		return false, err
	}
	lo, err := resolveValue(m[2], values)
	if err != nil {
		return false, err
	}
	hi, err := resolveValue(m[3], values)
	if err != nil {
		return false, err
	}
	got, ok := item[name]
	if !ok {
		return false, nil
	}
	cmpLo, err := compareAV(got, lo)
	if err != nil {
		return false, err
	}
	cmpHi, err := compareAV(got, hi)
	if err != nil {
		return false, err
	}
	return cmpLo >= 0 && cmpHi <= 0, nil
}

func resolveName(token string, names map[string]string) (string, error) {
	if strings.HasPrefix(token, "#") {
		name, ok := names[token]
		if !ok {
			return "", fmt.Errorf("unresolved expression name %q", token)
		}
		return name, nil
	}
	return token, nil
}

func resolveValue(token string, values map[string]types.AttributeValue) (types.AttributeValue, error) {
	if !strings.HasPrefix(token, ":") {
		return nil, fmt.Errorf("expected expression value placeholder, got %q", token)
	}
	val, ok := values[token]
	if !ok {
		return nil, fmt.Errorf("unresolved expression value %q", token)
	}
	return val, nil
}

// compareAV orders two attribute values of the same type. Strings compare
// lexically, numbers numerically.
func compareAV(a, b types.AttributeValue) (int, error) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, fmt.Errorf("comparing S against %T", b)
		}
		return strings.Compare(av.Value, bv.Value), nil
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, fmt.Errorf("comparing N against %T", b)
		}
		af, err := strconv.ParseFloat(av.Value, 64)
		if err != nil {
			return 0, fmt.Errorf("parse number %q: %w", av.Value, err)
		}
		bf, err := strconv.ParseFloat(bv.Value, 64)
		if err != nil {
			return 0, fmt.Errorf("parse number %q: %w", bv.Value, err)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		if !ok {
			return 0, fmt.Errorf("comparing BOOL against %T", b)
		}
		if av.Value == bv.Value {
			return 0, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported comparison type %T", a)
	}
}

// stripOuterParens removes one level of enclosing parentheses when they
// wrap the whole expression.
func stripOuterParens(s string) string {
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		depth := 0
		balanced := true
		for i, c := range s {
			switch c {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 && i < len(s)-1 {
				balanced = false
				break
			}
		}
		if !balanced {
			return s
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// splitTopLevel splits on a separator occurring outside parentheses.
func splitTopLevel(s, sep string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && s[i:i+len(sep)] == sep {
			parts = append(parts, strings.TrimSpace(s[last:i]))
			last = i + len(sep)
			i += len(sep) - 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[last:]))
	return parts
}
