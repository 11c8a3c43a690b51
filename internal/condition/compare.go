package condition

import (
	"fmt"
	"strconv"
	"strings"

	"casefile/internal/story"
)

// Lookup resolves a variable: node outputs first, then an inventory flag of the
// same name (read as true). The second result is false when the variable is
// undefined.
func Lookup(variable string, flags Flags, outputs map[string]any) (any, bool) {
	if value, ok := outputs[variable]; ok {
		return value, true
	}
	if flags != nil && flags.Has(variable) {
		return true, true
	}
	return nil, false
}

// EvaluateLogic decides a logic node. A declared variable takes priority over
// the legacy condition string; an undefined variable is false.
func EvaluateLogic(data story.Data, flags Flags, outputs map[string]any, history []string) bool {
	if data.Variable == "" {
		return Evaluate(data.Condition, flags, history)
	}
	actual, ok := Lookup(data.Variable, flags, outputs)
	if !ok {
		return false
	}
	return Compare(actual, data.Operator, data.Value.Raw)
}

// Compare applies operator to a variable value and an authored operand.
// Comparisons are case-insensitive string comparisons except the ordering
// operators, which compare numerically and fail on non-numbers.
func Compare(actual any, operator, expected string) bool {
	got := Format(actual)
	switch strings.ToLower(strings.TrimSpace(operator)) {
	case "==", "=", "eq", "equals", "is":
		return looseEqual(got, expected)
	case "!=", "neq", "not_equals", "is_not":
		return !looseEqual(got, expected)
	case ">", "gt":
		return numeric(got, expected, func(a, b float64) bool { return a > b })
	case "<", "lt":
		return numeric(got, expected, func(a, b float64) bool { return a < b })
	case ">=", "gte":
		return numeric(got, expected, func(a, b float64) bool { return a >= b })
	case "<=", "lte":
		return numeric(got, expected, func(a, b float64) bool { return a <= b })
	case "contains":
		return strings.Contains(strings.ToLower(got), strings.ToLower(expected))
	case "":
		if expected == "" {
			return true
		}
		return looseEqual(got, expected)
	default:
		return looseEqual(got, expected)
	}
}

func looseEqual(a, b string) bool {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return true
	}
	x, okA := ParseNumber(a)
	y, okB := ParseNumber(b)
	return okA && okB && x == y
}

func numeric(a, b string, cmp func(a, b float64) bool) bool {
	x, okA := ParseNumber(a)
	y, okB := ParseNumber(b)
	if !okA || !okB {
		return false
	}
	return cmp(x, y)
}

func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Format renders a variable value the way authored operands are written.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

// Truthy follows the loose truthiness authors expect from toggles:
// false, zero, empty strings and "false" are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(x))
		return s != "" && s != "false" && s != "0"
	default:
		return true
	}
}
