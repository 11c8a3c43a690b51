package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/story"
)

type flagSet map[string]bool

func (f flagSet) Has(flag string) bool { return f[flag] }

func TestEvaluateConstants(t *testing.T) {
	inventories := []flagSet{{}, {"always_false": true}, {"a": true, "b": true}}
	histories := [][]string{nil, {"x"}, {"always_true"}}
	for _, inv := range inventories {
		for _, h := range histories {
			assert.True(t, Evaluate("always_true", inv, h))
			assert.False(t, Evaluate("always_false", inv, h))
		}
	}
}

func TestEvaluateHas(t *testing.T) {
	inv := flagSet{"x": true}
	assert.True(t, Evaluate("has:x", inv, nil))
	assert.False(t, Evaluate("has:y", inv, nil))
	assert.False(t, Evaluate("has:x", flagSet{}, nil))
}

func TestEvaluateComposition(t *testing.T) {
	exprs := []string{"a", "b", "c"}
	inventories := []flagSet{{}, {"a": true}, {"b": true}, {"a": true, "b": true}, {"a": true, "b": true, "c": true}}
	for _, inv := range inventories {
		for _, x := range exprs {
			for _, y := range exprs {
				and := Evaluate(x+" && "+y, inv, nil)
				or := Evaluate(x+" || "+y, inv, nil)
				assert.Equal(t, Evaluate(x, inv, nil) && Evaluate(y, inv, nil), and, "%s && %s with %v", x, y, inv)
				assert.Equal(t, Evaluate(x, inv, nil) || Evaluate(y, inv, nil), or, "%s || %s with %v", x, y, inv)
			}
		}
	}

	assert.True(t, Evaluate("has:a && visited:n1 && always_true", flagSet{"a": true}, []string{"n1"}))
	assert.False(t, Evaluate("has:a && visited:n2", flagSet{"a": true}, []string{"n1"}))
	assert.True(t, Evaluate("always_false || has:a", flagSet{"a": true}, nil))
}

func TestEvaluatePrevious(t *testing.T) {
	assert.False(t, Evaluate("PREV", flagSet{"t1": true}, nil))
	assert.True(t, Evaluate("PREV", flagSet{"t1": true}, []string{"start", "t1"}))
	assert.False(t, Evaluate("previous_task", flagSet{"start": true}, []string{"start", "t1"}))
}

func TestEvaluateVisited(t *testing.T) {
	h := []string{"start", "alley"}
	assert.True(t, Evaluate("visited:alley", flagSet{}, h))
	assert.False(t, Evaluate("visited:roof", flagSet{}, h))
}

func TestEvaluateFallback(t *testing.T) {
	inv := flagSet{"has_key": true, "weird ((syntax": true}
	assert.True(t, Evaluate("has_key", inv, nil))
	assert.True(t, Evaluate("weird ((syntax", inv, nil))
	assert.False(t, Evaluate("not_there", inv, nil))
	assert.False(t, Evaluate("", inv, nil))
	assert.False(t, Evaluate("has_key", nil, nil))
}

func TestEvaluateFallbackIsLiteral(t *testing.T) {
	assert.False(t, Evaluate(" a", flagSet{"a": true}, nil))
	assert.True(t, Evaluate(" a", flagSet{" a": true}, nil))
	assert.False(t, Evaluate("a ", flagSet{"a": true}, nil))
	assert.False(t, Evaluate(" always_true", flagSet{}, nil))

	assert.True(t, Evaluate("a &&  b", flagSet{"a": true, "b": true}, nil))
	assert.True(t, Evaluate("x ||  a ", flagSet{"a": true}, nil))
}

func TestRulesEndWithCatchAll(t *testing.T) {
	require.NotEmpty(t, Rules)
	last := Rules[len(Rules)-1]
	assert.Equal(t, "membership", last.Name)
	assert.True(t, last.Match("anything at all"))
}

func TestEvaluateLogic(t *testing.T) {
	tests := []struct {
		name    string
		data    story.Data
		flags   flagSet
		outputs map[string]any
		want    bool
	}{
		{name: "undefined variable", data: story.Data{Variable: "v", Operator: "==", Value: story.StringValue("1")}, want: false},
		{name: "undefined variable no operator", data: story.Data{Variable: "v"}, want: false},
		{name: "flag counts as true", data: story.Data{Variable: "door", Operator: "==", Value: story.StringValue("TRUE")}, flags: flagSet{"door": true}, want: true},
		{name: "case insensitive equality", data: story.Data{Variable: "name", Operator: "==", Value: story.StringValue("KEN")}, outputs: map[string]any{"name": "ken"}, want: true},
		{name: "not equal", data: story.Data{Variable: "name", Operator: "!=", Value: story.StringValue("ken")}, outputs: map[string]any{"name": "mia"}, want: true},
		{name: "greater numeric", data: story.Data{Variable: "score", Operator: ">", Value: story.StringValue("9")}, outputs: map[string]any{"score": float64(10)}, want: true},
		{name: "greater is numeric not lexical", data: story.Data{Variable: "score", Operator: ">", Value: story.StringValue("9")}, outputs: map[string]any{"score": "10"}, want: true},
		{name: "less numeric", data: story.Data{Variable: "score", Operator: "<", Value: story.StringValue("9")}, outputs: map[string]any{"score": float64(10)}, want: false},
		{name: "greater on text", data: story.Data{Variable: "score", Operator: ">", Value: story.StringValue("9")}, outputs: map[string]any{"score": "high"}, want: false},
		{name: "contains", data: story.Data{Variable: "log", Operator: "contains", Value: story.StringValue("Dock")}, outputs: map[string]any{"log": "met at the docks"}, want: true},
		{name: "no operator no value", data: story.Data{Variable: "seen"}, outputs: map[string]any{"seen": false}, want: true},
		{name: "no operator with value", data: story.Data{Variable: "n", Value: story.StringValue("4")}, outputs: map[string]any{"n": float64(3)}, want: false},
		{name: "loose numeric equality", data: story.Data{Variable: "n", Value: story.StringValue("3.0")}, outputs: map[string]any{"n": float64(3)}, want: true},
		{name: "condition fallback", data: story.Data{Condition: "has:badge"}, flags: flagSet{"badge": true}, want: true},
		{name: "variable wins over condition", data: story.Data{Variable: "v", Condition: "always_true"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateLogic(tt.data, tt.flags, tt.outputs, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateLogicIsPure(t *testing.T) {
	outputs := map[string]any{"n": float64(1)}
	flags := flagSet{"f": true}
	EvaluateLogic(story.Data{Variable: "n", Operator: ">", Value: story.StringValue("0")}, flags, outputs, nil)
	assert.Equal(t, map[string]any{"n": float64(1)}, outputs)
	assert.Equal(t, flagSet{"f": true}, flags)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy("false"))
	assert.False(t, Truthy(""))
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(float64(2)))
	assert.True(t, Truthy("yes"))
}
