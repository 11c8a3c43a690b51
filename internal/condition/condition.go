// Package condition evaluates the string condition language authored on logic
// nodes and the structured variable comparisons that replace it.
package condition

import "strings"

// Flags is the read side of a player inventory.
type Flags interface {
	Has(flag string) bool
}

// Facts is what a rule may consult while evaluating an expression.
type Facts struct {
	Flags   Flags
	History []string
}

func (f Facts) has(flag string) bool {
	return f.Flags != nil && f.Flags.Has(flag)
}

func (f Facts) visited(id string) bool {
	for _, h := range f.History {
		if h == id {
			return true
		}
	}
	return false
}

// Rule is one entry of the ordered evaluation table. The first rule whose
// Match accepts the expression decides the result.
type Rule struct {
	Name  string
	Match func(expr string) bool
	Eval  func(expr string, facts Facts) bool
}

const (
	AlwaysTrue  = "always_true"
	AlwaysFalse = "always_false"

	andSep = " && "
	orSep  = " || "

	visitedPrefix = "visited:"
	hasPrefix     = "has:"
)

// Rules is the ordered rule table used by Evaluate. The final membership rule
// matches everything, so evaluation never falls off the end.
var Rules []Rule

func init() {
	Rules = defaultRules()
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name:  "always_true",
			Match: func(expr string) bool { return expr == AlwaysTrue },
			Eval:  func(string, Facts) bool { return true },
		},
		{
			Name:  "always_false",
			Match: func(expr string) bool { return expr == AlwaysFalse },
			Eval:  func(string, Facts) bool { return false },
		},
		{
			Name:  "and",
			Match: func(expr string) bool { return strings.Contains(expr, andSep) },
			Eval: func(expr string, facts Facts) bool {
				for _, part := range strings.Split(expr, andSep) {
					if !evaluate(strings.TrimSpace(part), facts) {
						return false
					}
				}
				return true
			},
		},
		{
			Name:  "or",
			Match: func(expr string) bool { return strings.Contains(expr, orSep) },
			Eval: func(expr string, facts Facts) bool {
				for _, part := range strings.Split(expr, orSep) {
					if evaluate(strings.TrimSpace(part), facts) {
						return true
					}
				}
				return false
			},
		},
		{
			Name:  "previous_task",
			Match: func(expr string) bool { return expr == "PREV" || expr == "previous_task" },
			Eval: func(_ string, facts Facts) bool {
				if len(facts.History) == 0 {
					return false
				}
				return facts.has(facts.History[len(facts.History)-1])
			},
		},
		{
			Name:  "visited",
			Match: func(expr string) bool { return strings.HasPrefix(expr, visitedPrefix) },
			Eval: func(expr string, facts Facts) bool {
				return facts.visited(strings.TrimPrefix(expr, visitedPrefix))
			},
		},
		{
			Name:  "has",
			Match: func(expr string) bool { return strings.HasPrefix(expr, hasPrefix) },
			Eval: func(expr string, facts Facts) bool {
				return facts.has(strings.TrimPrefix(expr, hasPrefix))
			},
		},
		{
			Name:  "membership",
			Match: func(string) bool { return true },
			Eval:  func(expr string, facts Facts) bool { return facts.has(expr) },
		},
	}
}

// Evaluate reports whether expr holds for the given inventory and history.
// Unknown syntax degrades to a membership test on the literal expression.
// Only the operands of && and || are trimmed.
func Evaluate(expr string, flags Flags, history []string) bool {
	return evaluate(expr, Facts{Flags: flags, History: history})
}

func evaluate(expr string, facts Facts) bool {
	for _, rule := range Rules {
		if rule.Match(expr) {
			return rule.Eval(expr, facts)
		}
	}
	return false
}
