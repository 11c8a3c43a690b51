package engine

import (
	"strings"

	"casefile/internal/condition"
	"casefile/internal/story"
)

// MaxSteps bounds how many plumbing nodes one traversal may pass through.
const MaxSteps = 20

const defaultVolume = 0.5

type HaltReason string

const (
	HaltVisual  HaltReason = ""
	HaltWait    HaltReason = "wait"
	HaltDeadEnd HaltReason = "dead_end"
	HaltBudget  HaltReason = "budget"
	HaltMissing HaltReason = "missing"
)

// AudioCue asks the presentation layer to start background audio.
type AudioCue struct {
	NodeID string  `json:"node_id"`
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
}

// Traversal is the outcome of fast-forwarding through plumbing nodes.
type Traversal struct {
	FinalID      string
	Final        *story.Node
	Passed       []string
	Inventory    Inventory
	Outputs      map[string]any
	StateChanged bool
	Cue          *AudioCue
	Halt         HaltReason
}

// Advance starts at startID and passes through music, setter and logic nodes,
// applying their side effects to copies of the state's inventory and outputs,
// until it reaches a visual node, a dead end, or the step budget. The input
// state is not modified.
func Advance(g *story.Graph, startID string, st *State) Traversal {
	t := Traversal{
		FinalID:   startID,
		Inventory: st.Inventory.Clone(),
		Outputs:   cloneOutputs(st.Outputs),
	}
	history := append([]string(nil), st.History...)

	current := startID
	for steps := 0; ; steps++ {
		node, ok := g.Node(current)
		t.FinalID = current
		if !ok {
			t.Final = nil
			t.Halt = HaltMissing
			return t
		}
		t.Final = node
		if !node.Type.Plumbing() {
			t.Halt = HaltVisual
			return t
		}
		if steps >= MaxSteps {
			t.Halt = HaltBudget
			return t
		}

		var next string
		switch node.Type {
		case story.TypeMusic:
			if node.Data.URL != "" {
				volume := defaultVolume
				if node.Data.Volume != nil {
					volume = *node.Data.Volume
				}
				t.Cue = &AudioCue{NodeID: node.ID, URL: node.Data.URL, Volume: volume}
			}
			next, ok = firstTarget(g, node.ID)
		case story.TypeSetter:
			if applySetter(node, t.Inventory, t.Outputs) {
				t.StateChanged = true
			}
			next, ok = firstTarget(g, node.ID)
		case story.TypeLogic:
			result := condition.EvaluateLogic(node.Data, t.Inventory, t.Outputs, history)
			var edge story.Edge
			edge, ok = SelectLogicEdge(g, node, result)
			if !ok && !result && strings.EqualFold(node.Data.LogicType, logicWhile) {
				t.Halt = HaltWait
				return t
			}
			next = edge.Target
		}
		if !ok {
			t.Halt = HaltDeadEnd
			return t
		}

		t.Passed = append(t.Passed, node.ID)
		history = append(history, node.ID)
		current = next
	}
}

func firstTarget(g *story.Graph, id string) (string, bool) {
	edges := g.Outgoing(id)
	if len(edges) == 0 {
		return "", false
	}
	return edges[0].Target, true
}

// applySetter writes the setter's result into outputs and reports whether it
// changed anything. Setters without a variable are skipped.
func applySetter(node *story.Node, inv Inventory, outputs map[string]any) bool {
	name := node.Data.VariableID
	if name == "" {
		return false
	}
	current, _ := condition.Lookup(name, inv, outputs)

	var next any
	switch strings.ToLower(strings.TrimSpace(node.Data.Operation)) {
	case "toggle":
		next = !condition.Truthy(current)
	case "increment", "add":
		next = toNumber(current) + step(node.Data.Value)
	case "decrement", "subtract":
		next = toNumber(current) - step(node.Data.Value)
	default:
		next = scalar(node.Data.Value)
	}
	setOutput(inv, outputs, name, next)
	return true
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, _ := condition.ParseNumber(x)
		return f
	default:
		return 0
	}
}

func step(v story.Value) float64 {
	if f, ok := condition.ParseNumber(v.Raw); ok {
		return f
	}
	return 1
}

// scalar interprets an authored value for plain assignment. A setter without a
// value raises a flag.
func scalar(v story.Value) any {
	if !v.Set {
		return true
	}
	raw := strings.TrimSpace(v.Raw)
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, ok := condition.ParseNumber(raw); ok {
		return f
	}
	return v.Raw
}
