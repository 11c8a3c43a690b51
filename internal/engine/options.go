package engine

import (
	"casefile/internal/condition"
	"casefile/internal/story"
)

// Option is an outgoing choice the player can currently take.
type Option struct {
	Edge     story.Edge  `json:"edge"`
	TargetID string      `json:"target_id"`
	Target   *story.Node `json:"target"`
	Via      []string    `json:"via,omitempty"`
	Label    string      `json:"label"`
}

// ComputeOptions lists the navigable choices from currentID. Edges gated on
// uncollected evidence are hidden, plumbing is previewed without side effects,
// paths that dead-end or loop are dropped, and choices resolving to the same
// node are collapsed onto the first.
func ComputeOptions(g *story.Graph, currentID string, st *State) []Option {
	current, ok := g.Node(currentID)
	if !ok {
		return nil
	}
	gates := NewGates(g)

	var options []Option
	seenTargets := make(map[string]struct{})
	for _, edge := range g.Outgoing(currentID) {
		gate, gated := gates.For(edge)
		if gated && !st.Inventory.Has(gate) {
			continue
		}

		target, via, ok := preview(g, edge.Target, st)
		if !ok {
			continue
		}
		if _, dup := seenTargets[target.ID]; dup {
			continue
		}
		seenTargets[target.ID] = struct{}{}

		options = append(options, Option{
			Edge:     edge,
			TargetID: target.ID,
			Target:   target,
			Via:      via,
			Label:    optionLabel(current, edge, target, gated),
		})
	}
	return options
}

// preview follows plumbing from id without applying setter or music effects.
// Every plumbing node may be entered once per preview; re-entering one means
// the path loops and is dropped.
func preview(g *story.Graph, id string, st *State) (*story.Node, []string, bool) {
	processed := make(map[string]struct{})
	var via []string
	for {
		node, ok := g.Node(id)
		if !ok {
			return nil, nil, false
		}
		if !node.Type.Plumbing() {
			return node, via, true
		}
		if _, seen := processed[node.ID]; seen {
			return nil, nil, false
		}
		processed[node.ID] = struct{}{}

		switch node.Type {
		case story.TypeLogic:
			result := condition.EvaluateLogic(node.Data, st.Inventory, st.Outputs, st.History)
			edge, ok := SelectLogicEdge(g, node, result)
			if !ok {
				return nil, nil, false
			}
			id = edge.Target
		default:
			next, ok := firstTarget(g, node.ID)
			if !ok {
				return nil, nil, false
			}
			id = next
		}
		via = append(via, node.ID)
	}
}

// Gates maps every evidence/email id and label to the node id that must be
// collected before an edge carrying that key is shown.
type Gates map[string]string

func NewGates(g *story.Graph) Gates {
	index := make(Gates)
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Type != story.TypeEvidence && node.Type != story.TypeEmail {
			continue
		}
		index[node.ID] = node.ID
		if node.Data.Label != "" {
			if _, exists := index[node.Data.Label]; !exists {
				index[node.Data.Label] = node.ID
			}
		}
	}
	return index
}

// For returns the evidence node id gating edge. An edge is never gated on the
// node it leads to.
func (gs Gates) For(edge story.Edge) (string, bool) {
	for _, key := range []string{edge.Data.EvidenceID, edge.Label} {
		if key == "" {
			continue
		}
		if id, ok := gs[key]; ok && id != edge.Target {
			return id, true
		}
	}
	return "", false
}

func optionLabel(current *story.Node, edge story.Edge, target *story.Node, gated bool) string {
	if edge.SourceHandle != "" {
		for _, action := range current.Data.Actions {
			if action.ID == edge.SourceHandle && action.Label != "" {
				return action.Label
			}
		}
	}
	if edge.Label != "" && !gated && !edge.Branch(true) && !edge.Branch(false) {
		return edge.Label
	}
	return target.Label()
}
