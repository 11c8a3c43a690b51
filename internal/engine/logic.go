package engine

import (
	"strings"

	"casefile/internal/story"
)

const logicWhile = "while"

// SelectLogicEdge picks the outgoing edge of a logic node for an evaluated
// result. Edges flagged "true"/"false" win; otherwise edges fall back by
// position in the outgoing list (first for true, second for false), flagged
// edges included. A node with a single edge always uses it. A "while" node
// that evaluates false has no edge: traversal waits there.
func SelectLogicEdge(g *story.Graph, node *story.Node, result bool) (story.Edge, bool) {
	if !result && strings.EqualFold(node.Data.LogicType, logicWhile) {
		return story.Edge{}, false
	}

	edges := g.Outgoing(node.ID)
	if len(edges) == 0 {
		return story.Edge{}, false
	}
	for _, edge := range edges {
		if edge.Branch(result) {
			return edge, true
		}
	}
	if !result && len(edges) >= 2 {
		return edges[1], true
	}
	return edges[0], true
}
