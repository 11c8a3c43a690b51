package validate

import (
	"fmt"
	"strings"

	"casefile/internal/engine"
	"casefile/internal/story"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDanglingEdge          = "dangling_edge"
	codeUnknownNodeType       = "unknown_node_type"
	codeSetterMissingVariable = "setter_missing_variable"
	codeLogicMissingBranch    = "logic_missing_branch"
	codePlumbingDeadEnd       = "plumbing_dead_end"
	codePlumbingCycle         = "plumbing_cycle"
	codeUnreachableNode       = "unreachable_node"
	codeQuestionWithoutAnswer = "question_without_answer"
	codeTerminalWithoutCmd    = "terminal_without_command"
	codeIdentifyNoCulprit     = "identify_without_culprit"
	codeGatedEvidence         = "gated_evidence_unreachable"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Node     string   `json:"node,omitempty"`
}

type Report struct {
	Case   string  `json:"case"`
	Issues []Issue `json:"issues"`
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// Run checks an indexed case for authoring mistakes that would strand or
// confuse a player. It never fails; everything it finds goes in the report.
func Run(g *story.Graph) *Report {
	report := &Report{Case: g.ID, Issues: make([]Issue, 0)}
	add := func(severity Severity, code, node, format string, args ...any) {
		report.Issues = append(report.Issues, Issue{
			Severity: severity,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
			Node:     node,
		})
	}

	for _, edge := range g.Edges {
		if _, ok := g.Node(edge.Source); !ok {
			add(SeverityError, codeDanglingEdge, edge.Source, "edge %s leaves unknown node %q", edgeName(edge), edge.Source)
		}
		if _, ok := g.Node(edge.Target); !ok {
			add(SeverityError, codeDanglingEdge, edge.Source, "edge %s points at unknown node %q", edgeName(edge), edge.Target)
		}
	}

	hasCulpritSuspect := false
	for _, suspect := range g.NodesOfType(story.TypeSuspect) {
		if suspect.Culprit() {
			hasCulpritSuspect = true
			break
		}
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		if !node.Type.Known() {
			add(SeverityWarn, codeUnknownNodeType, node.ID, "node type %q is not recognised and will be shown as a plain node", node.Type)
		}

		outgoing := liveEdges(g, node.ID)
		if node.Type.Plumbing() && len(outgoing) == 0 {
			add(SeverityError, codePlumbingDeadEnd, node.ID, "%s node has no outgoing edge", node.Type)
		}

		switch node.Type {
		case story.TypeSetter:
			if strings.TrimSpace(node.Data.VariableID) == "" {
				add(SeverityError, codeSetterMissingVariable, node.ID, "setter node has no variableId")
			}
		case story.TypeLogic:
			if len(outgoing) == 1 && !strings.EqualFold(node.Data.LogicType, "while") && !outgoing[0].Branch(true) && !outgoing[0].Branch(false) {
				add(SeverityWarn, codeLogicMissingBranch, node.ID, "logic node has a single unflagged edge; it is followed for both outcomes")
			}
			if len(outgoing) > 1 && !hasBranch(outgoing, true) && !hasBranch(outgoing, false) {
				add(SeverityWarn, codeLogicMissingBranch, node.ID, "logic node has %d edges and none flagged true or false", len(outgoing))
			}
		case story.TypeQuestion:
			if !hasCorrectOption(node) {
				add(SeverityError, codeQuestionWithoutAnswer, node.ID, "question has no option marked isCorrect")
			}
		case story.TypeTerminal:
			if strings.TrimSpace(node.Data.Command) == "" && !hasCommand(node.Data.Commands) {
				add(SeverityError, codeTerminalWithoutCmd, node.ID, "terminal has no expected command")
			}
		case story.TypeIdentify:
			if strings.TrimSpace(node.Data.CulpritName) == "" && !hasCulpritSuspect {
				add(SeverityError, codeIdentifyNoCulprit, node.ID, "identify node has no culpritName and no suspect is marked as the culprit")
			}
		}
	}

	for _, id := range plumbingCycles(g) {
		add(SeverityWarn, codePlumbingCycle, id, "plumbing nodes loop back to %s; traversal stops at the step budget", id)
	}

	gates := engine.NewGates(g)
	reached := reachable(g, gates)
	for _, edge := range g.Edges {
		gate, gated := gates.For(edge)
		if !gated || !reached[edge.Source] || reached[gate] {
			continue
		}
		add(SeverityWarn, codeGatedEvidence, edge.Source, "edge %s is gated on %s, which the player can never collect", edgeName(edge), gate)
	}
	for i := range g.Nodes {
		node := &g.Nodes[i]
		// Suspects are reached through accusations rather than edges.
		if reached[node.ID] || node.Type == story.TypeSuspect {
			continue
		}
		add(SeverityWarn, codeUnreachableNode, node.ID, "node cannot be reached from the start node")
	}

	return report
}

// liveEdges drops edges whose target does not exist.
func liveEdges(g *story.Graph, id string) []story.Edge {
	var edges []story.Edge
	for _, edge := range g.Outgoing(id) {
		if _, ok := g.Node(edge.Target); ok {
			edges = append(edges, edge)
		}
	}
	return edges
}

// reachable walks from the start node. Gated edges only open once their
// evidence node has itself been reached, so the walk repeats until stable.
func reachable(g *story.Graph, gates engine.Gates) map[string]bool {
	reached := make(map[string]bool)
	start, ok := g.Start()
	if !ok {
		return reached
	}
	reached[start.ID] = true

	for changed := true; changed; {
		changed = false
		queue := make([]string, 0, len(reached))
		for id := range reached {
			queue = append(queue, id)
		}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, edge := range liveEdges(g, id) {
				if reached[edge.Target] {
					continue
				}
				if gate, gated := gates.For(edge); gated && !reached[gate] {
					continue
				}
				reached[edge.Target] = true
				changed = true
				queue = append(queue, edge.Target)
			}
		}
	}
	return reached
}

// plumbingCycles returns, in declaration order, the nodes at which a walk over
// plumbing-only edges closes a loop.
func plumbingCycles(g *story.Graph) []string {
	const (
		unvisited = iota
		active
		done
	)
	color := make(map[string]int)
	seen := make(map[string]bool)
	var found []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = active
		for _, edge := range liveEdges(g, id) {
			target, _ := g.Node(edge.Target)
			if !target.Type.Plumbing() {
				continue
			}
			switch color[target.ID] {
			case unvisited:
				visit(target.ID)
			case active:
				if !seen[target.ID] {
					seen[target.ID] = true
					found = append(found, target.ID)
				}
			}
		}
		color[id] = done
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Type.Plumbing() && color[node.ID] == unvisited {
			visit(node.ID)
		}
	}
	return found
}

func hasBranch(edges []story.Edge, outcome bool) bool {
	for _, edge := range edges {
		if edge.Branch(outcome) {
			return true
		}
	}
	return false
}

func hasCorrectOption(node *story.Node) bool {
	for _, option := range node.Data.Options {
		if option.IsCorrect {
			return true
		}
	}
	return false
}

func hasCommand(commands []string) bool {
	for _, cmd := range commands {
		if strings.TrimSpace(cmd) != "" {
			return true
		}
	}
	return false
}

func edgeName(edge story.Edge) string {
	if edge.ID != "" {
		return edge.ID
	}
	return edge.Source + "->" + edge.Target
}
