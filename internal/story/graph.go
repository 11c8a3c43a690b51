package story

import "fmt"

// Graph is an authored case: its nodes, edges and a few case-level settings.
// Nodes and edges are immutable once indexed.
type Graph struct {
	ID        string `yaml:"id" json:"id"`
	Title     string `yaml:"title" json:"title"`
	TimeLimit int    `yaml:"timeLimit" json:"timeLimit"`
	Nodes     []Node `yaml:"nodes" json:"nodes"`
	Edges     []Edge `yaml:"edges" json:"edges"`

	index    map[string]int
	outgoing map[string][]int
	incoming map[string][]int
}

// New indexes nodes and edges into a graph.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{Nodes: nodes, Edges: edges}
	if err := g.build(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) build() error {
	if len(g.Nodes) == 0 {
		return ErrNoNodes
	}

	g.index = make(map[string]int, len(g.Nodes))
	for i, node := range g.Nodes {
		if node.ID == "" {
			return fmt.Errorf("%w: node %d", ErrMissingNodeID, i)
		}
		if _, exists := g.index[node.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}
		g.index[node.ID] = i
	}

	g.outgoing = make(map[string][]int)
	g.incoming = make(map[string][]int)
	for i, edge := range g.Edges {
		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], i)
		g.incoming[edge.Target] = append(g.incoming[edge.Target], i)
	}
	return nil
}

func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// Outgoing returns the edges leaving id in declaration order.
func (g *Graph) Outgoing(id string) []Edge {
	return g.collect(g.outgoing[id])
}

// Incoming returns the edges entering id in declaration order.
func (g *Graph) Incoming(id string) []Edge {
	return g.collect(g.incoming[id])
}

func (g *Graph) collect(indexes []int) []Edge {
	if len(indexes) == 0 {
		return nil
	}
	edges := make([]Edge, 0, len(indexes))
	for _, i := range indexes {
		edges = append(edges, g.Edges[i])
	}
	return edges
}

// Start returns the node play begins at: the node flagged isStart, else the
// first visual node with no incoming edges, else the first node.
func (g *Graph) Start() (*Node, bool) {
	if len(g.Nodes) == 0 {
		return nil, false
	}
	for i := range g.Nodes {
		if g.Nodes[i].Data.IsStart {
			return &g.Nodes[i], true
		}
	}
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Type.Plumbing() {
			continue
		}
		if len(g.incoming[node.ID]) == 0 {
			return node, true
		}
	}
	return &g.Nodes[0], true
}

// NodesOfType returns the nodes of type t in declaration order.
func (g *Graph) NodesOfType(t NodeType) []*Node {
	var nodes []*Node
	for i := range g.Nodes {
		if g.Nodes[i].Type == t {
			nodes = append(nodes, &g.Nodes[i])
		}
	}
	return nodes
}
