package dag

import "slices"

// NodeKind is the closed set of node kinds a workflow is built from.
type NodeKind string

const (
	KindQuery      NodeKind = "query"
	KindRetrieval  NodeKind = "retrieval"
	KindGeneration NodeKind = "generation"
	KindOutput     NodeKind = "output"
)

// Node is one step of a workflow.
type Node struct {
	ID   string
	Kind NodeKind
	// Label is the name shown in the editor. Errors about the node use it
	// when set.
	Label  string
	Config NodeConfig
}

// DisplayName returns the label, falling back to the id.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge makes To depend on the output of From.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Graph is the immutable description of one workflow run. Nodes keep the
// order they were declared in; edges may contain duplicates, which count once.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Node returns the first node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasKind reports whether any node is of kind k.
func (g *Graph) HasKind(k NodeKind) bool {
	return slices.ContainsFunc(g.Nodes, func(n Node) bool { return n.Kind == k })
}

// uniqueEdges drops duplicate edges and edges with an unknown endpoint.
// The first occurrence of an edge keeps its position.
func (g *Graph) uniqueEdges() []Edge {
	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		known[n.ID] = true
	}
	seen := make(map[Edge]bool, len(g.Edges))
	out := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if seen[e] || !known[e.From] || !known[e.To] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// adjacency maps each node id to its children in edge order.
func adjacency(edges []Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	return adj
}
