package testutil

import "github.com/kbukum/ragflow/dag"

// GraphBuilder assembles graphs for tests.
//
//	g := testutil.NewGraph().
//		Query("q").Generation("gen", "llama3", 0).Output("out").
//		Edge("q", "gen").Edge("gen", "out").
//		Build()
type GraphBuilder struct {
	g dag.Graph
}

func NewGraph() *GraphBuilder {
	return &GraphBuilder{}
}

// Node adds a node with an explicit config.
func (b *GraphBuilder) Node(id string, kind dag.NodeKind, cfg dag.NodeConfig) *GraphBuilder {
	b.g.Nodes = append(b.g.Nodes, dag.Node{ID: id, Kind: kind, Config: cfg})
	return b
}

func (b *GraphBuilder) Query(id string) *GraphBuilder {
	return b.Node(id, dag.KindQuery, &dag.QueryConfig{})
}

func (b *GraphBuilder) Retrieval(id, collection string, topK int) *GraphBuilder {
	return b.Node(id, dag.KindRetrieval, &dag.RetrievalConfig{Collection: collection, TopK: topK})
}

func (b *GraphBuilder) Generation(id, model string, temperature float64) *GraphBuilder {
	return b.Node(id, dag.KindGeneration, &dag.GenerationConfig{Model: model, Temperature: temperature})
}

func (b *GraphBuilder) Output(id string) *GraphBuilder {
	return b.Node(id, dag.KindOutput, &dag.OutputConfig{})
}

// Label sets the label of the most recently added node.
func (b *GraphBuilder) Label(label string) *GraphBuilder {
	if n := len(b.g.Nodes); n > 0 {
		b.g.Nodes[n-1].Label = label
	}
	return b
}

func (b *GraphBuilder) Edge(from, to string) *GraphBuilder {
	b.g.Edges = append(b.g.Edges, dag.Edge{From: from, To: to})
	return b
}

// Chain adds an edge between each consecutive pair of ids.
func (b *GraphBuilder) Chain(ids ...string) *GraphBuilder {
	for i := 1; i < len(ids); i++ {
		b.Edge(ids[i-1], ids[i])
	}
	return b
}

func (b *GraphBuilder) Build() *dag.Graph {
	g := b.g
	g.Nodes = append([]dag.Node(nil), b.g.Nodes...)
	g.Edges = append([]dag.Edge(nil), b.g.Edges...)
	return &g
}
