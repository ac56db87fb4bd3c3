package dag_test

import (
	"encoding/json"
	"testing"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
)

const wireWorkflow = `{
  "nodes": [
    {"id": "q", "type": "query"},
    {"id": "r", "type": "retrieval", "config": {"collection": "handbook"}},
    {"id": "gen", "type": "generation", "label": "Writer", "config": {"model": "llama3", "temperature": 0.2, "use_retrieved_context": false}},
    {"id": "out", "type": "output", "config": null}
  ],
  "edges": [
    {"from": "q", "to": "r"},
    {"from": "r", "to": "gen"},
    {"from": "gen", "to": "out"}
  ]
}`

func TestDecodeGraph(t *testing.T) {
	g, err := dag.DecodeGraph([]byte(wireWorkflow), dag.DefaultRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes) != 4 || len(g.Edges) != 3 {
		t.Fatalf("expected 4 nodes and 3 edges, got %d and %d", len(g.Nodes), len(g.Edges))
	}

	r, _ := g.Node("r")
	rc, ok := r.Config.(*dag.RetrievalConfig)
	if !ok || rc.Collection != "handbook" || rc.TopK != dag.DefaultTopK {
		t.Fatalf("expected retrieval config with default top_k, got %#v", r.Config)
	}

	gen, _ := g.Node("gen")
	gc := gen.Config.(*dag.GenerationConfig)
	if gen.Label != "Writer" || gc.Model != "llama3" || gc.Temperature != 0.2 || gc.ContextEnabled() {
		t.Fatalf("unexpected generation node: %+v %+v", gen, gc)
	}

	out, _ := g.Node("out")
	if _, ok := out.Config.(*dag.OutputConfig); !ok {
		t.Fatalf("expected output config, got %#v", out.Config)
	}
	if problems := dag.Validate(g); len(problems) != 0 {
		t.Fatalf("expected valid graph, got %v", problems)
	}
}

func TestDecodeGraph_ExplicitZeroTopK(t *testing.T) {
	data := `{"nodes":[{"id":"r","type":"retrieval","config":{"collection":"c","top_k":0}}],"edges":[]}`
	g, err := dag.DecodeGraph([]byte(data), dag.DefaultRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := g.Node("r")
	if r.Config.(*dag.RetrievalConfig).TopK != 0 {
		t.Fatal("expected explicit top_k 0 to be kept for validation")
	}
}

func TestDecodeGraph_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":        `{"nodes": [`,
		"unknown type":    `{"nodes":[{"id":"x","type":"summarize"}]}`,
		"missing type":    `{"nodes":[{"id":"x"}]}`,
		"missing id":      `{"nodes":[{"type":"query"}]}`,
		"wrong config":    `{"nodes":[{"id":"r","type":"retrieval","config":{"top_k":"five"}}]}`,
		"unknown field":   `{"nodes":[{"id":"r","type":"retrieval","config":{"colection":"c"}}]}`,
		"edge without to": `{"nodes":[{"id":"q","type":"query"}],"edges":[{"from":"q"}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := dag.DecodeGraph([]byte(data), dag.DefaultRegistry())
			if !errors.IsCode(err, errors.ErrCodeMalformedWorkflow) {
				t.Fatalf("expected MALFORMED_WORKFLOW, got %v", err)
			}
		})
	}
}

func TestToWire_RoundTripsThroughDecode(t *testing.T) {
	g, err := dag.DecodeGraph([]byte(wireWorkflow), dag.DefaultRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, err := dag.ToWire(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := dag.DecodeGraph(data, dag.DefaultRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gen, _ := again.Node("gen")
	if gen.Config.(*dag.GenerationConfig).ContextEnabled() {
		t.Fatal("expected use_retrieved_context=false to survive encoding")
	}
}
