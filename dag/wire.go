package dag

import (
	"bytes"
	"encoding/json"
	stderrors "errors"

	"github.com/kbukum/ragflow/errors"
)

// WireGraph is the JSON form of a workflow as the editor sends it.
type WireGraph struct {
	Nodes []WireNode `json:"nodes"`
	Edges []WireEdge `json:"edges"`
}

// WireNode carries its config undecoded until the kind is known.
type WireNode struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Label  string          `json:"label,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

type WireEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DecodeGraph parses a JSON workflow. Payload defects, such as an unknown
// node type or a config that does not match its kind, are reported as
// MALFORMED_WORKFLOW. Structural problems are left to Validate.
func DecodeGraph(data []byte, reg *Registry) (*Graph, error) {
	var w WireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.MalformedWorkflow("workflow is not valid JSON: %v", err)
	}
	return w.Graph(reg)
}

// Graph converts the wire form into a Graph, decoding each config with the
// factory registered for its kind.
func (w *WireGraph) Graph(reg *Registry) (*Graph, error) {
	g := &Graph{
		Nodes: make([]Node, 0, len(w.Nodes)),
		Edges: make([]Edge, 0, len(w.Edges)),
	}
	for i, wn := range w.Nodes {
		if wn.ID == "" {
			return nil, errors.MalformedWorkflow("node at position %d has no id", i)
		}
		if wn.Type == "" {
			return nil, errors.MalformedWorkflow("node at position %d has no type", i)
		}
		r, err := reg.Resolve(NodeKind(wn.Type))
		if stderrors.Is(err, ErrUnknownKind) {
			return nil, errors.MalformedWorkflow("node %q has unknown type %q", wn.ID, wn.Type)
		}
		cfg := r.NewConfig()
		if len(wn.Config) > 0 && !bytes.Equal(bytes.TrimSpace(wn.Config), []byte("null")) {
			dec := json.NewDecoder(bytes.NewReader(wn.Config))
			dec.DisallowUnknownFields()
			if err := dec.Decode(cfg); err != nil {
				return nil, errors.MalformedWorkflow("node %q has invalid %s config: %v", wn.ID, wn.Type, err)
			}
		}
		g.Nodes = append(g.Nodes, Node{ID: wn.ID, Kind: r.Kind, Label: wn.Label, Config: cfg})
	}
	for i, we := range w.Edges {
		if we.From == "" || we.To == "" {
			return nil, errors.MalformedWorkflow("edge at position %d must name both from and to", i)
		}
		g.Edges = append(g.Edges, Edge(we))
	}
	return g, nil
}

// ToWire converts g back to its wire form.
func ToWire(g *Graph) (*WireGraph, error) {
	w := &WireGraph{
		Nodes: make([]WireNode, 0, len(g.Nodes)),
		Edges: make([]WireEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		wn := WireNode{ID: n.ID, Type: string(n.Kind), Label: n.Label}
		if n.Config != nil {
			raw, err := json.Marshal(n.Config)
			if err != nil {
				return nil, err
			}
			wn.Config = raw
		}
		w.Nodes = append(w.Nodes, wn)
	}
	for _, e := range g.Edges {
		w.Edges = append(w.Edges, WireEdge(e))
	}
	return w, nil
}
