package dag

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/validation"
)

// Size limits of a single workflow.
const (
	MaxNodes = 50
	MaxEdges = 200
)

// requiredKinds must each appear at least once, in this reporting order.
var requiredKinds = []NodeKind{KindQuery, KindGeneration, KindOutput}

// defaultConfigs stands in for a missing config so a node without one is
// checked like a node with every field left unset.
var defaultConfigs = map[NodeKind]func() NodeConfig{
	KindRetrieval:  func() NodeConfig { return NewRetrievalConfig() },
	KindGeneration: func() NodeConfig { return NewGenerationConfig() },
}

// Validate returns every structural problem of g. An empty result means g
// can be executed. Validate has no side effects.
func Validate(g *Graph) []string {
	if g == nil || len(g.Nodes) == 0 {
		return []string{"workflow has no nodes"}
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(g.Nodes) > MaxNodes {
		report("workflow has %d nodes, the limit is %d", len(g.Nodes), MaxNodes)
	}
	if len(g.Edges) > MaxEdges {
		report("workflow has %d edges, the limit is %d", len(g.Edges), MaxEdges)
	}

	ids := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			report("node at position %d has no id", i)
			continue
		}
		ids[n.ID]++
		if ids[n.ID] == 2 {
			report("duplicate node id %q", n.ID)
		}
	}

	missingKind := false
	for _, k := range requiredKinds {
		if !g.HasKind(k) {
			missingKind = true
			report("workflow requires at least one %s node", k)
		}
	}

	for _, e := range g.Edges {
		if ids[e.From] == 0 {
			report("edge %q -> %q references unknown source node %q", e.From, e.To, e.From)
		}
		if ids[e.To] == 0 {
			report("edge %q -> %q references unknown target node %q", e.From, e.To, e.To)
		}
	}

	edges := g.uniqueEdges()
	adj := sortedAdjacency(edges)
	if cycle := findCycle(g, adj); cycle != nil {
		report("workflow contains a cycle: %s", strings.Join(cycle, " -> "))
	}

	if !missingKind {
		if msg := checkReachability(g, adj); msg != "" {
			report("%s", msg)
		}
	}

	for _, n := range g.Nodes {
		cfg := n.Config
		if cfg == nil {
			newCfg, ok := defaultConfigs[n.Kind]
			if !ok {
				continue
			}
			cfg = newCfg()
		}
		v := validation.New()
		cfg.Check(v)
		for _, fe := range v.Errors() {
			report("%s node %q: %s", n.Kind, n.DisplayName(), fe)
		}
	}

	return problems
}

// Check wraps the problems of Validate in a WORKFLOW_INVALID error.
func Check(g *Graph) error {
	if problems := Validate(g); len(problems) > 0 {
		return errors.WorkflowInvalid(problems)
	}
	return nil
}

func sortedAdjacency(edges []Edge) map[string][]string {
	adj := adjacency(edges)
	for _, children := range adj {
		slices.Sort(children)
	}
	return adj
}

// findCycle runs a depth-first search from every node in ascending id order
// and returns the first cycle met as a closed path (a -> b -> a), or nil.
func findCycle(g *Graph, adj map[string][]string) []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.Nodes))
	var stack, cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = onStack
		stack = append(stack, id)
		for _, next := range adj[id] {
			switch state[next] {
			case onStack:
				start := slices.Index(stack, next)
				cycle = append(slices.Clone(stack[start:]), next)
				return true
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range sortedIDs(g) {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// checkReachability requires one query node from which both a generation
// node and an output node are reachable. Different query nodes reaching one
// kind each do not satisfy it.
func checkReachability(g *Graph, adj map[string][]string) string {
	kinds := make(map[string]NodeKind, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := kinds[n.ID]; !ok {
			kinds[n.ID] = n.Kind
		}
	}

	anyGeneration, anyOutput := false, false
	for _, id := range sortedIDs(g) {
		if kinds[id] != KindQuery {
			continue
		}
		gen, out := false, false
		for _, r := range reachable(adj, id) {
			gen = gen || kinds[r] == KindGeneration
			out = out || kinds[r] == KindOutput
		}
		if gen && out {
			return ""
		}
		anyGeneration = anyGeneration || gen
		anyOutput = anyOutput || out
	}

	switch {
	case !anyGeneration && !anyOutput:
		return "no query node has a path to a generation node or an output node"
	case !anyGeneration:
		return "no query node has a path to a generation node"
	case !anyOutput:
		return "no query node has a path to an output node"
	default:
		return "no single query node has paths to both a generation node and an output node"
	}
}

func sortedIDs(g *Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID != "" {
			ids = append(ids, n.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
