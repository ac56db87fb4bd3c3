package dag

import (
	"container/heap"
	"fmt"
)

// idHeap is a min-heap of node ids.
type idHeap []string

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(string)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopologicalOrder returns the node ids of g in dependency order. Among
// nodes whose dependencies are all placed, the smallest id goes first, so
// the order depends only on the graph and never on map iteration.
func TopologicalOrder(g *Graph) ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		indegree[n.ID] = 0
	}
	edges := g.uniqueEdges()
	for _, e := range edges {
		indegree[e.To]++
	}
	adj := adjacency(edges)

	ready := &idHeap{}
	for id, d := range indegree {
		if d == 0 {
			*ready = append(*ready, id)
		}
	}
	heap.Init(ready)

	order := make([]string, 0, len(indegree))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(string)
		order = append(order, id)
		for _, child := range adj[id] {
			indegree[child]--
			if indegree[child] == 0 {
				heap.Push(ready, child)
			}
		}
	}

	if len(order) != len(indegree) {
		return nil, fmt.Errorf("dag: cycle detected, ordered %d of %d nodes", len(order), len(indegree))
	}
	return order, nil
}

// Descendants returns every node reachable from id, excluding id itself,
// in breadth-first order.
func Descendants(g *Graph, id string) []string {
	return reachable(adjacency(g.uniqueEdges()), id)
}

func reachable(adj map[string][]string, from string) []string {
	seen := map[string]bool{from: true}
	queue := []string{from}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
				queue = append(queue, next)
			}
		}
	}
	return out
}
