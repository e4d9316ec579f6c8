package netgraph

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNegativeNode = errors.New("netgraph: node id must be non-negative")
	ErrSelfLoop     = errors.New("netgraph: self loops are not allowed")
	ErrNodeNotFound = errors.New("netgraph: node not found")
	ErrEdgeNotFound = errors.New("netgraph: edge not found")
)

// Edge is a single adjacency entry. For undirected graphs U < V always
// holds, so an edge has exactly one canonical form.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Graph is a binary-adjacency graph over integer node ids. Directedness is
// fixed at construction and never changes; derived computations work on
// copies (Clone, WithoutNode, WithoutEdge, InducedSubgraph) so a loaded
// graph is never mutated behind a running analysis.
type Graph struct {
	directed bool
	nodes    map[int]struct{}
	out      map[int]map[int]struct{}
	in       map[int]map[int]struct{}
}

func NewGraph(directed bool) *Graph {
	return &Graph{
		directed: directed,
		nodes:    map[int]struct{}{},
		out:      map[int]map[int]struct{}{},
		in:       map[int]map[int]struct{}{},
	}
}

func (g *Graph) Directed() bool { return g.directed }

func (g *Graph) AddNode(id int) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeNode, id)
	}
	g.nodes[id] = struct{}{}
	return nil
}

// AddEdge links u and v, adding either endpoint if missing. The adjacency
// is binary, so repeated inserts of the same pair are a no-op.
func (g *Graph) AddEdge(u, v int) error {
	if u == v {
		return fmt.Errorf("%w: node %d", ErrSelfLoop, u)
	}
	if err := g.AddNode(u); err != nil {
		return err
	}
	if err := g.AddNode(v); err != nil {
		return err
	}
	g.link(u, v)
	if !g.directed {
		g.link(v, u)
	}
	return nil
}

func (g *Graph) link(u, v int) {
	if g.out[u] == nil {
		g.out[u] = map[int]struct{}{}
	}
	if g.in[v] == nil {
		g.in[v] = map[int]struct{}{}
	}
	g.out[u][v] = struct{}{}
	g.in[v][u] = struct{}{}
}

func (g *Graph) HasNode(id int) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.out[u][v]
	return ok
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int {
	total := 0
	for _, nbrs := range g.out {
		total += len(nbrs)
	}
	if !g.directed {
		total /= 2
	}
	return total
}

// Nodes returns all node ids in ascending order.
func (g *Graph) Nodes() []int {
	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Edges returns the edge set in canonical ascending order. Undirected
// edges appear once with U < V.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.EdgeCount())
	for u, nbrs := range g.out {
		for v := range nbrs {
			if !g.directed && u > v {
				continue
			}
			edges = append(edges, Edge{U: u, V: v})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].U != edges[j].U {
			return edges[i].U < edges[j].U
		}
		return edges[i].V < edges[j].V
	})
	return edges
}

// OutNeighbors returns v's successors in ascending order. For undirected
// graphs this is the full neighborhood.
func (g *Graph) OutNeighbors(v int) []int {
	return sortedKeys(g.out[v])
}

func (g *Graph) InNeighbors(v int) []int {
	return sortedKeys(g.in[v])
}

func (g *Graph) OutDegree(v int) int { return len(g.out[v]) }
func (g *Graph) InDegree(v int) int  { return len(g.in[v]) }

// Degree is the undirected neighborhood size; for directed graphs it is
// the out-degree.
func (g *Graph) Degree(v int) int { return len(g.out[v]) }

func (g *Graph) Density() float64 {
	n := len(g.nodes)
	if n < 2 {
		return 0
	}
	pairs := float64(n) * float64(n-1)
	if !g.directed {
		pairs /= 2
	}
	return float64(g.EdgeCount()) / pairs
}

func (g *Graph) Clone() *Graph {
	out := NewGraph(g.directed)
	for id := range g.nodes {
		out.nodes[id] = struct{}{}
	}
	for u, nbrs := range g.out {
		for v := range nbrs {
			out.link(u, v)
		}
	}
	return out
}

// WithoutNode returns a copy with id and all incident edges removed.
func (g *Graph) WithoutNode(id int) (*Graph, error) {
	if !g.HasNode(id) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	out := g.Clone()
	for v := range out.out[id] {
		delete(out.in[v], id)
	}
	for u := range out.in[id] {
		delete(out.out[u], id)
	}
	delete(out.out, id)
	delete(out.in, id)
	delete(out.nodes, id)
	return out, nil
}

// WithoutEdge returns a copy with the edge removed. For undirected graphs
// either endpoint order is accepted.
func (g *Graph) WithoutEdge(u, v int) (*Graph, error) {
	if !g.HasEdge(u, v) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrEdgeNotFound, u, v)
	}
	out := g.Clone()
	delete(out.out[u], v)
	delete(out.in[v], u)
	if !out.directed {
		delete(out.out[v], u)
		delete(out.in[u], v)
	}
	return out, nil
}

// InducedSubgraph keeps the listed nodes and every edge with both
// endpoints in the list. Unknown ids are ignored.
func (g *Graph) InducedSubgraph(ids []int) *Graph {
	keep := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if g.HasNode(id) {
			keep[id] = struct{}{}
		}
	}
	out := NewGraph(g.directed)
	for id := range keep {
		out.nodes[id] = struct{}{}
	}
	for u := range keep {
		for v := range g.out[u] {
			if _, ok := keep[v]; ok {
				out.link(u, v)
			}
		}
	}
	return out
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
