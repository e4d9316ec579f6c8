// Package community groups nodes by modularity: a deterministic greedy
// variant of the usual local-move-then-aggregate scheme. Nodes move in
// ascending id order and ties prefer the smallest community id, so the
// same graph always yields the same labels; the partition stage depends
// on that for reproducible fallbacks.
package community

import (
	"context"
	"fmt"
	"sort"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

type Options struct {
	MaxLevels int     // aggregation rounds
	MaxSweeps int     // local move sweeps per round
	MinGain   float64 // modularity gain required to move a node
}

func DefaultOptions() Options {
	return Options{MaxLevels: 10, MaxSweeps: 50, MinGain: 1e-9}
}

func (o Options) Validate() error {
	if o.MaxLevels < 1 || o.MaxSweeps < 1 {
		return fmt.Errorf("community: levels and sweeps must be at least 1")
	}
	if o.MinGain < 0 {
		return fmt.Errorf("community: min gain must be non-negative")
	}
	return nil
}

// Result labels every node with a community in 0..Count-1. Label order is
// canonical: the community holding the smallest node id is 0.
type Result struct {
	Labels     map[int]int `json:"labels"`
	Count      int         `json:"count"`
	Sizes      []int       `json:"sizes"`
	Modularity float64     `json:"modularity"`
}

// Detect runs the greedy modularity scheme. Directed graphs are treated
// through their undirected view, which is how the walk-based analyses
// elsewhere read community structure too.
func Detect(ctx context.Context, g *netgraph.Graph, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return &Result{Labels: map[int]int{}}, nil
	}

	w := fromGraph(g)
	membership := make(map[int]int, len(nodes))
	for _, v := range nodes {
		membership[v] = v
	}

	if w.m > 0 {
		for level := 0; level < opts.MaxLevels; level++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			comm, moved := w.localMove(opts)
			if !moved {
				break
			}
			for v, super := range membership {
				membership[v] = comm[super]
			}
			w = w.aggregate(comm)
		}
	}

	return finalize(g, membership), nil
}

// finalize compacts arbitrary community ids into 0..k-1 ordered by
// smallest member and computes modularity over the original graph.
func finalize(g *netgraph.Graph, membership map[int]int) *Result {
	smallest := map[int]int{}
	for _, v := range g.Nodes() {
		c := membership[v]
		if cur, ok := smallest[c]; !ok || v < cur {
			smallest[c] = v
		}
	}
	order := make([]int, 0, len(smallest))
	for c := range smallest {
		order = append(order, c)
	}
	sort.Slice(order, func(i, j int) bool { return smallest[order[i]] < smallest[order[j]] })
	compact := make(map[int]int, len(order))
	for label, c := range order {
		compact[c] = label
	}

	res := &Result{
		Labels: make(map[int]int, len(membership)),
		Count:  len(order),
		Sizes:  make([]int, len(order)),
	}
	for _, v := range g.Nodes() {
		label := compact[membership[v]]
		res.Labels[v] = label
		res.Sizes[label]++
	}
	res.Modularity = modularity(g, res.Labels)
	return res
}

// modularity evaluates Q = Σ_c (e_c/m - (d_c/2m)^2) on the undirected
// view of the original graph.
func modularity(g *netgraph.Graph, labels map[int]int) float64 {
	intra := map[int]float64{}
	deg := map[int]float64{}
	m := 0.0
	seen := map[[2]int]bool{}
	for _, e := range g.Edges() {
		u, v := e.U, e.V
		if u > v {
			u, v = v, u
		}
		if seen[[2]int{u, v}] {
			continue // reciprocal directed pair counts once
		}
		seen[[2]int{u, v}] = true
		m++
		deg[labels[u]]++
		deg[labels[v]]++
		if labels[u] == labels[v] {
			intra[labels[u]]++
		}
	}
	if m == 0 {
		return 0
	}
	q := 0.0
	for c, d := range deg {
		share := d / (2 * m)
		q += intra[c]/m - share*share
	}
	return q
}
