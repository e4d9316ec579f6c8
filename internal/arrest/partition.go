package arrest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest/solver"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

// PartitionOptions weight the objective and bound the solver.
//
// Alpha rewards concentrating centrality mass inside a group, Beta
// penalizes edges crossing the two groups. Balance, when set, caps the
// group size gap at the given tolerance. A zero or negative TimeBudget
// sends every call straight down the heuristic path.
type PartitionOptions struct {
	Alpha      float64
	Beta       float64
	Balance    *int
	TimeBudget time.Duration
	Strategy   solver.Strategy
}

func (o PartitionOptions) validate() error {
	if o.Alpha < 0 || o.Beta < 0 {
		return fmt.Errorf("%w: weights alpha=%v beta=%v", ErrBadOptions, o.Alpha, o.Beta)
	}
	if o.Balance != nil && *o.Balance < 0 {
		return fmt.Errorf("%w: balance tolerance %d", ErrBadOptions, *o.Balance)
	}
	return nil
}

// Partitioner computes a two-group node assignment that concentrates
// high-value nodes inside groups while keeping risky cross-group edges
// low. The exact solver runs under a time budget; when it cannot certify
// an optimum the partitioner falls back to a deterministic heuristic and
// reports that through the result status, never as an error.
type Partitioner struct {
	opts PartitionOptions
}

func NewPartitioner(opts PartitionOptions) (*Partitioner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Strategy == nil {
		opts.Strategy = solver.NewBranchBound()
	}
	return &Partitioner{opts: opts}, nil
}

// Optimize assigns every node of g to group 0 or 1. Missing centrality
// entries count as zero; the community signal only steers the fallback.
// The group holding the smallest node id is always labeled 0.
func (p *Partitioner) Optimize(ctx context.Context, g *netgraph.Graph, centrality map[int]float64, community map[int]int) (*PartitionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return &PartitionResult{Assignment: map[int]int{}, Status: StatusOptimal}, nil
	}

	sol, err := p.opts.Strategy.Solve(ctx, p.problem(g, centrality), p.opts.TimeBudget)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		assignment := p.heuristic(g, centrality, community)
		return &PartitionResult{
			Assignment: assignment,
			Objective:  EvaluateObjective(g, centrality, assignment, p.opts.Alpha, p.opts.Beta),
			Status:     StatusHeuristic,
		}, nil
	}
	return &PartitionResult{
		Assignment: canonical(sol.Assignment, nodes),
		Objective:  sol.Objective,
		Status:     StatusOptimal,
	}, nil
}

// problem orders the decision variables heavy-first so the solver's
// greedy seed and bound have the most mass to work with early.
func (p *Partitioner) problem(g *netgraph.Graph, centrality map[int]float64) solver.Problem {
	nodes := g.Nodes()
	c := make(map[int]float64, len(nodes))
	for _, v := range nodes {
		c[v] = centrality[v]
	}
	order := append([]int(nil), nodes...)
	sort.Slice(order, func(i, j int) bool {
		if c[order[i]] != c[order[j]] {
			return c[order[i]] > c[order[j]]
		}
		return order[i] < order[j]
	})
	edgeList := g.Edges()
	edges := make([][2]int, len(edgeList))
	for i, e := range edgeList {
		edges[i] = [2]int{e.U, e.V}
	}
	return solver.Problem{
		Nodes:      order,
		Centrality: c,
		Edges:      edges,
		Alpha:      p.opts.Alpha,
		Beta:       p.opts.Beta,
		BalanceTol: p.opts.Balance,
	}
}

// heuristic is the deterministic fallback split. With a community signal
// it fills group 0 community by community and repairs the size gap with
// the cheapest cross-edge moves; without one it alternates assignment
// over nodes sorted by centrality descending, ids ascending.
func (p *Partitioner) heuristic(g *netgraph.Graph, centrality map[int]float64, community map[int]int) map[int]int {
	nodes := g.Nodes()
	if len(community) > 0 {
		return p.communitySplit(g, nodes, centrality, community)
	}
	return p.alternateSplit(nodes, centrality)
}

func (p *Partitioner) alternateSplit(nodes []int, centrality map[int]float64) map[int]int {
	order := append([]int(nil), nodes...)
	sort.Slice(order, func(i, j int) bool {
		ci, cj := centrality[order[i]], centrality[order[j]]
		if ci != cj {
			return ci > cj
		}
		return order[i] < order[j]
	})
	assign := make(map[int]int, len(order))
	for i, v := range order {
		assign[v] = i % 2
	}
	return canonical(assign, nodes)
}

func (p *Partitioner) communitySplit(g *netgraph.Graph, nodes []int, centrality map[int]float64, community map[int]int) map[int]int {
	type bucket struct {
		members []int
		mass    float64
	}
	byLabel := map[int]*bucket{}
	for _, v := range nodes {
		b := byLabel[community[v]]
		if b == nil {
			b = &bucket{}
			byLabel[community[v]] = b
		}
		b.members = append(b.members, v)
		b.mass += centrality[v]
	}
	buckets := make([]*bucket, 0, len(byLabel))
	for _, b := range byLabel {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].mass != buckets[j].mass {
			return buckets[i].mass > buckets[j].mass
		}
		return buckets[i].members[0] < buckets[j].members[0]
	})

	assign := make(map[int]int, len(nodes))
	filled := 0
	half := (len(nodes) + 1) / 2
	for _, b := range buckets {
		grp := 1
		if filled < half {
			grp = 0
			filled += len(b.members)
		}
		for _, v := range b.members {
			assign[v] = grp
		}
	}

	tol := 1
	if p.opts.Balance != nil {
		tol = *p.opts.Balance
	}
	// size parity bounds how small the gap can get
	if parity := len(nodes) % 2; tol < parity {
		tol = parity
	}
	p.rebalance(g, nodes, assign, tol)
	return canonical(assign, nodes)
}

// rebalance moves nodes out of the larger group until the size gap is
// within tol, each time picking the move that adds the fewest crossing
// edges, ties broken by ascending node id.
func (p *Partitioner) rebalance(g *netgraph.Graph, nodes []int, assign map[int]int, tol int) {
	for {
		n0, n1 := 0, 0
		for _, v := range nodes {
			if assign[v] == 0 {
				n0++
			} else {
				n1++
			}
		}
		diff := n0 - n1
		if diff < 0 {
			diff = -diff
		}
		if diff <= tol {
			return
		}
		from := 0
		if n1 > n0 {
			from = 1
		}
		best, bestDelta := -1, 0
		for _, v := range nodes {
			if assign[v] != from {
				continue
			}
			d := moveDelta(g, assign, v, from)
			if best == -1 || d < bestDelta {
				best, bestDelta = v, d
			}
		}
		if best == -1 {
			return
		}
		assign[best] = 1 - from
	}
}

// moveDelta is the change in crossing-edge count if v leaves group from.
func moveDelta(g *netgraph.Graph, assign map[int]int, v, from int) int {
	delta := 0
	for _, u := range g.OutNeighbors(v) {
		if assign[u] == from {
			delta++
		} else {
			delta--
		}
	}
	if g.Directed() {
		for _, u := range g.InNeighbors(v) {
			if assign[u] == from {
				delta++
			} else {
				delta--
			}
		}
	}
	return delta
}

// canonical flips labels if needed so the group holding the smallest
// node id is group 0. The objective is symmetric under the flip.
func canonical(assignment map[int]int, nodes []int) map[int]int {
	out := make(map[int]int, len(assignment))
	flip := len(nodes) > 0 && assignment[nodes[0]] == 1
	for v, grp := range assignment {
		if flip {
			grp = 1 - grp
		}
		out[v] = grp
	}
	return out
}

// EvaluateObjective scores an assignment: alpha times the centrality mass
// over same-group node pairs minus beta times the crossing-edge count.
// Any group value other than 1 counts as group 0.
func EvaluateObjective(g *netgraph.Graph, centrality map[int]float64, assignment map[int]int, alpha, beta float64) float64 {
	var sum, sumSq [2]float64
	for _, v := range g.Nodes() {
		grp := 0
		if assignment[v] == 1 {
			grp = 1
		}
		c := centrality[v]
		sum[grp] += c
		sumSq[grp] += c * c
	}
	pairs := (sum[0]*sum[0]-sumSq[0])/2 + (sum[1]*sum[1]-sumSq[1])/2
	cross := 0
	for _, e := range g.Edges() {
		if (assignment[e.U] == 1) != (assignment[e.V] == 1) {
			cross++
		}
	}
	return alpha*pairs - beta*float64(cross)
}
