package centrality

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/linalg"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

var (
	ErrNoConvergence  = errors.New("centrality: iteration did not converge")
	ErrUnknownMeasure = errors.New("centrality: unknown measure")
)

const (
	MeasureDegree      = "degree"
	MeasureCloseness   = "closeness"
	MeasureBetweenness = "betweenness"
	MeasureEigenvector = "eigenvector"
	MeasureKatz        = "katz"
	MeasureRankProp    = "rank_propagation"
)

// AllMeasures lists every measure in stable report order.
func AllMeasures() []string {
	return []string{
		MeasureDegree, MeasureCloseness, MeasureBetweenness,
		MeasureEigenvector, MeasureKatz, MeasureRankProp,
	}
}

// Degree returns degree centrality, degree/(n-1). Directed graphs count
// in plus out.
func Degree(g *netgraph.Graph) map[int]float64 {
	n := g.NodeCount()
	out := make(map[int]float64, n)
	if n < 2 {
		for _, v := range g.Nodes() {
			out[v] = 0
		}
		return out
	}
	denom := float64(n - 1)
	for _, v := range g.Nodes() {
		d := g.OutDegree(v)
		if g.Directed() {
			d += g.InDegree(v)
		}
		out[v] = float64(d) / denom
	}
	return out
}

// Closeness returns closeness centrality with the standard correction for
// disconnected graphs: each node is scored over the part that can reach
// it, scaled by that part's share of the graph. Directed graphs measure
// distance along incoming paths.
func Closeness(g *netgraph.Graph) map[int]float64 {
	n := g.NodeCount()
	out := make(map[int]float64, n)
	for _, v := range g.Nodes() {
		dist := bfsDistances(g, v, g.Directed())
		total := 0
		for _, d := range dist {
			total += d
		}
		reach := len(dist) // includes v at distance 0
		if total == 0 || n < 2 {
			out[v] = 0
			continue
		}
		c := float64(reach-1) / float64(total)
		c *= float64(reach-1) / float64(n-1)
		out[v] = c
	}
	return out
}

// bfsDistances walks from v over in-neighbors when reversed (distance TO v
// along directed paths), otherwise over out-neighbors.
func bfsDistances(g *netgraph.Graph, v int, reversed bool) map[int]int {
	dist := map[int]int{v: 0}
	queue := []int{v}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		var nbrs []int
		if reversed {
			nbrs = g.InNeighbors(u)
		} else {
			nbrs = g.OutNeighbors(u)
		}
		for _, w := range nbrs {
			if _, seen := dist[w]; !seen {
				dist[w] = dist[u] + 1
				queue = append(queue, w)
			}
		}
	}
	return dist
}

// Betweenness runs Brandes' algorithm on the unweighted graph, normalized
// by the number of node pairs.
func Betweenness(ctx context.Context, g *netgraph.Graph) (map[int]float64, error) {
	nodes := g.Nodes()
	n := len(nodes)
	cb := make(map[int]float64, n)
	for _, v := range nodes {
		cb[v] = 0
	}
	if n < 3 {
		return cb, nil
	}

	for _, s := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stack := make([]int, 0, n)
		preds := map[int][]int{}
		sigma := map[int]float64{s: 1}
		dist := map[int]int{s: 0}
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.OutNeighbors(v) {
				if _, seen := dist[w]; !seen {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}
		delta := map[int]float64{}
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	// undirected accumulation visits each pair twice, which exactly
	// cancels against normalizing by unordered instead of ordered pairs
	scale := 1.0 / (float64(n-1) * float64(n-2))
	for v := range cb {
		cb[v] *= scale
	}
	return cb, nil
}

// Eigenvector runs power iteration on the adjacency transpose so a node
// inherits importance from whoever points at it. Converges on the
// dominant component; nodes outside it tend to zero.
func Eigenvector(ctx context.Context, g *netgraph.Graph, opts Options) (map[int]float64, error) {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[int]float64{}, nil
	}
	x := make(map[int]float64, n)
	for _, v := range nodes {
		x[v] = 1.0 / float64(n)
	}
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := make(map[int]float64, n)
		for _, v := range nodes {
			s := 0.0
			for _, u := range g.InNeighbors(v) {
				s += x[u]
			}
			next[v] = s
		}
		norm := 0.0
		for _, v := range nodes {
			norm += next[v] * next[v]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return next, nil // no edges
		}
		diff := 0.0
		for _, v := range nodes {
			next[v] /= norm
			diff += math.Abs(next[v] - x[v])
		}
		x = next
		if diff < float64(n)*opts.Tolerance {
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w: eigenvector after %d iterations", ErrNoConvergence, opts.MaxIterations)
}

// Katz solves (I - a*A^T) x = 1 directly instead of iterating, then
// L2-normalizes. The attenuation factor must stay below the reciprocal
// of the largest adjacency eigenvalue or the solve blows up.
func Katz(g *netgraph.Graph, opts Options) (map[int]float64, error) {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[int]float64{}, nil
	}
	idx := make(map[int]int, n)
	for i, v := range nodes {
		idx[v] = i
	}
	m := linalg.Identity(n)
	for _, v := range nodes {
		for _, u := range g.InNeighbors(v) {
			m.Add(idx[v], idx[u], -opts.KatzAlpha)
		}
	}
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	x, err := m.Solve(ones)
	if err != nil {
		return nil, fmt.Errorf("centrality: katz solve: %w", err)
	}
	norm := 0.0
	for _, v := range x {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make(map[int]float64, n)
	for i, v := range nodes {
		if norm > 0 {
			out[v] = x[i] / norm
		}
	}
	return out, nil
}

// RankPropagation is a damped random-walk score (PageRank form): sink mass
// is redistributed uniformly and iteration stops once the L1 delta falls
// under tolerance. The context is checked every sweep so long runs abort
// cleanly.
func RankPropagation(ctx context.Context, g *netgraph.Graph, opts Options) (map[int]float64, error) {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[int]float64{}, nil
	}
	r := make(map[int]float64, n)
	for _, v := range nodes {
		r[v] = 1.0 / float64(n)
	}
	base := (1 - opts.Damping) / float64(n)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sink := 0.0
		for _, v := range nodes {
			if g.OutDegree(v) == 0 {
				sink += r[v]
			}
		}
		next := make(map[int]float64, n)
		diff := 0.0
		for _, v := range nodes {
			s := 0.0
			for _, u := range g.InNeighbors(v) {
				s += r[u] / float64(g.OutDegree(u))
			}
			nv := base + opts.Damping*(s+sink/float64(n))
			next[v] = nv
			diff += math.Abs(nv - r[v])
		}
		r = next
		if diff < opts.Tolerance {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: rank propagation after %d iterations", ErrNoConvergence, opts.MaxIterations)
}
