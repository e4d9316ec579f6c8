// Package robustness quantifies global connectivity through the Kemeny
// constant of the graph's random walk: the expected travel time to a
// stationarity-weighted destination, independent of the start node. Lower
// means a better-mixing, harder-to-fragment network, and the per-edge
// removal deltas show where the structure is brittle.
package robustness

import (
	"context"
	"errors"
	"fmt"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/linalg"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

type Basis string

const (
	BasisFull             Basis = "full"
	BasisLargestComponent Basis = "largestComponent"
)

var ErrBadBasis = errors.New("robustness: unknown basis")

func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case BasisFull, BasisLargestComponent:
		return Basis(s), nil
	case "":
		return BasisFull, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadBasis, s)
}

// Reasons an undefined result carries. A reducible chain has no single
// stationary distribution, so the constant does not exist over that basis;
// the caller's recovery is to re-ask with BasisLargestComponent.
const (
	UndefinedEmptyGraph = "empty graph"
	UndefinedReducible  = "reducible chain"
)

// Result reports the Kemeny constant over the requested basis. Undefined
// is a legitimate outcome, not an error: Defined is false and Reason says
// why, never a stale or NaN value.
type Result struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
	Reason  string  `json:"reason,omitempty"`
	Basis   Basis   `json:"basis"`
	Nodes   int     `json:"nodes"`
	Edges   int     `json:"edges"`
}

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// ComputeKemeny builds the row-stochastic transition matrix over the
// chosen basis, solves for the stationary distribution, and evaluates the
// constant through the deviation matrix: K = trace((I - P + 1π)^-1) - 1.
func (e *Engine) ComputeKemeny(ctx context.Context, g *netgraph.Graph, basis Basis) (*Result, error) {
	if g.NodeCount() == 0 {
		return &Result{Defined: false, Reason: UndefinedEmptyGraph, Basis: basis}, nil
	}
	sub := g
	if basis == BasisLargestComponent {
		sub = g.InducedSubgraph(g.LargestComponent())
	}
	res := &Result{Basis: basis, Nodes: sub.NodeCount(), Edges: sub.EdgeCount()}
	if sub.NodeCount() == 1 {
		// a single-state walk is already stationary
		res.Defined = true
		return res, nil
	}
	// irreducible <=> the walk can reach every node from every node;
	// nodes without outgoing edges become absorbing and break this too
	if !sub.IsStronglyConnected() {
		res.Reason = UndefinedReducible
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nodes := sub.Nodes()
	n := len(nodes)
	p := transitionMatrix(sub, nodes)

	pi, err := stationary(p, n)
	if err != nil {
		return nil, fmt.Errorf("robustness: stationary solve: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// deviation matrix M = I - P + 1π, trace of its inverse
	m := linalg.NewDense(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -p.At(i, j) + pi[j]
			if i == j {
				v++
			}
			m.Set(i, j, v)
		}
	}
	z, err := m.Inverse()
	if err != nil {
		return nil, fmt.Errorf("robustness: deviation inverse: %w", err)
	}
	tr, err := z.Trace()
	if err != nil {
		return nil, err
	}
	res.Value = tr - 1
	res.Defined = true
	return res, nil
}

// transitionMatrix lays the walk out over nodes in sorted order, entry
// 1/out-degree per outgoing edge.
func transitionMatrix(g *netgraph.Graph, nodes []int) *linalg.Dense {
	idx := make(map[int]int, len(nodes))
	for i, v := range nodes {
		idx[v] = i
	}
	p := linalg.NewDense(len(nodes), len(nodes))
	for i, v := range nodes {
		nbrs := g.OutNeighbors(v)
		if len(nbrs) == 0 {
			continue
		}
		w := 1.0 / float64(len(nbrs))
		for _, u := range nbrs {
			p.Set(i, idx[u], w)
		}
	}
	return p
}

// stationary solves the balance equations π(I - P) = 0 with Σπ = 1 by
// replacing the last row of the transposed system with the normalization.
func stationary(p *linalg.Dense, n int) ([]float64, error) {
	a := linalg.NewDense(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			// transpose of I - P
			v := -p.At(j, i)
			if i == j {
				v++
			}
			a.Set(i, j, v)
		}
	}
	b := make([]float64, n)
	for j := 0; j < n; j++ {
		a.Set(n-1, j, 1)
	}
	b[n-1] = 1
	return a.Solve(b)
}
