package arrest

import (
	"context"
	"fmt"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
)

type simConfig struct {
	centrality map[int]float64
	partition  map[int]int
	kemeny     bool
	basis      robustness.Basis
}

// SimOption tunes what each snapshot records.
type SimOption func(*simConfig)

// WithCentrality makes effective arrests accumulate the given per-node
// values; without it every removal counts 1.
func WithCentrality(c map[int]float64) SimOption {
	return func(cfg *simConfig) { cfg.centrality = c }
}

// WithPartition tracks how many risky cross-group edges survive each
// step under the given assignment.
func WithPartition(assignment map[int]int) SimOption {
	return func(cfg *simConfig) { cfg.partition = assignment }
}

// WithKemeny recomputes the Kemeny constant over the chosen basis on the
// residual graph after every step.
func WithKemeny(basis robustness.Basis) SimOption {
	return func(cfg *simConfig) {
		cfg.kemeny = true
		cfg.basis = basis
	}
}

// Simulate replays a removal order against g one node at a time, never
// reordering or skipping entries, and snapshots the residual network
// after each step. The order must consist of distinct nodes present in
// g; a duplicate or unknown node aborts with ErrInvalidOrder before any
// step runs. The context is checked between steps; cancelling returns
// the snapshots taken so far together with the context error. The input
// graph is not mutated.
func Simulate(ctx context.Context, g *netgraph.Graph, order []int, opts ...SimOption) (*Trace, error) {
	cfg := simConfig{basis: robustness.BasisFull}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateOrder(g, order); err != nil {
		return nil, err
	}
	if cfg.partition != nil {
		if err := validateAssignment(g, cfg.partition); err != nil {
			return nil, err
		}
	}

	engine := robustness.NewEngine()
	residual := g.Clone()
	captured := 0.0
	trace := &Trace{Snapshots: make([]Snapshot, 0, len(order))}
	for i, v := range order {
		if err := ctx.Err(); err != nil {
			return trace, err
		}
		next, err := residual.WithoutNode(v)
		if err != nil {
			// validateOrder guarantees presence, so this is unreachable
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidOrder, i+1, err)
		}
		residual = next
		if cfg.centrality != nil {
			captured += cfg.centrality[v]
		} else {
			captured++
		}

		snap := Snapshot{
			Step:             i + 1,
			Node:             v,
			EffectiveArrests: captured,
			RemainingNodes:   residual.NodeCount(),
			RemainingEdges:   residual.EdgeCount(),
			Components:       len(residual.Components()),
		}
		if cfg.partition != nil {
			snap.RiskyEdges = countRisky(residual, cfg.partition)
		}
		if cfg.kemeny {
			res, err := engine.ComputeKemeny(ctx, residual, cfg.basis)
			if err != nil {
				return nil, err
			}
			snap.Kemeny = res
		}
		trace.Snapshots = append(trace.Snapshots, snap)
	}
	return trace, nil
}

func validateOrder(g *netgraph.Graph, order []int) error {
	seen := make(map[int]struct{}, len(order))
	for i, v := range order {
		if !g.HasNode(v) {
			return fmt.Errorf("%w: step %d names unknown node %d", ErrInvalidOrder, i+1, v)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%w: node %d appears twice", ErrInvalidOrder, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func countRisky(g *netgraph.Graph, assignment map[int]int) int {
	n := 0
	for _, e := range g.Edges() {
		if (assignment[e.U] == 1) != (assignment[e.V] == 1) {
			n++
		}
	}
	return n
}
