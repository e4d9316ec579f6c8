package robustness

import (
	"context"
	"errors"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

// ErrUndefinedBaseline means a sensitivity sweep was asked for on a basis
// where the constant itself is undefined; recompute the baseline on the
// largest component first.
var ErrUndefinedBaseline = errors.New("robustness: baseline kemeny constant is undefined")

// EdgeDelta is one edge's removal effect. Undefined marks removals that
// leave a reducible chain (the graph falls apart), which the presentation
// layer shows distinctly from a numeric delta.
type EdgeDelta struct {
	Edge    netgraph.Edge `json:"edge"`
	Delta   float64       `json:"delta"`
	After   float64       `json:"after"`
	Defined bool          `json:"defined"`
	Reason  string        `json:"reason,omitempty"`
}

// Sensitivity holds per-edge deltas in canonical edge order against a
// fixed baseline. It is tied to the baseline's edge set: recompute it
// whenever the graph changes (the cache layer keys it by content hash,
// so a changed graph can never serve a stale sweep).
type Sensitivity struct {
	Baseline *Result     `json:"baseline"`
	Deltas   []EdgeDelta `json:"deltas"`
}

// ComputeEdgeSensitivity recomputes the constant once per removed edge.
// Evaluations are independent, so they fan out over a bounded worker pool;
// each worker derives its own graph copy and writes only its own result
// slot, leaving the join to errgroup. Cancelling the context aborts
// between evaluations.
func (e *Engine) ComputeEdgeSensitivity(ctx context.Context, g *netgraph.Graph, baseline *Result, workers int) (*Sensitivity, error) {
	var err error
	if baseline == nil {
		baseline, err = e.ComputeKemeny(ctx, g, BasisFull)
		if err != nil {
			return nil, err
		}
	}
	if !baseline.Defined {
		return nil, ErrUndefinedBaseline
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	edges := g.Edges()
	deltas := make([]EdgeDelta, len(edges))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, edge := range edges {
		i, edge := i, edge
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reduced, err := g.WithoutEdge(edge.U, edge.V)
			if err != nil {
				return err
			}
			res, err := e.ComputeKemeny(gctx, reduced, baseline.Basis)
			if err != nil {
				return err
			}
			d := EdgeDelta{Edge: edge, Defined: res.Defined, Reason: res.Reason}
			if res.Defined {
				d.After = res.Value
				d.Delta = res.Value - baseline.Value
			}
			deltas[i] = d
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &Sensitivity{Baseline: baseline, Deltas: deltas}, nil
}

// RankedBySeverity orders edges by how badly their removal hurts mixing:
// disconnecting removals first, then by descending delta, ties by edge.
// This ranking drives the interactive remove-next workflow.
func (s *Sensitivity) RankedBySeverity() []EdgeDelta {
	out := make([]EdgeDelta, len(s.Deltas))
	copy(out, s.Deltas)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Defined != b.Defined {
			return !a.Defined
		}
		if a.Defined && a.Delta != b.Delta {
			return a.Delta > b.Delta
		}
		if a.Edge.U != b.Edge.U {
			return a.Edge.U < b.Edge.U
		}
		return a.Edge.V < b.Edge.V
	})
	return out
}
