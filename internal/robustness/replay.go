package robustness

import (
	"context"
	"errors"
	"fmt"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

// ErrInvalidEdgeOrder means a replay asked to remove an edge that is not
// present in the residual graph, which indicates a caller bug.
var ErrInvalidEdgeOrder = errors.New("robustness: invalid edge removal order")

// EdgeStep records the residual connectivity after one edge removal.
type EdgeStep struct {
	Step           int           `json:"step"`
	Edge           netgraph.Edge `json:"edge"`
	RemainingEdges int           `json:"remaining_edges"`
	Kemeny         *Result       `json:"kemeny"`
}

// ReplayEdgeRemovals removes the given edges one at a time and recomputes
// the Kemeny constant on the residual graph after each step. This backs
// the interactive workflow where a caller walks down the sensitivity
// ranking removing one edge at a time. Every edge must still be present
// when its turn comes; a repeated or unknown edge aborts the replay. The
// context is checked between steps.
func (e *Engine) ReplayEdgeRemovals(ctx context.Context, g *netgraph.Graph, edges []netgraph.Edge, basis Basis) ([]EdgeStep, error) {
	residual := g.Clone()
	steps := make([]EdgeStep, 0, len(edges))
	for i, ed := range edges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := residual.WithoutEdge(ed.U, ed.V)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d removes absent edge (%d,%d)", ErrInvalidEdgeOrder, i+1, ed.U, ed.V)
		}
		residual = next
		res, err := e.ComputeKemeny(ctx, residual, basis)
		if err != nil {
			return nil, err
		}
		steps = append(steps, EdgeStep{
			Step:           i + 1,
			Edge:           ed,
			RemainingEdges: residual.EdgeCount(),
			Kemeny:         res,
		})
	}
	return steps, nil
}
