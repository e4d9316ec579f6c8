// Package solver hosts the exact combinatorial machinery behind partition
// optimization. The partitioner talks to it only through the Strategy
// contract, so any solver honoring solve(problem, budget) -> (assignment,
// status) can be swapped in.
package solver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeLimit reports an exhausted time budget. The caller treats it
	// exactly like any other no-certified-optimum outcome.
	ErrTimeLimit = errors.New("solver: time budget exhausted")
	// ErrInfeasible reports that no assignment satisfies the constraints,
	// e.g. an exact balance on an odd node count.
	ErrInfeasible = errors.New("solver: constraints admit no assignment")
)

// Problem is a two-group binary program over nodes: maximize
// alpha * (same-group centrality pair mass) - beta * (cross-group edges),
// optionally requiring the group sizes to differ by at most *BalanceTol.
// Nodes fixes the branch order; the partitioner passes them most
// influential first.
type Problem struct {
	Nodes      []int
	Centrality map[int]float64
	Edges      [][2]int
	Alpha      float64
	Beta       float64
	BalanceTol *int
}

// Solution maps every node to group 0 or 1.
type Solution struct {
	Assignment map[int]int
	Objective  float64
}

type Strategy interface {
	Name() string
	Solve(ctx context.Context, p Problem, budget time.Duration) (*Solution, error)
}
