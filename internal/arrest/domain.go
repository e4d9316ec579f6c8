// Package arrest plans two-group interventions on a network: it splits
// nodes into coordinated arrest groups, ranks them into a removal order,
// and replays that order against the graph one step at a time.
package arrest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
)

// How a partition was obtained.
const (
	StatusOptimal   = "optimal"
	StatusHeuristic = "heuristic"
)

var (
	// ErrInvalidOrder means a removal order is not a sequence of distinct
	// nodes drawn from the graph, which indicates a caller bug.
	ErrInvalidOrder = errors.New("arrest: invalid removal order")

	// ErrInvalidPartition means an assignment does not map every node to
	// group 0 or 1.
	ErrInvalidPartition = errors.New("arrest: invalid partition assignment")

	// ErrBadOptions rejects negative weights or tolerances.
	ErrBadOptions = errors.New("arrest: invalid options")
)

// PartitionResult is a two-group node assignment together with the
// objective value it achieves. Status records whether the exact solver
// certified it or the deterministic fallback produced it.
type PartitionResult struct {
	Assignment map[int]int `json:"assignment"`
	Objective  float64     `json:"objective_value"`
	Status     string      `json:"status"`
}

// Groups returns the sorted members of group 0 and group 1.
func (r *PartitionResult) Groups() (g0, g1 []int) {
	for v, grp := range r.Assignment {
		if grp == 1 {
			g1 = append(g1, v)
		} else {
			g0 = append(g0, v)
		}
	}
	sort.Ints(g0)
	sort.Ints(g1)
	return g0, g1
}

// CrossEdges returns the risky edges of g under this assignment, in the
// graph's canonical edge order.
func (r *PartitionResult) CrossEdges(g *netgraph.Graph) []netgraph.Edge {
	var out []netgraph.Edge
	for _, e := range g.Edges() {
		if (r.Assignment[e.U] == 1) != (r.Assignment[e.V] == 1) {
			out = append(out, e)
		}
	}
	return out
}

// OrderEntry is one ranked node in a removal order.
type OrderEntry struct {
	Node       int     `json:"node"`
	Centrality float64 `json:"centrality"`
	Exposure   float64 `json:"exposure"`
	Score      float64 `json:"score"`
}

// Order is a materialized removal order, highest score first.
type Order []OrderEntry

// Nodes returns the node identifiers in rank order.
func (o Order) Nodes() []int {
	ids := make([]int, len(o))
	for i, e := range o {
		ids[i] = e.Node
	}
	return ids
}

// Snapshot captures the residual network after one removal step.
// RiskyEdges is only populated when the replay was given a partition,
// and Kemeny only when the caller asked for it.
type Snapshot struct {
	Step             int                `json:"step"`
	Node             int                `json:"node"`
	EffectiveArrests float64            `json:"effective_arrests"`
	RemainingNodes   int                `json:"remaining_nodes"`
	RemainingEdges   int                `json:"remaining_edges"`
	Components       int                `json:"components"`
	RiskyEdges       int                `json:"risky_edges"`
	Kemeny           *robustness.Result `json:"kemeny,omitempty"`
}

// Trace is the ordered record of a full replay, one snapshot per removal.
// It is immutable once returned.
type Trace struct {
	Snapshots []Snapshot `json:"snapshots"`
}

func validateAssignment(g *netgraph.Graph, assignment map[int]int) error {
	for _, v := range g.Nodes() {
		grp, ok := assignment[v]
		if !ok {
			return fmt.Errorf("%w: node %d has no group", ErrInvalidPartition, v)
		}
		if grp != 0 && grp != 1 {
			return fmt.Errorf("%w: node %d assigned group %d", ErrInvalidPartition, v, grp)
		}
	}
	return nil
}
