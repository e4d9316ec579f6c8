package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Strategy = (*BranchBound)(nil)

func uniformProblem(nodes []int, edges [][2]int, alpha, beta float64, tol *int) Problem {
	c := make(map[int]float64, len(nodes))
	for _, v := range nodes {
		c[v] = 1
	}
	return Problem{Nodes: nodes, Centrality: c, Edges: edges, Alpha: alpha, Beta: beta, BalanceTol: tol}
}

func ringEdges(n int) [][2]int {
	edges := make([][2]int, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, [2]int{i, (i + 1) % n})
	}
	return edges
}

func intp(v int) *int { return &v }

func TestBranchBoundRing(t *testing.T) {
	p := uniformProblem([]int{0, 1, 2, 3, 4, 5}, ringEdges(6), 1, 1, intp(1))
	sol, err := NewBranchBound().Solve(context.Background(), p, time.Second)
	require.NoError(t, err)

	assert.InDelta(t, 4.0, sol.Objective, 1e-9)
	assert.Equal(t, map[int]int{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 1}, sol.Assignment)
}

func TestBranchBoundWeightExtremes(t *testing.T) {
	t.Run("beta zero concentrates everything", func(t *testing.T) {
		p := uniformProblem([]int{0, 1, 2, 3}, ringEdges(4), 1, 0, nil)
		sol, err := NewBranchBound().Solve(context.Background(), p, time.Second)
		require.NoError(t, err)
		assert.InDelta(t, 6.0, sol.Objective, 1e-9) // all six pairs together
		for v, grp := range sol.Assignment {
			assert.Zero(t, grp, "node %d", v)
		}
	})

	t.Run("alpha zero minimizes the balanced cut", func(t *testing.T) {
		p := uniformProblem([]int{0, 1, 2, 3, 4, 5}, ringEdges(6), 0, 1, intp(1))
		sol, err := NewBranchBound().Solve(context.Background(), p, time.Second)
		require.NoError(t, err)
		assert.InDelta(t, -2.0, sol.Objective, 1e-9)
		assert.Equal(t, map[int]int{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 1}, sol.Assignment)
	})
}

func TestBranchBoundConcentration(t *testing.T) {
	// the two heavy nodes should share a group when balance forces a split
	p := Problem{
		Nodes:      []int{0, 1, 2, 3},
		Centrality: map[int]float64{0: 10, 1: 8, 2: 1, 3: 1},
		Edges:      [][2]int{{0, 1}},
		Alpha:      1,
		Beta:       1,
		BalanceTol: intp(0),
	}
	sol, err := NewBranchBound().Solve(context.Background(), p, time.Second)
	require.NoError(t, err)
	assert.InDelta(t, 81.0, sol.Objective, 1e-9)
	assert.Equal(t, map[int]int{0: 0, 1: 0, 2: 1, 3: 1}, sol.Assignment)
}

func TestBranchBoundFailures(t *testing.T) {
	t.Run("zero budget fails immediately", func(t *testing.T) {
		p := uniformProblem([]int{0, 1}, nil, 1, 1, nil)
		_, err := NewBranchBound().Solve(context.Background(), p, 0)
		assert.ErrorIs(t, err, ErrTimeLimit)
	})

	t.Run("odd count with exact balance is infeasible", func(t *testing.T) {
		p := uniformProblem([]int{0, 1, 2}, nil, 1, 1, intp(0))
		_, err := NewBranchBound().Solve(context.Background(), p, time.Second)
		assert.ErrorIs(t, err, ErrInfeasible)
	})

	t.Run("negative tolerance is infeasible", func(t *testing.T) {
		p := uniformProblem([]int{0, 1}, nil, 1, 1, intp(-1))
		_, err := NewBranchBound().Solve(context.Background(), p, time.Second)
		assert.ErrorIs(t, err, ErrInfeasible)
	})
}

// completeProblem is big enough that the search cannot finish within a few
// thousand steps, which exercises the in-flight budget and context checks.
func completeProblem() Problem {
	nodes := make([]int, 18)
	var edges [][2]int
	for i := range nodes {
		nodes[i] = i
		for j := 0; j < i; j++ {
			edges = append(edges, [2]int{j, i})
		}
	}
	return uniformProblem(nodes, edges, 0, 1, intp(0))
}

func TestBranchBoundDeadline(t *testing.T) {
	_, err := NewBranchBound().Solve(context.Background(), completeProblem(), time.Nanosecond)
	assert.ErrorIs(t, err, ErrTimeLimit)
}

func TestBranchBoundCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBranchBound().Solve(ctx, completeProblem(), time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBranchBoundEmptyProblem(t *testing.T) {
	sol, err := NewBranchBound().Solve(context.Background(), Problem{}, time.Second)
	require.NoError(t, err)
	assert.Empty(t, sol.Assignment)
	assert.Zero(t, sol.Objective)
}

func TestBranchBoundDeterminism(t *testing.T) {
	p := uniformProblem([]int{0, 1, 2, 3, 4, 5}, ringEdges(6), 1, 1, intp(1))
	a, err := NewBranchBound().Solve(context.Background(), p, time.Second)
	require.NoError(t, err)
	b, err := NewBranchBound().Solve(context.Background(), p, time.Second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
