package robustness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

func TestReplayEdgeRemovals(t *testing.T) {
	ctx := context.Background()
	eng := NewEngine()
	g := cycle(t, 6)

	order := []netgraph.Edge{{U: 0, V: 1}, {U: 3, V: 4}}
	steps, err := eng.ReplayEdgeRemovals(ctx, g, order, BasisFull)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	// ring minus one edge is a 6-node path
	assert.Equal(t, 1, steps[0].Step)
	assert.Equal(t, 5, steps[0].RemainingEdges)
	require.True(t, steps[0].Kemeny.Defined)
	assert.InDelta(t, 8.5, steps[0].Kemeny.Value, 1e-9)

	// the second cut splits the path, so the full basis is undefined
	assert.Equal(t, 4, steps[1].RemainingEdges)
	assert.False(t, steps[1].Kemeny.Defined)
	assert.Equal(t, UndefinedReducible, steps[1].Kemeny.Reason)

	// the source graph is untouched
	assert.Equal(t, 6, g.EdgeCount())
}

func TestReplayEdgeRemovalsLargestComponent(t *testing.T) {
	steps, err := NewEngine().ReplayEdgeRemovals(context.Background(), cycle(t, 6),
		[]netgraph.Edge{{U: 0, V: 1}, {U: 3, V: 4}}, BasisLargestComponent)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	// components {0,4,5} and {1,2,3} tie on size; the one holding node 0
	// wins, and a 3-node path has Kemeny constant 3/2
	require.True(t, steps[1].Kemeny.Defined)
	assert.InDelta(t, 1.5, steps[1].Kemeny.Value, 1e-9)
	assert.Equal(t, 3, steps[1].Kemeny.Nodes)
}

func TestReplayEdgeRemovalsSwappedEndpoints(t *testing.T) {
	// undirected removal accepts either endpoint order
	steps, err := NewEngine().ReplayEdgeRemovals(context.Background(), cycle(t, 6),
		[]netgraph.Edge{{U: 1, V: 0}}, BasisFull)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.InDelta(t, 8.5, steps[0].Kemeny.Value, 1e-9)
}

func TestReplayEdgeRemovalsContract(t *testing.T) {
	eng := NewEngine()

	t.Run("repeated edge", func(t *testing.T) {
		_, err := eng.ReplayEdgeRemovals(context.Background(), cycle(t, 6),
			[]netgraph.Edge{{U: 0, V: 1}, {U: 0, V: 1}}, BasisFull)
		assert.ErrorIs(t, err, ErrInvalidEdgeOrder)
	})

	t.Run("unknown edge", func(t *testing.T) {
		_, err := eng.ReplayEdgeRemovals(context.Background(), cycle(t, 6),
			[]netgraph.Edge{{U: 0, V: 3}}, BasisFull)
		assert.ErrorIs(t, err, ErrInvalidEdgeOrder)
	})

	t.Run("cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := eng.ReplayEdgeRemovals(ctx, cycle(t, 6),
			[]netgraph.Edge{{U: 0, V: 1}}, BasisFull)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
