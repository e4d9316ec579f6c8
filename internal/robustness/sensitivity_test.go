package robustness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

func TestComputeEdgeSensitivity(t *testing.T) {
	ctx := context.Background()
	eng := NewEngine()

	t.Run("ring deltas are uniform and positive", func(t *testing.T) {
		g := cycle(t, 6)
		sens, err := eng.ComputeEdgeSensitivity(ctx, g, nil, 3)
		require.NoError(t, err)
		require.Len(t, sens.Deltas, 6)
		assert.InDelta(t, 35.0/6.0, sens.Baseline.Value, 1e-9)
		for _, d := range sens.Deltas {
			require.True(t, d.Defined, "removing one ring edge keeps the graph connected")
			assert.InDelta(t, 8.0/3.0, d.Delta, 1e-9)
			assert.InDelta(t, 8.5, d.After, 1e-9)
		}
	})

	t.Run("deltas follow canonical edge order", func(t *testing.T) {
		g := cycle(t, 6)
		sens, err := eng.ComputeEdgeSensitivity(ctx, g, nil, 2)
		require.NoError(t, err)
		edges := g.Edges()
		for i, d := range sens.Deltas {
			assert.Equal(t, edges[i], d.Edge)
		}
	})

	t.Run("disconnecting removals are undefined", func(t *testing.T) {
		g := netgraph.NewGraph(false)
		require.NoError(t, g.AddEdge(0, 1))
		require.NoError(t, g.AddEdge(1, 2))
		sens, err := eng.ComputeEdgeSensitivity(ctx, g, nil, 1)
		require.NoError(t, err)
		for _, d := range sens.Deltas {
			assert.False(t, d.Defined)
			assert.Equal(t, UndefinedReducible, d.Reason)
		}
	})

	t.Run("accepts a precomputed baseline", func(t *testing.T) {
		g := cycle(t, 6)
		base, err := eng.ComputeKemeny(ctx, g, BasisFull)
		require.NoError(t, err)
		sens, err := eng.ComputeEdgeSensitivity(ctx, g, base, 0)
		require.NoError(t, err)
		assert.Same(t, base, sens.Baseline)
	})

	t.Run("undefined baseline is rejected", func(t *testing.T) {
		g := cycle(t, 4)
		require.NoError(t, g.AddEdge(10, 11))
		_, err := eng.ComputeEdgeSensitivity(ctx, g, nil, 2)
		assert.ErrorIs(t, err, ErrUndefinedBaseline)
	})

	t.Run("cancellation aborts the sweep", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		base, err := eng.ComputeKemeny(ctx, cycle(t, 6), BasisFull)
		require.NoError(t, err)
		cancel()
		_, err = eng.ComputeEdgeSensitivity(cctx, cycle(t, 6), base, 2)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRankedBySeverity(t *testing.T) {
	// two triangles joined by a bridge: cutting the bridge disconnects,
	// so it must outrank every ordinary edge
	g := netgraph.NewGraph(false)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}, {2, 3}} {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	sens, err := NewEngine().ComputeEdgeSensitivity(context.Background(), g, nil, 4)
	require.NoError(t, err)

	ranked := sens.RankedBySeverity()
	require.NotEmpty(t, ranked)
	assert.Equal(t, netgraph.Edge{U: 2, V: 3}, ranked[0].Edge)
	assert.False(t, ranked[0].Defined)
	for _, d := range ranked[1:] {
		assert.True(t, d.Defined)
	}
	// defined tail is sorted by descending delta
	for i := 2; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Delta, ranked[i].Delta)
	}
}
