package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/config"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/centrality"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	netdomain "github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/domain"
)

type fakeGraphs struct {
	g   *netgraph.Graph
	n   *netdomain.Network
	err error
}

func (f *fakeGraphs) Graph(_ context.Context, _ string) (*netgraph.Graph, *netdomain.Network, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.g, f.n, nil
}

type fakeMemo struct {
	data map[string]json.RawMessage
}

func newFakeMemo() *fakeMemo {
	return &fakeMemo{data: make(map[string]json.RawMessage)}
}

func memoKey(hash, kind, params string) string {
	return hash + "|" + kind + "|" + params
}

func (m *fakeMemo) Get(_ context.Context, hash, kind, params string) (json.RawMessage, error) {
	if payload, ok := m.data[memoKey(hash, kind, params)]; ok {
		return payload, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *fakeMemo) Set(_ context.Context, hash, kind, params string, payload []byte) error {
	m.data[memoKey(hash, kind, params)] = payload
	return nil
}

type fakeStore struct {
	runs   map[string]*domain.AnalysisRun
	traces map[string][]arrest.Snapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:   make(map[string]*domain.AnalysisRun),
		traces: make(map[string][]arrest.Snapshot),
	}
}

func (s *fakeStore) InsertRun(_ context.Context, run *domain.AnalysisRun) error {
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *fakeStore) InsertTrace(_ context.Context, runID string, snaps []arrest.Snapshot) error {
	s.traces[runID] = snaps
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*domain.AnalysisRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

func (s *fakeStore) ListByNetwork(_ context.Context, networkID string, _ int) ([]domain.AnalysisRun, error) {
	var out []domain.AnalysisRun
	for _, run := range s.runs {
		if run.NetworkID == networkID {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (s *fakeStore) TraceByRun(_ context.Context, runID string) ([]arrest.Snapshot, error) {
	return s.traces[runID], nil
}

func (s *fakeStore) PurgeOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// ring builds an undirected n-cycle, the smallest graph where the exact
// and heuristic partition paths agree.
func ring(t *testing.T, n int) *netgraph.Graph {
	t.Helper()
	g := netgraph.NewGraph(false)
	for id := 0; id < n; id++ {
		require.NoError(t, g.AddNode(id))
	}
	for id := 0; id < n; id++ {
		require.NoError(t, g.AddEdge(id, (id+1)%n))
	}
	return g
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		Alpha:            1,
		Beta:             1,
		Gamma:            0.5,
		BalanceTolerance: -1,
		KemenyBasis:      "full",
		SolverBudget:     2 * time.Second,
		SweepWorkers:     2,
		CentralityScale:  1,
	}
}

func setupRunService(t *testing.T, g *netgraph.Graph) (*Service, *fakeMemo, *fakeStore, *netdomain.Network) {
	t.Helper()
	n := &netdomain.Network{
		ID:          "net-1",
		Name:        "ring",
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		ContentHash: g.ContentHash(),
	}
	memo := newFakeMemo()
	store := newFakeStore()
	svc, err := NewService(&fakeGraphs{g: g, n: n}, memo, store, testEngineConfig(), zap.NewNop())
	require.NoError(t, err)
	return svc, memo, store, n
}

func TestRun_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, store, _ := setupRunService(t, ring(t, 6))

	t.Run("rejects an unknown kind before touching the graph", func(t *testing.T) {
		_, err := svc.Run(ctx, "net-1", "horoscope", domain.AnalysisParams{})
		assert.ErrorIs(t, err, domain.ErrUnknownKind)
		assert.Empty(t, store.runs)
	})

	t.Run("propagates a missing network without recording", func(t *testing.T) {
		broken, err := NewService(&fakeGraphs{err: netdomain.ErrNetworkNotFound}, newFakeMemo(), store, testEngineConfig(), zap.NewNop())
		require.NoError(t, err)

		_, err = broken.Run(ctx, "gone", domain.KindKemeny, domain.AnalysisParams{})
		assert.ErrorIs(t, err, netdomain.ErrNetworkNotFound)
		assert.Empty(t, store.runs)
	})
}

func TestRun_ComputeAndMemoize(t *testing.T) {
	ctx := context.Background()

	t.Run("computes, records and memoizes a kemeny run", func(t *testing.T) {
		svc, memo, store, n := setupRunService(t, ring(t, 6))

		run, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusCompleted, run.Status)
		assert.False(t, run.Cached)
		assert.Equal(t, n.ContentHash, run.ContentHash)
		require.NotEmpty(t, run.Result)

		var res robustness.Result
		require.NoError(t, json.Unmarshal(run.Result, &res))
		assert.True(t, res.Defined)
		assert.Greater(t, res.Value, 0.0)

		require.Contains(t, store.runs, run.ID)
		assert.Len(t, memo.data, 1)
	})

	t.Run("a second identical request is served from the memo", func(t *testing.T) {
		svc, memo, store, _ := setupRunService(t, ring(t, 6))

		first, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{})
		require.NoError(t, err)

		second, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{})
		require.NoError(t, err)

		assert.True(t, second.Cached)
		assert.JSONEq(t, string(first.Result), string(second.Result))
		// both invocations land in the history
		assert.Len(t, store.runs, 2)
		assert.Len(t, memo.data, 1)
	})

	t.Run("different params compute separately", func(t *testing.T) {
		svc, memo, _, _ := setupRunService(t, ring(t, 6))

		_, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{})
		require.NoError(t, err)
		run, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{Basis: "largestComponent"})
		require.NoError(t, err)

		assert.False(t, run.Cached)
		assert.Len(t, memo.data, 2)
	})

	t.Run("an undefined kemeny still completes", func(t *testing.T) {
		// two disjoint triangles: reducible as a whole
		g := netgraph.NewGraph(false)
		for id := 0; id < 6; id++ {
			require.NoError(t, g.AddNode(id))
		}
		for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 5}, {5, 3}} {
			require.NoError(t, g.AddEdge(e[0], e[1]))
		}
		svc, _, store, _ := setupRunService(t, g)

		run, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{Basis: "full"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, run.Status)

		var res robustness.Result
		require.NoError(t, json.Unmarshal(run.Result, &res))
		assert.False(t, res.Defined)
		assert.NotEmpty(t, res.Reason)
		assert.Len(t, store.runs, 1)
	})
}

func TestRun_RecordsFailures(t *testing.T) {
	ctx := context.Background()
	svc, memo, store, _ := setupRunService(t, ring(t, 6))

	_, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{Basis: "bogus"})
	require.ErrorIs(t, err, robustness.ErrBadBasis)

	require.Len(t, store.runs, 1)
	for _, run := range store.runs {
		assert.Equal(t, domain.StatusFailed, run.Status)
		assert.Contains(t, run.Error, "basis")
		assert.Empty(t, run.Result)
	}
	// failures never enter the memo
	assert.Empty(t, memo.data)
}

func TestRun_AnalysisKinds(t *testing.T) {
	ctx := context.Background()

	t.Run("centrality", func(t *testing.T) {
		svc, _, _, _ := setupRunService(t, ring(t, 6))

		run, err := svc.Run(ctx, "net-1", domain.KindCentrality, domain.AnalysisParams{
			Measures: []string{centrality.MeasureDegree},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, run.Status)
		assert.NotEmpty(t, run.Result)
	})

	t.Run("partition groups every node", func(t *testing.T) {
		svc, _, _, _ := setupRunService(t, ring(t, 6))

		run, err := svc.Run(ctx, "net-1", domain.KindPartition, domain.AnalysisParams{})
		require.NoError(t, err)

		var payload PartitionPayload
		require.NoError(t, json.Unmarshal(run.Result, &payload))
		require.NotNil(t, payload.Partition)
		assert.Len(t, payload.Partition.Assignment, 6)
		assert.Len(t, payload.Groups, 2)
		assert.Equal(t, centrality.MeasureDegree, payload.Measure)
	})

	t.Run("order covers every node exactly once", func(t *testing.T) {
		svc, _, _, _ := setupRunService(t, ring(t, 6))

		run, err := svc.Run(ctx, "net-1", domain.KindOrder, domain.AnalysisParams{})
		require.NoError(t, err)

		var payload OrderPayload
		require.NoError(t, json.Unmarshal(run.Result, &payload))
		assert.Len(t, payload.Entries, 6)
		seen := make(map[int]bool)
		for _, e := range payload.Entries {
			seen[e.Node] = true
		}
		assert.Len(t, seen, 6)
		assert.InDelta(t, 0.5, payload.Gamma, 1e-9)
	})

	t.Run("simulation records a trace row per removal", func(t *testing.T) {
		svc, _, store, _ := setupRunService(t, ring(t, 6))

		run, err := svc.Run(ctx, "net-1", domain.KindSimulation, domain.AnalysisParams{})
		require.NoError(t, err)

		var payload SimulationPayload
		require.NoError(t, json.Unmarshal(run.Result, &payload))
		require.NotNil(t, payload.Trace)
		assert.Len(t, payload.Order, 6)
		assert.Len(t, payload.Trace.Snapshots, 6)

		snaps := store.traces[run.ID]
		require.Len(t, snaps, 6)
		assert.Equal(t, 1, snaps[0].Step)
		assert.Equal(t, 0, snaps[5].RemainingNodes)
	})

	t.Run("simulation honors an explicit partial order", func(t *testing.T) {
		svc, _, _, _ := setupRunService(t, ring(t, 6))

		run, err := svc.Run(ctx, "net-1", domain.KindSimulation, domain.AnalysisParams{Order: []int{2, 5}})
		require.NoError(t, err)

		var payload SimulationPayload
		require.NoError(t, json.Unmarshal(run.Result, &payload))
		assert.Equal(t, []int{2, 5}, payload.Order)
		require.Len(t, payload.Trace.Snapshots, 2)
		assert.Equal(t, 4, payload.Trace.Snapshots[1].RemainingNodes)
	})

	t.Run("simulation rejects a duplicate order", func(t *testing.T) {
		svc, _, store, _ := setupRunService(t, ring(t, 6))

		_, err := svc.Run(ctx, "net-1", domain.KindSimulation, domain.AnalysisParams{Order: []int{1, 1}})
		require.ErrorIs(t, err, arrest.ErrInvalidOrder)

		require.Len(t, store.runs, 1)
		for _, run := range store.runs {
			assert.Equal(t, domain.StatusFailed, run.Status)
		}
	})
}

func TestTrace_FallsBackToPayload(t *testing.T) {
	ctx := context.Background()
	svc, _, store, _ := setupRunService(t, ring(t, 6))

	run, err := svc.Run(ctx, "net-1", domain.KindSimulation, domain.AnalysisParams{})
	require.NoError(t, err)

	t.Run("prefers stored trace rows", func(t *testing.T) {
		snaps, err := svc.Trace(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, snaps, 6)
	})

	t.Run("decodes the payload when rows are gone", func(t *testing.T) {
		delete(store.traces, run.ID)

		snaps, err := svc.Trace(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, snaps, 6)
	})

	t.Run("non-simulation runs have no trace", func(t *testing.T) {
		kem, err := svc.Run(ctx, "net-1", domain.KindKemeny, domain.AnalysisParams{})
		require.NoError(t, err)

		snaps, err := svc.Trace(ctx, kem.ID)
		require.NoError(t, err)
		assert.Nil(t, snaps)
	})

	t.Run("unknown run maps to the sentinel", func(t *testing.T) {
		_, err := svc.Trace(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})
}
