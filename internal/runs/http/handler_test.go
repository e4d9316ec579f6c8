package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/config"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	netdomain "github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/repository"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/service"
)

// fakeGraphs serves one fixed network; every other id is a miss.
type fakeGraphs struct {
	id string
	g  *netgraph.Graph
	n  *netdomain.Network
}

func (f *fakeGraphs) Graph(_ context.Context, id string) (*netgraph.Graph, *netdomain.Network, error) {
	if id != f.id {
		return nil, nil, netdomain.ErrNetworkNotFound
	}
	return f.g, f.n, nil
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

func twoTriangles(t *testing.T) *netgraph.Graph {
	t.Helper()
	g := netgraph.NewGraph(false)
	for id := 0; id < 6; id++ {
		require.NoError(t, g.AddNode(id))
	}
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 5}, {5, 3}} {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func setupRouter(t *testing.T, g *netgraph.Graph) (*gin.Engine, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	n := &netdomain.Network{
		ID:          "net-1",
		Name:        "ring",
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		ContentHash: g.ContentHash(),
	}
	store := newFakeStore()
	cfg := config.EngineConfig{
		Alpha:            1,
		Beta:             1,
		Gamma:            0.5,
		BalanceTolerance: -1,
		KemenyBasis:      "full",
		SolverBudget:     2 * time.Second,
		CentralityScale:  1,
	}
	svc, err := service.NewService(&fakeGraphs{id: "net-1", g: g, n: n}, repository.NewCache(client, time.Hour), store, cfg, zap.NewNop())
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api/v1")
	Register(api.Group("/networks"), api.Group("/runs"), svc)
	return r, store
}

func post(r *gin.Engine, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, target, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type runResponse struct {
	OK    bool                `json:"ok"`
	Run   *domain.AnalysisRun `json:"run"`
	Error string              `json:"error"`
}

func decodeRun(t *testing.T, w *httptest.ResponseRecorder) runResponse {
	t.Helper()
	var res runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestAnalyzeRoutes(t *testing.T) {
	t.Run("kemeny completes over the full basis", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/kemeny", "")
		require.Equal(t, http.StatusOK, w.Code)

		res := decodeRun(t, w)
		require.NotNil(t, res.Run)
		assert.Equal(t, domain.StatusCompleted, res.Run.Status)

		var kem robustness.Result
		require.NoError(t, json.Unmarshal(res.Run.Result, &kem))
		assert.True(t, kem.Defined)
		assert.Equal(t, robustness.BasisFull, kem.Basis)
	})

	t.Run("body parameters reach the engine", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/kemeny", `{"basis":"largestComponent"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var kem robustness.Result
		require.NoError(t, json.Unmarshal(decodeRun(t, w).Run.Result, &kem))
		assert.Equal(t, robustness.BasisLargestComponent, kem.Basis)
	})

	t.Run("partition assigns every node to a group", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/partition", "")
		require.Equal(t, http.StatusOK, w.Code)

		var payload service.PartitionPayload
		require.NoError(t, json.Unmarshal(decodeRun(t, w).Run.Result, &payload))
		require.NotNil(t, payload.Partition)
		assert.Len(t, payload.Partition.Assignment, 6)
		assert.Len(t, payload.Groups, 2)
	})

	t.Run("sensitivity sweeps every edge", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/kemeny/sensitivity", "")
		require.Equal(t, http.StatusOK, w.Code)

		var sens robustness.Sensitivity
		require.NoError(t, json.Unmarshal(decodeRun(t, w).Run.Result, &sens))
		assert.Len(t, sens.Deltas, 6)
	})

	t.Run("unknown network is a 404", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/nope/kemeny", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unparseable body is a 400", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/kemeny", "{basis")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid body", decodeRun(t, w).Error)
	})

	t.Run("bad basis is a 400", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/kemeny", `{"basis":"bogus"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate simulation order is a 400", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/simulation", `{"order":[3,3]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("sweeping an undefined baseline is a 422", func(t *testing.T) {
		r, _ := setupRouter(t, twoTriangles(t))

		w := post(r, "/api/v1/networks/net-1/kemeny/sensitivity", "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decodeRun(t, w).Error, "undefined")
	})
}

func TestRunCSV(t *testing.T) {
	t.Run("kemeny renders as a one-row table", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/kemeny?format=csv", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=kemeny.csv", w.Header().Get("Content-Disposition"))

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "basis,defined,reason,value,nodes,edges", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "full,true,"))
	})

	t.Run("partition renders node and group rows", func(t *testing.T) {
		r, _ := setupRouter(t, ring(t, 6))

		w := post(r, "/api/v1/networks/net-1/partition?format=csv", "")
		require.Equal(t, http.StatusOK, w.Code)

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 7)
		assert.Equal(t, "node,group", lines[0])
	})
}

func TestRunHistoryRoutes(t *testing.T) {
	r, store := setupRouter(t, ring(t, 6))

	created := decodeRun(t, post(r, "/api/v1/networks/net-1/kemeny", ""))
	require.NotNil(t, created.Run)

	t.Run("lists runs for a network", func(t *testing.T) {
		w := get(r, "/api/v1/networks/net-1/runs")
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			OK   bool                 `json:"ok"`
			Runs []domain.AnalysisRun `json:"runs"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Runs, 1)
		assert.Equal(t, created.Run.ID, res.Runs[0].ID)
	})

	t.Run("gets a recorded run", func(t *testing.T) {
		w := get(r, "/api/v1/runs/"+created.Run.ID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, created.Run.ID, decodeRun(t, w).Run.ID)
	})

	t.Run("missing run is a 404", func(t *testing.T) {
		w := get(r, "/api/v1/runs/missing")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("simulation trace returns one row per step", func(t *testing.T) {
		sim := decodeRun(t, post(r, "/api/v1/networks/net-1/simulation", ""))
		require.NotNil(t, sim.Run)
		require.Contains(t, store.traces, sim.Run.ID)

		w := get(r, "/api/v1/runs/"+sim.Run.ID+"/trace")
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			OK    bool              `json:"ok"`
			Trace []arrest.Snapshot `json:"trace"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Len(t, res.Trace, 6)
	})

	t.Run("non-simulation runs trace empty", func(t *testing.T) {
		w := get(r, "/api/v1/runs/"+created.Run.ID+"/trace")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"trace":[]}`, w.Body.String())
	})

	t.Run("trace of a missing run is a 404", func(t *testing.T) {
		w := get(r, "/api/v1/runs/missing/trace")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
