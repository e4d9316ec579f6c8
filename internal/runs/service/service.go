// Package service orchestrates analyses over stored networks. Each request
// resolves the graph, consults the memo for an artifact computed earlier on
// the same edge set and parameters, computes on a miss, and records the
// invocation in the run history either way.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/config"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/centrality"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/community"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/metrics"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	netdomain "github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/domain"
)

// GraphSource is the slice of the networks service the orchestrator needs.
type GraphSource interface {
	Graph(ctx context.Context, id string) (*netgraph.Graph, *netdomain.Network, error)
}

// ResultCache memoizes artifact payloads by content hash, kind and params.
type ResultCache interface {
	Get(ctx context.Context, contentHash, kind, paramsHash string) (json.RawMessage, error)
	Set(ctx context.Context, contentHash, kind, paramsHash string, payload []byte) error
}

// RunStore persists the run history and simulation traces.
type RunStore interface {
	InsertRun(ctx context.Context, run *domain.AnalysisRun) error
	InsertTrace(ctx context.Context, runID string, snaps []arrest.Snapshot) error
	Get(ctx context.Context, id string) (*domain.AnalysisRun, error)
	ListByNetwork(ctx context.Context, networkID string, limit int) ([]domain.AnalysisRun, error)
	TraceByRun(ctx context.Context, runID string) ([]arrest.Snapshot, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PartitionPayload is the stored result shape for partition runs.
type PartitionPayload struct {
	Partition  *arrest.PartitionResult `json:"partition"`
	Groups     [][]int                 `json:"groups"`
	CrossEdges int                     `json:"cross_edges"`
	Measure    string                  `json:"measure"`
}

// OrderPayload is the stored result shape for order runs.
type OrderPayload struct {
	Partition *arrest.PartitionResult `json:"partition"`
	Entries   arrest.Order            `json:"entries"`
	Gamma     float64                 `json:"gamma"`
	Measure   string                  `json:"measure"`
}

// SimulationPayload is the stored result shape for simulation runs.
type SimulationPayload struct {
	Order []int         `json:"order"`
	Trace *arrest.Trace `json:"trace"`
}

type Service struct {
	graphs  GraphSource
	cache   ResultCache
	store   RunStore
	cfg     config.EngineConfig
	central *centrality.Service
	engine  *robustness.Engine
	logger  *zap.Logger
}

func NewService(graphs GraphSource, cache ResultCache, store RunStore, cfg config.EngineConfig, logger *zap.Logger) (*Service, error) {
	copts := centrality.DefaultOptions()
	copts.Scale = cfg.CentralityScale
	central, err := centrality.NewService(copts)
	if err != nil {
		return nil, err
	}
	return &Service{
		graphs:  graphs,
		cache:   cache,
		store:   store,
		cfg:     cfg,
		central: central,
		engine:  robustness.NewEngine(),
		logger:  logger,
	}, nil
}

// Run executes one analysis. Cached artifacts short-circuit the computation;
// either way the invocation lands in the run history. Engine failures are
// recorded as failed runs and returned to the caller.
func (s *Service) Run(ctx context.Context, networkID, kind string, params domain.AnalysisParams) (*domain.AnalysisRun, error) {
	if !domain.ValidKind(kind) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}

	g, n, err := s.graphs.Graph(ctx, networkID)
	if err != nil {
		return nil, err
	}

	paramsHash := params.Hash()
	run := &domain.AnalysisRun{
		ID:          uuid.New().String(),
		NetworkID:   networkID,
		ContentHash: n.ContentHash,
		Kind:        kind,
		Params:      params,
		Status:      domain.StatusCompleted,
	}

	if payload, cerr := s.cache.Get(ctx, n.ContentHash, kind, paramsHash); cerr == nil {
		metrics.CountMemoLookup(true)
		run.Cached = true
		run.Result = payload
		s.record(ctx, run, nil)
		s.logger.Info("analysis served from memo",
			zap.String("network_id", networkID),
			zap.String("kind", kind))
		return run, nil
	} else if !errors.Is(cerr, domain.ErrCacheMiss) {
		s.logger.Warn("memo lookup failed", zap.String("kind", kind), zap.Error(cerr))
	}
	metrics.CountMemoLookup(false)

	started := time.Now()
	artifact, snaps, err := s.compute(ctx, g, kind, params)
	run.DurationMs = time.Since(started).Milliseconds()
	if err != nil {
		run.Status = domain.StatusFailed
		run.Error = err.Error()
		s.record(ctx, run, nil)
		return nil, err
	}

	payload, err := json.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s result: %w", kind, err)
	}
	run.Result = payload

	if err := s.cache.Set(ctx, n.ContentHash, kind, paramsHash, payload); err != nil {
		s.logger.Warn("memo store failed", zap.String("kind", kind), zap.Error(err))
	}
	s.record(ctx, run, snaps)

	s.logger.Info("analysis completed",
		zap.String("network_id", networkID),
		zap.String("kind", kind),
		zap.Int64("duration_ms", run.DurationMs))
	return run, nil
}

func (s *Service) GetRun(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListRuns(ctx context.Context, networkID string, limit int) ([]domain.AnalysisRun, error) {
	return s.store.ListByNetwork(ctx, networkID, limit)
}

// Trace returns a simulation run's snapshots. Runs served from the memo
// have no trace rows of their own, so the stored payload backs them.
func (s *Service) Trace(ctx context.Context, runID string) ([]arrest.Snapshot, error) {
	snaps, err := s.store.TraceByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(snaps) > 0 {
		return snaps, nil
	}

	run, err := s.store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Kind != domain.KindSimulation || len(run.Result) == 0 {
		return nil, nil
	}
	var payload SimulationPayload
	if err := json.Unmarshal(run.Result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode simulation payload: %w", err)
	}
	if payload.Trace == nil {
		return nil, nil
	}
	return payload.Trace.Snapshots, nil
}

// record persists the run row and, for simulations, its trace. History
// failures are logged and swallowed: the computed result still stands.
func (s *Service) record(ctx context.Context, run *domain.AnalysisRun, snaps []arrest.Snapshot) {
	metrics.CountRun(run.Kind, run.Status)
	if err := s.store.InsertRun(ctx, run); err != nil {
		s.logger.Warn("run insert failed", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	if len(snaps) > 0 {
		if err := s.store.InsertTrace(ctx, run.ID, snaps); err != nil {
			s.logger.Warn("trace insert failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

func (s *Service) compute(ctx context.Context, g *netgraph.Graph, kind string, p domain.AnalysisParams) (any, []arrest.Snapshot, error) {
	switch kind {
	case domain.KindCentrality:
		table, err := s.central.Compute(ctx, g, p.Measures)
		return table, nil, err

	case domain.KindCommunities:
		res, err := community.Detect(ctx, g, community.DefaultOptions())
		return res, nil, err

	case domain.KindKemeny:
		basis, err := s.basis(p)
		if err != nil {
			return nil, nil, err
		}
		res, err := s.engine.ComputeKemeny(ctx, g, basis)
		return res, nil, err

	case domain.KindSensitivity:
		basis, err := s.basis(p)
		if err != nil {
			return nil, nil, err
		}
		baseline, err := s.engine.ComputeKemeny(ctx, g, basis)
		if err != nil {
			return nil, nil, err
		}
		workers := p.Workers
		if workers <= 0 {
			workers = s.cfg.SweepWorkers
		}
		res, err := s.engine.ComputeEdgeSensitivity(ctx, g, baseline, workers)
		return res, nil, err

	case domain.KindPartition:
		part, _, measure, err := s.solvePartition(ctx, g, p)
		if err != nil {
			return nil, nil, err
		}
		g0, g1 := part.Groups()
		return &PartitionPayload{
			Partition:  part,
			Groups:     [][]int{g0, g1},
			CrossEdges: len(part.CrossEdges(g)),
			Measure:    measure,
		}, nil, nil

	case domain.KindOrder:
		payload, _, err := s.rankOrder(ctx, g, p)
		return payload, nil, err

	case domain.KindSimulation:
		return s.simulate(ctx, g, p)
	}
	return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
}

// signal resolves the centrality measure driving partitioning and ordering.
func (s *Service) signal(ctx context.Context, g *netgraph.Graph, p domain.AnalysisParams) (map[int]float64, string, error) {
	measure := p.Measure
	if measure == "" {
		measure = centrality.MeasureDegree
	}
	sig, err := s.central.Signal(ctx, g, measure)
	if err != nil {
		return nil, "", err
	}
	return sig, measure, nil
}

func (s *Service) solvePartition(ctx context.Context, g *netgraph.Graph, p domain.AnalysisParams) (*arrest.PartitionResult, map[int]float64, string, error) {
	sig, measure, err := s.signal(ctx, g, p)
	if err != nil {
		return nil, nil, "", err
	}
	comm, err := community.Detect(ctx, g, community.DefaultOptions())
	if err != nil {
		return nil, nil, "", err
	}
	partitioner, err := arrest.NewPartitioner(s.partitionOptions(p))
	if err != nil {
		return nil, nil, "", err
	}
	part, err := partitioner.Optimize(ctx, g, sig, comm.Labels)
	if err != nil {
		return nil, nil, "", err
	}
	return part, sig, measure, nil
}

func (s *Service) rankOrder(ctx context.Context, g *netgraph.Graph, p domain.AnalysisParams) (*OrderPayload, map[int]float64, error) {
	part, sig, measure, err := s.solvePartition(ctx, g, p)
	if err != nil {
		return nil, nil, err
	}
	gamma := s.cfg.Gamma
	if p.Gamma != nil {
		gamma = *p.Gamma
	}
	entries, err := arrest.RankOrder(g, part, sig, gamma)
	if err != nil {
		return nil, nil, err
	}
	return &OrderPayload{Partition: part, Entries: entries, Gamma: gamma, Measure: measure}, sig, nil
}

func (s *Service) simulate(ctx context.Context, g *netgraph.Graph, p domain.AnalysisParams) (*SimulationPayload, []arrest.Snapshot, error) {
	ranked, sig, err := s.rankOrder(ctx, g, p)
	if err != nil {
		return nil, nil, err
	}
	order := p.Order
	if len(order) == 0 {
		order = ranked.Entries.Nodes()
	}

	basis, err := s.basis(p)
	if err != nil {
		return nil, nil, err
	}

	trace, err := arrest.Simulate(ctx, g, order,
		arrest.WithCentrality(sig),
		arrest.WithPartition(ranked.Partition.Assignment),
		arrest.WithKemeny(basis),
	)
	if err != nil {
		return nil, nil, err
	}
	return &SimulationPayload{Order: order, Trace: trace}, trace.Snapshots, nil
}

func (s *Service) basis(p domain.AnalysisParams) (robustness.Basis, error) {
	raw := p.Basis
	if raw == "" {
		raw = s.cfg.KemenyBasis
	}
	return robustness.ParseBasis(raw)
}

// partitionOptions folds request overrides over the configured defaults.
func (s *Service) partitionOptions(p domain.AnalysisParams) arrest.PartitionOptions {
	opts := arrest.PartitionOptions{
		Alpha:      s.cfg.Alpha,
		Beta:       s.cfg.Beta,
		Balance:    s.cfg.Balance(),
		TimeBudget: s.cfg.SolverBudget,
	}
	if p.Alpha != nil {
		opts.Alpha = *p.Alpha
	}
	if p.Beta != nil {
		opts.Beta = *p.Beta
	}
	if p.Balance != nil {
		opts.Balance = p.Balance
	}
	if p.BudgetMs != nil {
		opts.TimeBudget = time.Duration(*p.BudgetMs) * time.Millisecond
	}
	return opts
}
