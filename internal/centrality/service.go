package centrality

import (
	"context"
	"fmt"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

const (
	NormalizeMax = "max"
	NormalizeSum = "sum"
	NormalizeRaw = "raw"
)

// Options covers every tunable across the measures. Zero values are not
// meaningful, use DefaultOptions as the base.
type Options struct {
	Scale         float64 // top of the normalized range
	Normalize     string  // max | sum | raw
	MaxIterations int
	Tolerance     float64
	Damping       float64 // rank propagation damping factor
	KatzAlpha     float64 // katz attenuation
}

func DefaultOptions() Options {
	return Options{
		Scale:         1.0,
		Normalize:     NormalizeMax,
		MaxIterations: 100,
		Tolerance:     1e-6,
		Damping:       0.85,
		KatzAlpha:     0.1,
	}
}

func (o Options) Validate() error {
	if o.Scale <= 0 {
		return fmt.Errorf("centrality: scale must be positive, got %v", o.Scale)
	}
	switch o.Normalize {
	case NormalizeMax, NormalizeSum, NormalizeRaw:
	default:
		return fmt.Errorf("centrality: unknown normalize mode %q", o.Normalize)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("centrality: max iterations must be at least 1, got %d", o.MaxIterations)
	}
	if o.Tolerance <= 0 {
		return fmt.Errorf("centrality: tolerance must be positive, got %v", o.Tolerance)
	}
	if o.Damping <= 0 || o.Damping >= 1 {
		return fmt.Errorf("centrality: damping must be in (0,1), got %v", o.Damping)
	}
	if o.KatzAlpha <= 0 || o.KatzAlpha >= 1 {
		return fmt.Errorf("centrality: katz alpha must be in (0,1), got %v", o.KatzAlpha)
	}
	return nil
}

// Table is the per-node score table the optimizer and the export surface
// consume.
type Table struct {
	Nodes    []int                      `json:"nodes"`
	Measures []string                   `json:"measures"`
	Scores   map[string]map[int]float64 `json:"scores"`
}

type Service struct {
	opts Options
}

func NewService(opts Options) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Service{opts: opts}, nil
}

// Compute evaluates the requested measures over the graph, normalized to
// the configured scale.
func (s *Service) Compute(ctx context.Context, g *netgraph.Graph, measures []string) (*Table, error) {
	if len(measures) == 0 {
		measures = AllMeasures()
	}
	t := &Table{
		Nodes:    g.Nodes(),
		Measures: measures,
		Scores:   make(map[string]map[int]float64, len(measures)),
	}
	for _, m := range measures {
		scores, err := s.compute(ctx, g, m)
		if err != nil {
			return nil, err
		}
		t.Scores[m] = s.normalize(scores)
	}
	return t, nil
}

// Signal computes one normalized measure, the form the partition and
// ordering stages take as their centrality input.
func (s *Service) Signal(ctx context.Context, g *netgraph.Graph, measure string) (map[int]float64, error) {
	scores, err := s.compute(ctx, g, measure)
	if err != nil {
		return nil, err
	}
	return s.normalize(scores), nil
}

func (s *Service) compute(ctx context.Context, g *netgraph.Graph, measure string) (map[int]float64, error) {
	switch measure {
	case MeasureDegree:
		return Degree(g), nil
	case MeasureCloseness:
		return Closeness(g), nil
	case MeasureBetweenness:
		return Betweenness(ctx, g)
	case MeasureEigenvector:
		return Eigenvector(ctx, g, s.opts)
	case MeasureKatz:
		return Katz(g, s.opts)
	case MeasureRankProp:
		return RankPropagation(ctx, g, s.opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, measure)
	}
}

func (s *Service) normalize(scores map[int]float64) map[int]float64 {
	if s.opts.Normalize == NormalizeRaw {
		return scores
	}
	denom := 0.0
	for _, v := range scores {
		switch s.opts.Normalize {
		case NormalizeMax:
			if v > denom {
				denom = v
			}
		case NormalizeSum:
			denom += v
		}
	}
	if denom == 0 {
		return scores
	}
	out := make(map[int]float64, len(scores))
	for k, v := range scores {
		out[k] = v / denom * s.opts.Scale
	}
	return out
}
