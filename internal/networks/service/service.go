// Package service parses network uploads and owns their stored form. Every
// analysis starts here: the stored edge list is the single source the run
// orchestrator rehydrates graphs from, and the content hash it persists is
// what keys the memoization layer.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph/mtx"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
)

// Repository is the Postgres surface the service needs.
type Repository interface {
	Create(ctx context.Context, n *domain.Network) error
	Get(ctx context.Context, id string) (*domain.Network, error)
	FindByHash(ctx context.Context, contentHash string) (*domain.Network, error)
	List(ctx context.Context) ([]domain.Network, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// GraphCache is the Redis surface that keeps hot payloads and overviews.
type GraphCache interface {
	GetNetwork(ctx context.Context, id string) (*domain.Network, error)
	PutNetwork(ctx context.Context, n *domain.Network) error
	GetOverview(ctx context.Context, id string) (*domain.Overview, error)
	PutOverview(ctx context.Context, id string, ov *domain.Overview) error
	Invalidate(ctx context.Context, id string) error
}

type Service struct {
	repo   Repository
	cache  GraphCache
	logger *zap.Logger
}

func NewService(repo Repository, cache GraphCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Ingest parses a MatrixMarket upload and stores the resulting graph. An
// upload whose content hash matches an existing network returns that
// network flagged as a duplicate instead of creating a twin row. The
// parser report travels back either way so dropped self loops and
// collapsed duplicate entries are visible at upload time.
func (s *Service) Ingest(ctx context.Context, name string, directed bool, data []byte) (*domain.UploadResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyUpload
	}

	g, report, err := mtx.ParseBytes(data, directed)
	if err != nil {
		return nil, err
	}
	hash := g.ContentHash()

	existing, err := s.repo.FindByHash(ctx, hash)
	if err == nil {
		s.logger.Info("duplicate network upload",
			zap.String("network_id", existing.ID),
			zap.String("content_hash", hash))
		return &domain.UploadResult{Network: existing, Report: report, Duplicate: true}, nil
	}
	if !errors.Is(err, domain.ErrNetworkNotFound) {
		return nil, err
	}

	rec := g.Record()
	n := &domain.Network{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Directed:    directed,
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		ContentHash: hash,
		Payload:     &rec,
	}
	if n.Name == "" {
		n.Name = "network-" + n.ID[:8]
	}

	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, domain.ErrNetworkExists) {
			// lost a race against a concurrent upload of the same file
			if existing, ferr := s.repo.FindByHash(ctx, hash); ferr == nil {
				return &domain.UploadResult{Network: existing, Report: report, Duplicate: true}, nil
			}
		}
		return nil, err
	}

	s.warm(ctx, n, g)

	s.logger.Info("network ingested",
		zap.String("network_id", n.ID),
		zap.String("content_hash", hash),
		zap.Int("nodes", n.NodeCount),
		zap.Int("edges", n.EdgeCount))

	return &domain.UploadResult{Network: n, Report: report}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Network, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Network, error) {
	return s.repo.List(ctx)
}

// Graph rehydrates the stored edge list into a working graph, going through
// the Redis payload cache before Postgres.
func (s *Service) Graph(ctx context.Context, id string) (*netgraph.Graph, *domain.Network, error) {
	n, err := s.cache.GetNetwork(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNetworkNotFound) {
			s.logger.Warn("network cache read failed", zap.String("network_id", id), zap.Error(err))
		}
		n, err = s.repo.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if cerr := s.cache.PutNetwork(ctx, n); cerr != nil {
			s.logger.Warn("network cache write failed", zap.String("network_id", id), zap.Error(cerr))
		}
	}

	if n.Payload == nil {
		return nil, nil, fmt.Errorf("network %s has no stored payload", id)
	}
	g, err := netgraph.FromRecord(*n.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild network %s: %w", id, err)
	}
	return g, n, nil
}

// Overview summarizes the network's shape, served from cache when warm.
func (s *Service) Overview(ctx context.Context, id string) (*domain.Overview, error) {
	ov, err := s.cache.GetOverview(ctx, id)
	if err == nil {
		return ov, nil
	}
	if !errors.Is(err, domain.ErrNetworkNotFound) {
		s.logger.Warn("overview cache read failed", zap.String("network_id", id), zap.Error(err))
	}

	g, _, err := s.Graph(ctx, id)
	if err != nil {
		return nil, err
	}
	ov = BuildOverview(g)
	if cerr := s.cache.PutOverview(ctx, id, ov); cerr != nil {
		s.logger.Warn("overview cache write failed", zap.String("network_id", id), zap.Error(cerr))
	}
	return ov, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNetworkNotFound
	}
	if cerr := s.cache.Invalidate(ctx, id); cerr != nil {
		s.logger.Warn("network cache invalidate failed", zap.String("network_id", id), zap.Error(cerr))
	}
	s.logger.Info("network deleted", zap.String("network_id", id))
	return nil
}

// warm pre-fills the cache for a freshly ingested network. Failures only
// cost the next reader a Postgres round trip.
func (s *Service) warm(ctx context.Context, n *domain.Network, g *netgraph.Graph) {
	if err := s.cache.PutNetwork(ctx, n); err != nil {
		s.logger.Warn("network cache write failed", zap.String("network_id", n.ID), zap.Error(err))
		return
	}
	if err := s.cache.PutOverview(ctx, n.ID, BuildOverview(g)); err != nil {
		s.logger.Warn("overview cache write failed", zap.String("network_id", n.ID), zap.Error(err))
	}
}

// BuildOverview computes the summary the upload surface reports.
func BuildOverview(g *netgraph.Graph) *domain.Overview {
	comps := g.Components()
	return &domain.Overview{
		Nodes:            g.NodeCount(),
		Edges:            g.EdgeCount(),
		Directed:         g.Directed(),
		Density:          g.Density(),
		Components:       len(comps),
		LargestComponent: len(g.LargestComponent()),
		Connected:        len(comps) == 1,
	}
}
