package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
)

const (
	networkKeyPrefix = "dss:network:" // Graph payload: dss:network:{id}:graph, overview: dss:network:{id}:overview
)

// Cache keeps hot network payloads and overviews in Redis so analyses do
// not rehydrate from Postgres on every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetNetwork returns the cached network with its payload, or
// ErrNetworkNotFound on a cache miss.
func (c *Cache) GetNetwork(ctx context.Context, id string) (*domain.Network, error) {
	data, err := c.client.Get(ctx, c.graphKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNetworkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached network: %w", err)
	}

	var n domain.Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached network: %w", err)
	}
	return &n, nil
}

// PutNetwork caches the network including its payload.
func (c *Cache) PutNetwork(ctx context.Context, n *domain.Network) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}
	if err := c.client.Set(ctx, c.graphKey(n.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache network: %w", err)
	}
	return nil
}

// GetOverview returns the cached overview, or ErrNetworkNotFound on a miss.
func (c *Cache) GetOverview(ctx context.Context, id string) (*domain.Overview, error) {
	data, err := c.client.Get(ctx, c.overviewKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNetworkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached overview: %w", err)
	}

	var ov domain.Overview
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached overview: %w", err)
	}
	return &ov, nil
}

func (c *Cache) PutOverview(ctx context.Context, id string, ov *domain.Overview) error {
	data, err := json.Marshal(ov)
	if err != nil {
		return fmt.Errorf("failed to marshal overview: %w", err)
	}
	if err := c.client.Set(ctx, c.overviewKey(id), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache overview: %w", err)
	}
	return nil
}

// Invalidate drops the cached entries for one network.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.graphKey(id))
	pipe.Del(ctx, c.overviewKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate network cache: %w", err)
	}
	return nil
}

func (c *Cache) graphKey(id string) string {
	return fmt.Sprintf("%s%s:graph", networkKeyPrefix, id)
}

func (c *Cache) overviewKey(id string) string {
	return fmt.Sprintf("%s%s:overview", networkKeyPrefix, id)
}
