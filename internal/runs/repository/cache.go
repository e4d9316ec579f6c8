package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/domain"
)

const (
	memoKeyPrefix = "dss:memo:" // Cached artifact payloads: dss:memo:{content_hash}:{kind}:{params_hash}
)

// Cache memoizes analysis artifacts in Redis. The key embeds the graph's
// content hash, so a changed edge set can never serve a stale entry; keys
// for dropped graphs simply age out through the TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached payload, or ErrCacheMiss when the artifact has
// not been computed for this graph and parameter set.
func (c *Cache) Get(ctx context.Context, contentHash, kind, paramsHash string) (json.RawMessage, error) {
	data, err := c.client.Get(ctx, c.memoKey(contentHash, kind, paramsHash)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached artifact: %w", err)
	}
	return json.RawMessage(data), nil
}

// Set stores a computed payload under the memo key.
func (c *Cache) Set(ctx context.Context, contentHash, kind, paramsHash string, payload []byte) error {
	err := c.client.Set(ctx, c.memoKey(contentHash, kind, paramsHash), payload, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache artifact: %w", err)
	}
	return nil
}

func (c *Cache) memoKey(contentHash, kind, paramsHash string) string {
	return fmt.Sprintf("%s%s:%s:%s", memoKeyPrefix, contentHash, kind, paramsHash)
}
