package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/suggestkit/suggestd/pkg/config"
	pkgredis "github.com/suggestkit/suggestd/pkg/redis"
)

const keyPrefix = "suggest:"

// ResultCache caches computed suggest responses in Redis. Keystroke
// queries repeat heavily across users typing the same phrases, and
// singleflight collapses concurrent identical misses into one scorer run.
type ResultCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResultCache wraps a Redis client as a suggest result cache.
func NewResultCache(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

// Get returns a cached response, if present.
func (c *ResultCache) Get(ctx context.Context, query string, limit int) (*Response, bool) {
	key := c.buildKey(query, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &resp, true
}

// Set stores a response with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, query string, limit int, resp *Response) {
	key := c.buildKey(query, limit)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response or computes and stores one,
// collapsing concurrent identical misses.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*Response, error),
) (*Response, bool, error) {
	if resp, ok := c.Get(ctx, query, limit); ok {
		return resp, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if resp, ok := c.Get(ctx, query, limit); ok {
			return resp, nil
		}
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Response), false, nil
}

// Invalidate drops every cached suggest response, for use after a stop-word
// or corpus reconfiguration.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("result cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts since startup.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) buildKey(query string, limit int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	raw := fmt.Sprintf("%s:limit=%d", normalized, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
