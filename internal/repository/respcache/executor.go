// Package respcache caches backend aggregation responses in a key-value store.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/edgeq/internal/db"
	"github.com/kailas-cloud/edgeq/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "resp_cache:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedExecutor serves repeated aggregation requests from a key-value store.
// Version lookups are never cached.
type CachedExecutor struct {
	inner      domain.Executor
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. A zero ttl stores entries without expiry.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Executor,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedExecutor {
	return &CachedExecutor{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Version passes through to the inner executor.
func (c *CachedExecutor) Version(ctx context.Context) (string, error) {
	return c.inner.Version(ctx)
}

// Search returns a cached response or calls the inner executor.
func (c *CachedExecutor) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	key := c.cacheKey(index, body)

	if data, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return data, nil
	}

	c.incCache("miss")

	data, err := c.inner.Search(ctx, index, body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	c.putToCache(ctx, key, data)
	return data, nil
}

func (c *CachedExecutor) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedExecutor) cacheKey(index string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(index))
	h.Write([]byte{0})
	h.Write(body)
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedExecutor) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	if !json.Valid(data) {
		c.logger.Warn("Dropping corrupt cached response", zap.String("key", key))
		if err := c.store.Del(ctx, key); err != nil {
			c.logger.Warn("Failed to delete cached response", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	return data, true
}

func (c *CachedExecutor) putToCache(ctx context.Context, key string, data []byte) {
	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}
