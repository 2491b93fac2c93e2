package edgeq

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	esURL     string
	index     string
	timeout   time.Duration
	rps       float64
	burst     int
	termsSize int
	format    Format
	versions  []string

	cacheDriver string // "valkey" or "redis"
	cacheAddrs  []string
	cachePass   string
	cacheTTL    time.Duration

	batchConcurrency int
	maxBatchSize     int

	logger *zap.Logger
}

// WithElasticsearch sets the backend base URL, e.g. "http://localhost:9200".
func WithElasticsearch(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esURL = url
	})
}

// WithIndex sets the index used by queries without "from".
func WithIndex(index string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = index
	})
}

// WithTimeout sets the per-request backend timeout. Defaults to 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRateLimit caps outgoing backend requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rps = rps
		c.burst = burst
	})
}

// WithTermsSize bounds every terms aggregation. Zero keeps the backend default.
func WithTermsSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.termsSize = n
	})
}

// WithDefaultFormat sets the format used by queries without one. Defaults to list.
func WithDefaultFormat(f Format) Option {
	return optionFunc(func(c *clientConfig) {
		c.format = f
	})
}

// WithBackendVersions overrides the backend version prefixes accepted by the client.
func WithBackendVersions(prefixes ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.versions = prefixes
	})
}

// WithCache enables the response cache on a Valkey or Redis deployment.
// driver is "valkey" or "redis".
func WithCache(driver string, addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = driver
		c.cacheAddrs = addrs
	})
}

// WithCachePassword sets the cache password.
func WithCachePassword(password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cachePass = password
	})
}

// WithCacheTTL sets how long cached responses live. Zero keeps them until evicted.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithBatch tunes QueryBatch: concurrent backend round trips and maximum batch size.
func WithBatch(concurrency, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchConcurrency = concurrency
		c.maxBatchSize = maxSize
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
