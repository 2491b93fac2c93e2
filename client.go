package edgeq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/edgeq/internal/db"
	dbRedis "github.com/kailas-cloud/edgeq/internal/db/redis"
	dbValkey "github.com/kailas-cloud/edgeq/internal/db/valkey"
	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/metrics"
	"github.com/kailas-cloud/edgeq/internal/repository/respcache"
	"github.com/kailas-cloud/edgeq/internal/transport/elastic"
	queryuc "github.com/kailas-cloud/edgeq/internal/usecase/query"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultReadinessTimeout = 10 * time.Second
)

// Client is the edgeq SDK entry point.
type Client struct {
	store   db.Store // nil without a cache
	backend *elastic.Client
	svc     *queryuc.Service
}

// New creates a Client. With a cache configured it waits for the store to
// answer before returning.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.esURL == "" {
		return nil, errors.New("edgeq: backend address required (use WithElasticsearch)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	backend, err := elastic.NewClient(elastic.Config{
		URL:               cfg.esURL,
		Timeout:           cfg.timeout,
		RequestsPerSecond: cfg.rps,
		Burst:             cfg.burst,
		Logger:            cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("edgeq: %w", err)
	}

	var store db.Store
	if cfg.cacheDriver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("edgeq: cache not ready: %w", err)
		}
	}

	return wireClient(backend, store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePass,
		})
		if err != nil {
			return nil, fmt.Errorf("edgeq: create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePass,
		})
		if err != nil {
			return nil, fmt.Errorf("edgeq: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("edgeq: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(backend *elastic.Client, store db.Store, cfg *clientConfig) *Client {
	var exec domain.Executor = backend
	if store != nil {
		exec = respcache.New(backend, store, cfg.cacheTTL, metrics.ResponseCacheTotal, cfg.logger)
	}

	svc := queryuc.New(exec, queryuc.Config{
		Index:            cfg.index,
		DefaultFormat:    cfg.format,
		TermsSize:        cfg.termsSize,
		AggsVersions:     cfg.versions,
		BatchConcurrency: cfg.batchConcurrency,
		MaxBatchSize:     cfg.maxBatchSize,
	}, cfg.logger)

	return &Client{store: store, backend: backend, svc: svc}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks that the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.backend.HealthCheck(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Query executes q and returns the formatted output.
func (c *Client) Query(ctx context.Context, q Query) (*Result, error) {
	res, err := c.svc.Execute(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &Result{
		QueryID: res.QueryID,
		Format:  res.Format,
		Data:    res.Data,
		Rows:    res.Rows,
	}, nil
}

// QueryJSON decodes a JSON query document and executes it.
func (c *Client) QueryJSON(ctx context.Context, data []byte) (*Result, error) {
	q, err := ParseQuery(data)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, q)
}

// Explain returns the backend request q compiles to, without executing it.
func (c *Client) Explain(ctx context.Context, q Query) (json.RawMessage, error) {
	req, err := c.svc.Explain(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}
	body, err := req.JSON()
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}
	return body, nil
}

// QueryBatch executes queries concurrently. Results are in input order; a
// failing query does not fail the others.
func (c *Client) QueryBatch(ctx context.Context, queries []Query) ([]BatchResult, error) {
	results, err := c.svc.ExecuteBatch(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{Data: r.Data(), Err: r.Err()}
	}
	return out, nil
}

// ParseQuery decodes a JSON query document.
func ParseQuery(data []byte) (Query, error) {
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}
	return q, nil
}
