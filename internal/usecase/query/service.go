// Package query runs edge/select queries end to end: validation, capability
// check, compilation, one backend round trip, decoding and formatting.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/edgeq/internal/aggs"
	"github.com/kailas-cloud/edgeq/internal/domain"
	domquery "github.com/kailas-cloud/edgeq/internal/domain/query"
	logpkg "github.com/kailas-cloud/edgeq/internal/logger"
	"github.com/kailas-cloud/edgeq/internal/metrics"
)

// DefaultAggsVersions are the backend version prefixes that support the
// aggregation compile path.
var DefaultAggsVersions = []string{"1.4", "1.5", "1.6", "1.7"}

// Defaults for the batch path.
const (
	DefaultMaxBatchSize     = 50
	DefaultBatchConcurrency = 4
)

// Config tunes the service.
type Config struct {
	// Index is used when a query has no "from".
	Index         string
	DefaultFormat domquery.Format
	TermsSize     int
	AggsVersions  []string
	// BatchConcurrency bounds concurrent backend round trips of one batch.
	BatchConcurrency int
	MaxBatchSize     int
}

func (c *Config) applyDefaults() {
	if c.DefaultFormat == "" {
		c.DefaultFormat = domquery.FormatList
	}
	if len(c.AggsVersions) == 0 {
		c.AggsVersions = DefaultAggsVersions
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = DefaultBatchConcurrency
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
}

// Result is the outcome of one executed query.
type Result struct {
	QueryID string
	Format  domquery.Format
	Data    any
	Rows    int
}

// Service executes queries against one backend.
type Service struct {
	exec   Executor
	cfg    Config
	logger *zap.Logger

	versionGroup singleflight.Group
	mu           sync.RWMutex
	version      string
}

// New creates a query service.
func New(exec Executor, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{exec: exec, cfg: cfg, logger: logger}
}

// Execute runs q and returns the formatted output.
func (s *Service) Execute(ctx context.Context, q domquery.Query) (*Result, error) {
	start := time.Now()
	id := uuid.NewString()
	log := logpkg.FromContextOr(ctx, s.logger).With(zap.String("query_id", id))

	q.Normalize(s.cfg.DefaultFormat)
	format := formatLabel(q.Format)

	res, err := s.execute(ctx, log, q)
	duration := time.Since(start)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(format, "error").Inc()
		log.Warn("Query failed",
			zap.String("from", s.index(q)),
			zap.Int("edges", len(q.Edges)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}
	res.QueryID = id

	metrics.QueriesTotal.WithLabelValues(format, "ok").Inc()
	metrics.QueryDuration.WithLabelValues(format).Observe(duration.Seconds())
	metrics.QueryRows.WithLabelValues(format).Observe(float64(res.Rows))
	log.Info("Query executed",
		zap.String("from", s.index(q)),
		zap.String("format", format),
		zap.Strings("edges", edgeNames(q)),
		zap.Int("rows", res.Rows),
		zap.Duration("duration", duration),
	)
	return res, nil
}

func (s *Service) execute(ctx context.Context, log *zap.Logger, q domquery.Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkBackend(ctx); err != nil {
		return nil, err
	}

	plan, err := aggs.Compile(q, aggs.Options{TermsSize: s.cfg.TermsSize})
	if err != nil {
		return nil, err
	}
	for _, d := range plan.Decoders {
		if _, ok := d.(*aggs.DimFieldListDecoder); ok {
			log.Warn("Composite list edge resolves every row to the missing group",
				zap.String("edge", d.Edge().Name))
		}
	}

	body, err := plan.Request.JSON()
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	raw, err := s.exec.Search(ctx, s.index(q), body)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	root, err := aggs.ParseNode(raw)
	if err != nil {
		return nil, err
	}
	decoders, err := aggs.Materialize(root, plan.Decoders)
	if err != nil {
		return nil, err
	}
	rows, err := aggs.Rows(root, decoders)
	if err != nil {
		return nil, err
	}
	data, err := aggs.Format(q.Format, q.Select, decoders, rows)
	if err != nil {
		return nil, err
	}
	return &Result{Format: q.Format, Data: data, Rows: len(rows)}, nil
}

// Explain compiles q without contacting the backend.
func (s *Service) Explain(_ context.Context, q domquery.Query) (aggs.Fragment, error) {
	q.Normalize(s.cfg.DefaultFormat)
	plan, err := aggs.Compile(q, aggs.Options{TermsSize: s.cfg.TermsSize})
	if err != nil {
		return nil, err
	}
	return plan.Request, nil
}

// checkBackend rejects backends whose version has no aggregation compile path.
func (s *Service) checkBackend(ctx context.Context) error {
	v, err := s.backendVersion(ctx)
	if err != nil {
		return fmt.Errorf("backend version: %w", err)
	}
	for _, prefix := range s.cfg.AggsVersions {
		if strings.HasPrefix(v, prefix) {
			return nil
		}
	}
	return fmt.Errorf("%w: version %s", domain.ErrUnsupportedBackend, v)
}

// backendVersion returns the cached backend version, looking it up once.
// Concurrent first callers share one lookup; failures are not cached.
func (s *Service) backendVersion(ctx context.Context) (string, error) {
	s.mu.RLock()
	v := s.version
	s.mu.RUnlock()
	if v != "" {
		return v, nil
	}

	res, err, _ := s.versionGroup.Do("version", func() (any, error) {
		v, err := s.exec.Version(ctx)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.version = v
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return "", err
	}
	version, ok := res.(string)
	if !ok {
		return "", errors.New("backend version lookup returned no version")
	}
	return version, nil
}

func (s *Service) index(q domquery.Query) string {
	if q.From != "" {
		return q.From
	}
	return s.cfg.Index
}

func formatLabel(f domquery.Format) string {
	if f.Valid() {
		return string(f)
	}
	return "invalid"
}

func edgeNames(q domquery.Query) []string {
	out := make([]string, len(q.Edges))
	for i, e := range q.Edges {
		out[i] = e.Name
	}
	return out
}
