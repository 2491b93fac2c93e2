// Package elastic is the HTTP executor for Elasticsearch-compatible backends.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/metrics"
)

// defaultMaxResponseBytes bounds how much of a backend response is read.
const defaultMaxResponseBytes = 64 << 20

// Compile-time checks.
var (
	_ domain.Executor      = (*Client)(nil)
	_ domain.HealthChecker = (*Client)(nil)
)

// Config holds the backend connection settings.
type Config struct {
	URL     string
	Timeout time.Duration
	// RequestsPerSecond caps outgoing requests; zero disables the limit.
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
	// MaxResponseBytes caps the response body; zero means 64 MiB.
	MaxResponseBytes int64
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client sends aggregation requests over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	maxBody int64
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elasticsearch url is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse elasticsearch url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("elasticsearch url must be http or https, got %q", cfg.URL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseBytes
	}

	return &Client{
		baseURL: u,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		maxBody: maxBody,
	}, nil
}

// Version implements domain.Executor by reading the root endpoint.
func (c *Client) Version(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return "", err
	}
	var info struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return "", &domain.BackendError{Reason: "malformed root response: " + err.Error()}
	}
	if info.Version.Number == "" {
		return "", &domain.BackendError{Reason: "root response carries no version number"}
	}
	return info.Version.Number, nil
}

// Search implements domain.Executor. It returns the "aggregations" object of the response.
func (c *Client) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	path := "/_search"
	if index != "" {
		path = "/" + url.PathEscape(index) + "/_search"
	}

	data, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Aggregations json.RawMessage `json:"aggregations"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &domain.DecodeShapeError{Reason: "search response is not a JSON object: " + err.Error()}
	}
	if len(resp.Aggregations) == 0 {
		return nil, &domain.DecodeShapeError{Reason: "search response has no aggregations"}
	}
	return resp.Aggregations, nil
}

// HealthCheck verifies the backend answers its root endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Version(ctx); err != nil {
		return fmt.Errorf("backend version: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		return nil, &domain.BackendError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		return nil, &domain.BackendError{Status: resp.StatusCode, Reason: "read response: " + err.Error()}
	}
	if int64(len(data)) > c.maxBody {
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		return nil, &domain.BackendError{
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("response exceeds limit of %d bytes", c.maxBody),
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		c.logger.Debug("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return nil, parseAPIError(resp.StatusCode, data)
	}

	metrics.BackendRequestsTotal.WithLabelValues("success").Inc()
	metrics.BackendRequestDuration.Observe(duration.Seconds())
	return data, nil
}

// parseAPIError extracts the backend's reason from an error body. Old
// backends send {"error": "..."}; newer ones send {"error": {"type", "reason"}}.
func parseAPIError(status int, body []byte) error {
	var parsed struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && len(parsed.Error) > 0 {
		var reason string
		if json.Unmarshal(parsed.Error, &reason) == nil && reason != "" {
			return &domain.BackendError{Status: status, Reason: reason}
		}
		var structured struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		}
		if json.Unmarshal(parsed.Error, &structured) == nil && structured.Reason != "" {
			if structured.Type != "" {
				return &domain.BackendError{Status: status, Reason: structured.Type + ": " + structured.Reason}
			}
			return &domain.BackendError{Status: status, Reason: structured.Reason}
		}
	}
	reason := strings.TrimSpace(string(body))
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &domain.BackendError{Status: status, Reason: reason}
}
