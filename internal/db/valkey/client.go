package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/edgeq/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// defaultClientCacheTTL bounds how long a GET reply stays in the client-side cache.
const defaultClientCacheTTL = 30 * time.Second

// Config holds connection parameters for a Valkey store.
type Config struct {
	Addrs    []string
	Password string
	// ClientCacheTTL is the client-side cache lifetime of GET replies.
	ClientCacheTTL time.Duration
}

// Store implements db.Store via rueidis for Valkey. GET replies are served
// from the RESP3 client-side cache and invalidated by the server on change.
type Store struct {
	client   rueidis.Client
	cacheTTL time.Duration
}

// NewStore creates a Valkey store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: cfg.Addrs,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg.ClientCacheTTL), nil
}

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return newStore(c, 0)
}

func newStore(c rueidis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultClientCacheTTL
	}
	return &Store{client: c, cacheTTL: ttl}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}
