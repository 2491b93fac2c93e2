package respcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/edgeq/internal/db"
)

type mockExecutor struct {
	version     string
	data        []byte
	err         error
	searchCalls int
}

func (m *mockExecutor) Version(_ context.Context) (string, error) {
	return m.version, nil
}

func (m *mockExecutor) Search(_ context.Context, _ string, _ []byte) ([]byte, error) {
	m.searchCalls++
	return m.data, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn        func(ctx context.Context, key string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCachedExecutor(t *testing.T, inner *mockExecutor, ttl time.Duration) (*CachedExecutor, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ce := New(inner, ms, ttl, nil, zap.NewNop())
	return ce, ms
}
