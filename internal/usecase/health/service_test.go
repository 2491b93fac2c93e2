package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockBackend struct {
	err error
}

func (m *mockBackend) HealthCheck(_ context.Context) error { return m.err }

type mockCache struct {
	err error
}

func (m *mockCache) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name        string
		backendErr  error
		cache       CachePinger
		wantStatus  Status
		wantBackend CheckResult
		wantCache   CheckResult
	}{
		{"all healthy", nil, &mockCache{}, Healthy, CheckOK, CheckOK},
		{"cache down", nil, &mockCache{err: down}, Degraded, CheckOK, CheckError},
		{"backend down", down, &mockCache{}, Unhealthy, CheckError, CheckOK},
		{"both down", down, &mockCache{err: down}, Unhealthy, CheckError, CheckError},
		{"no cache", nil, nil, Healthy, CheckOK, ""},
		{"no cache backend down", down, nil, Unhealthy, CheckError, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockBackend{err: tc.backendErr}, tc.cache)
			r := svc.Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("expected %q, got %q", tc.wantStatus, r.Status)
			}
			if r.Checks["backend"] != tc.wantBackend {
				t.Errorf("expected backend %q, got %q", tc.wantBackend, r.Checks["backend"])
			}
			got, ok := r.Checks["cache"]
			if tc.wantCache == "" {
				if ok {
					t.Error("cache check should be absent when cache is nil")
				}
				return
			}
			if got != tc.wantCache {
				t.Errorf("expected cache %q, got %q", tc.wantCache, got)
			}
		})
	}
}
