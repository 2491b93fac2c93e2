package domain

import "context"

// KeyPrefix namespaces every key edgeq writes to a shared store.
const KeyPrefix = "edgeq:"

// Executor runs one aggregation request against the search backend.
type Executor interface {
	// Version returns the backend's version number, e.g. "1.7.3".
	Version(ctx context.Context) (string, error)
	// Search sends body to index and returns the raw "aggregations" object.
	Search(ctx context.Context, index string, body []byte) ([]byte, error)
}

// HealthChecker verifies backend availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
