package query

import "context"

// Executor performs the backend round trip.
type Executor interface {
	Version(ctx context.Context) (string, error)
	Search(ctx context.Context, index string, body []byte) ([]byte, error)
}
