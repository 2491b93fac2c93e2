package health

import "context"

// BackendChecker checks search backend availability.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks response cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
