package edgeq

import "github.com/kailas-cloud/edgeq/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery       = domain.ErrInvalidQuery
	ErrUnsupportedDomain  = domain.ErrUnsupportedDomain
	ErrUnsupportedFormat  = domain.ErrUnsupportedFormat
	ErrDecodeShape        = domain.ErrDecodeShape
	ErrUnknownKey         = domain.ErrUnknownKey
	ErrBackendExecution   = domain.ErrBackendExecution
	ErrUnsupportedBackend = domain.ErrUnsupportedBackend
)
