package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a query that fails validation.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnsupportedDomain signals an edge shape no decoder can handle.
	ErrUnsupportedDomain = errors.New("unsupported domain")
	// ErrUnsupportedFormat signals an output format outside cube/table/list.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDecodeShape signals a backend response that does not match the compiled request.
	ErrDecodeShape = errors.New("unexpected response shape")
	// ErrUnknownKey signals a bucket key absent from a domain that was declared exhaustive.
	ErrUnknownKey = errors.New("unknown domain key")
	// ErrBackendExecution signals a failure reported by the search backend.
	ErrBackendExecution = errors.New("backend execution failed")
	// ErrUnsupportedBackend signals a backend version without the aggregation capability.
	ErrUnsupportedBackend = errors.New("backend does not support aggregations")
)

// InvalidQueryf wraps ErrInvalidQuery with a formatted reason.
func InvalidQueryf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// UnsupportedDomainError reports the edge whose shape matched no decoder.
type UnsupportedDomainError struct {
	Edge string
	Type string
}

func (e *UnsupportedDomainError) Error() string {
	return fmt.Sprintf("%s: edge %q with domain type %q", ErrUnsupportedDomain.Error(), e.Edge, e.Type)
}

func (e *UnsupportedDomainError) Unwrap() error { return ErrUnsupportedDomain }

// UnsupportedFormatError reports the requested output format.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedFormat.Error(), e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// DecodeShapeError reports where in the response tree decoding failed.
type DecodeShapeError struct {
	Path   string
	Reason string
}

func (e *DecodeShapeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrDecodeShape.Error(), e.Reason)
	}
	return fmt.Sprintf("%s at %s: %s", ErrDecodeShape.Error(), e.Path, e.Reason)
}

func (e *DecodeShapeError) Unwrap() error { return ErrDecodeShape }

// UnknownKeyError reports a bucket key that does not resolve in a known domain.
type UnknownKeyError struct {
	Edge string
	Key  any
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s: edge %q has no partition for %v", ErrUnknownKey.Error(), e.Edge, e.Key)
}

func (e *UnknownKeyError) Unwrap() error { return ErrUnknownKey }

// BackendError carries the backend's own failure description.
type BackendError struct {
	Status int
	Reason string
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", ErrBackendExecution.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrBackendExecution.Error(), e.Status, e.Reason)
}

func (e *BackendError) Unwrap() error { return ErrBackendExecution }
