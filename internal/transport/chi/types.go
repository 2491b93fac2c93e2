package chi

import (
	"encoding/json"

	domquery "github.com/kailas-cloud/edgeq/internal/domain/query"
)

// ErrorCode is the machine-readable error code of an API error response.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeInvalidQuery       ErrorCode = "invalid_query"
	CodeUnsupportedDomain  ErrorCode = "unsupported_domain"
	CodeUnsupportedFormat  ErrorCode = "unsupported_format"
	CodeDecodeShape        ErrorCode = "decode_shape"
	CodeUnknownKey         ErrorCode = "unknown_key"
	CodeBackendError       ErrorCode = "backend_error"
	CodeUnsupportedBackend ErrorCode = "unsupported_backend"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// BatchRequest is the body of POST /query/batch.
type BatchRequest struct {
	Queries []domquery.Query `json:"queries"`
}

// BatchResultItem is the outcome of one query of a batch: data or error.
type BatchResultItem struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /query/batch.
type BatchResponse struct {
	Results   []BatchResultItem `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// ExplainResponse is the body returned by POST /query/explain.
type ExplainResponse struct {
	Request json.RawMessage `json:"request"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
