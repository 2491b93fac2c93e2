package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/edgeq/internal/domain"
	dombatch "github.com/kailas-cloud/edgeq/internal/domain/batch"
	domquery "github.com/kailas-cloud/edgeq/internal/domain/query"
	healthuc "github.com/kailas-cloud/edgeq/internal/usecase/health"
	queryuc "github.com/kailas-cloud/edgeq/internal/usecase/query"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// errorMapping binds a domain sentinel to its HTTP status and error code.
// Client-side failures expose the full error message; backend-side failures
// expose only the sentinel message.
type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
	detailed bool
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery, true},
	{domain.ErrUnsupportedDomain, http.StatusBadRequest, CodeUnsupportedDomain, true},
	{domain.ErrUnsupportedFormat, http.StatusBadRequest, CodeUnsupportedFormat, true},
	{domain.ErrDecodeShape, http.StatusBadGateway, CodeDecodeShape, false},
	{domain.ErrUnknownKey, http.StatusBadGateway, CodeUnknownKey, true},
	{domain.ErrBackendExecution, http.StatusBadGateway, CodeBackendError, false},
	{domain.ErrUnsupportedBackend, http.StatusNotImplemented, CodeUnsupportedBackend, true},
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the query API.
type Server struct {
	query         *queryuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(query *queryuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		query:  query,
		health: health,
		logger: logger,
	}
	for _, m := range errorMappings {
		s.errorHandlers = append(s.errorHandlers, sentinelHandler(m))
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/query", s.Query)
	r.Post("/query/explain", s.Explain)
	r.Post("/query/batch", s.Batch)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Options("/*", s.Empty)
	r.Head("/*", s.Empty)
}

// Empty answers OPTIONS and HEAD on any path with an empty 200.
func (s *Server) Empty(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format parameter: "+err.Error())
		return
	}

	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	if format != nil && *format != "" {
		q.Format = domquery.Format(*format)
	}

	res, err := s.query.Execute(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("X-Query-ID", res.QueryID)
	w.Header().Set("X-Query-Format", string(res.Format))
	w.Header().Set("X-Query-Rows", strconv.Itoa(res.Rows))
	writeJSON(w, http.StatusOK, res.Data)
}

// Explain handles POST /query/explain.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	req, err := s.query.Explain(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	body, err := req.JSON()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExplainResponse{Request: body})
}

// Batch handles POST /query/batch.
func (s *Server) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	results, err := s.query.ExecuteBatch(r.Context(), req.Queries)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	succeeded, failed := 0, 0
	items := make([]BatchResultItem, len(results))
	for i, res := range results {
		items[i] = batchResultItem(res)
		if res.Status() == dombatch.StatusOK {
			succeeded++
		} else {
			failed++
		}
	}

	writeJSON(w, http.StatusOK, BatchResponse{
		Results:   items,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (domquery.Query, bool) {
	var q domquery.Query
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return domquery.Query{}, false
	}
	return q, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// lookupError finds the mapping for err, if any.
func lookupError(err error) (errorMapping, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	m, ok := lookupError(err)
	if !ok {
		return "internal error"
	}
	if m.detailed {
		return err.Error()
	}
	return m.sentinel.Error()
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(m errorMapping) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, m.sentinel) {
			return false
		}
		writeError(w, m.status, m.code, safeDomainMessage(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func batchResultItem(r dombatch.Result) BatchResultItem {
	if r.Err() == nil {
		return BatchResultItem{Data: r.Data()}
	}
	return BatchResultItem{Error: &ErrorResponse{
		Code:    batchErrorCode(r.Err()),
		Message: safeDomainMessage(r.Err()),
	}}
}

func batchErrorCode(err error) ErrorCode {
	if m, ok := lookupError(err); ok {
		return m.code
	}
	return CodeInternalError
}
