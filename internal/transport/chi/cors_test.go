package chi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	healthuc "github.com/kailas-cloud/edgeq/internal/usecase/health"
	queryuc "github.com/kailas-cloud/edgeq/internal/usecase/query"
)

func newCORSRouter(origins, apiKeys []string) http.Handler {
	querySvc := queryuc.New(&mockExecutor{}, queryuc.Config{Index: "logs"}, zap.NewNop())
	srv := NewServer(querySvc, healthuc.New(&mockChecker{}, nil), zap.NewNop())

	r := chi.NewRouter()
	r.Use(CORSMiddleware(origins))
	r.Use(BearerAuthMiddleware(apiKeys))
	srv.Routes(r)
	return r
}

func TestCORS_Preflight(t *testing.T) {
	h := newCORSRouter(nil, []string{"secret"})

	req := httptest.NewRequest(http.MethodOptions, "/query", http.NoBody)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin")
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("missing Access-Control-Allow-Methods")
	}
}

func TestCORS_ActualRequestCarriesHeaders(t *testing.T) {
	h := newCORSRouter([]string{"https://dashboard.example.com"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(colorQuery))
	req.Header.Set("Origin", "https://dashboard.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	h := newCORSRouter([]string{"https://dashboard.example.com"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(colorQuery))
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
	}
}

func TestEmpty_OptionsAndHeadOnAnyPath(t *testing.T) {
	h := newCORSRouter(nil, []string{"secret"})

	for _, method := range []string{http.MethodOptions, http.MethodHead} {
		for _, path := range []string{"/", "/query", "/health", "/some/other/path"} {
			rr := do(t, h, method, path, "")
			if rr.Code != http.StatusOK {
				t.Errorf("%s %s: status = %d, want 200", method, path, rr.Code)
			}
			if rr.Body.Len() != 0 {
				t.Errorf("%s %s: body = %q, want empty", method, path, rr.Body.String())
			}
		}
	}
}
