package chi

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware answers cross-origin preflight requests and decorates
// responses for the configured origins. An empty list allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Query-ID", "X-Query-Format", "X-Query-Rows"},
		MaxAge:         300,
	})
}
