package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/edgeq/internal/config"
	"github.com/kailas-cloud/edgeq/internal/db"
	dbRedis "github.com/kailas-cloud/edgeq/internal/db/redis"
	dbValkey "github.com/kailas-cloud/edgeq/internal/db/valkey"
	"github.com/kailas-cloud/edgeq/internal/domain"
	domquery "github.com/kailas-cloud/edgeq/internal/domain/query"
	logpkg "github.com/kailas-cloud/edgeq/internal/logger"
	"github.com/kailas-cloud/edgeq/internal/metrics"
	"github.com/kailas-cloud/edgeq/internal/repository/respcache"
	chiTransport "github.com/kailas-cloud/edgeq/internal/transport/chi"
	"github.com/kailas-cloud/edgeq/internal/transport/elastic"
	healthuc "github.com/kailas-cloud/edgeq/internal/usecase/health"
	queryuc "github.com/kailas-cloud/edgeq/internal/usecase/query"
	"github.com/kailas-cloud/edgeq/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting edgeq API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("es_url", cfg.Elasticsearch.URL),
		zap.String("es_index", cfg.Elasticsearch.Index),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register query metrics explicitly (no init())
	metrics.RegisterQueryMetrics()
	metrics.RegisterHTTPMetrics()

	backend, err := elastic.NewClient(elastic.Config{
		URL:               cfg.Elasticsearch.URL,
		Timeout:           time.Duration(cfg.Elasticsearch.TimeoutSec) * time.Second,
		RequestsPerSecond: cfg.Elasticsearch.RequestsPerSecond,
		Burst:             cfg.Elasticsearch.Burst,
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	ctx := context.Background()

	// Response cache is optional: the executor chain is Elastic -> Cached.
	var executor domain.Executor = backend
	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled {
		store, err := newStore(cfg.Cache)
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache",
			zap.String("driver", cfg.Cache.Driver),
			zap.Strings("addrs", cfg.Cache.Addrs),
		)

		executor = respcache.New(backend, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.ResponseCacheTotal, logger)
		cachePinger = store
	}

	querySvc := queryuc.New(executor, queryuc.Config{
		Index:            cfg.Elasticsearch.Index,
		DefaultFormat:    domquery.Format(cfg.Engine.DefaultFormat),
		TermsSize:        cfg.Engine.TermsSize,
		AggsVersions:     cfg.Engine.AggsVersions,
		BatchConcurrency: cfg.Engine.BatchConcurrency,
		MaxBatchSize:     cfg.Engine.MaxBatchSize,
	}, logger)

	// Pass nil interface (not typed nil pointer) when the cache is disabled.
	healthSvc := healthuc.New(backend, cachePinger)

	server := chiTransport.NewServer(querySvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newStore creates the cache store for the configured driver.
func newStore(cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey":
		return dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case "redis":
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger; the query service adds query_id on top of it.
			ctx, reqLogger := logpkg.ForRequest(r.Context(), logger, requestID)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
