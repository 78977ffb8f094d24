// Package api exposes the extractor over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical/ecg-extractor/internal/extract"
	"github.com/spherical/ecg-extractor/internal/observability"
)

// RouterConfig holds HTTP settings that shape the handlers.
type RouterConfig struct {
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// DefaultRouterConfig returns default configuration values.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RequestTimeout: 30 * time.Second,
		MaxUploadBytes: 32 << 20,
	}
}

// NewRouter creates the API router with all routes configured.
func NewRouter(svc *extract.Service, logger *observability.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	def := DefaultRouterConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"ecg-extractor"}`))
	})

	frames := NewFrameHandler(svc, logger, cfg.MaxUploadBytes)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/frames", frames.Extract)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", frames.ListRecords)
			r.Get("/{id}", frames.GetRecord)
		})
	})

	return r
}

// requestLogger logs one line per request and carries the request ID into
// the request context for downstream loggers.
func requestLogger(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := observability.ContextWithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.WithContext(ctx).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
