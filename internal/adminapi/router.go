package adminapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dantte-lp/procheckd/internal/loader"
)

// NewRouter builds the chi router for the admin API.
//
// Routes:
//   - GET /healthz             - liveness probe
//   - GET /v1/processes        - full slot table snapshot
//   - GET /v1/processes/{id}   - a single slot by ID
//   - GET /v1/running          - the current Running set
func NewRouter(driver *loader.Driver, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "adminapi"))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := NewProcessHandler(driver)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/processes", h.List)
		r.Get("/processes/{id}", h.Get)
		r.Get("/running", h.Running)
	})

	return r
}

// requestLogger logs each request's method, path, status, and duration.
// Healthchecks log at debug to keep the access log quiet.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			}

			if r.URL.Path == "/healthz" {
				log.Debug("admin api request", attrs...)
			} else {
				log.Info("admin api request", attrs...)
			}
		})
	}
}
