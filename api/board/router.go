// Package board exposes workspaces over HTTP.
package board

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/monitoring"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/infra/ingest"
)

// NewRouter creates the chi router serving the board API.
func NewRouter(mgr *workspace.Manager, opts ingest.Options, log logger.Logger) *chi.Mux {
	log = logger.OrNop(log)
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(log))
	r.Use(recovery(log))

	h := &Handler{mgr: mgr, ingest: opts, log: log}
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/settings", h.UpdateSettings)
		r.Put("/{id}/settings/bulk", h.BulkSettings)
		r.Post("/{id}/check", h.Check)
		r.Post("/{id}/generate", h.Generate)
		r.Post("/{id}/pick", h.Pick)
		r.Post("/{id}/cancel", h.Cancel)
		r.Get("/{id}/export", h.Export)
		r.Get("/{id}/summary", h.Summary)
		r.Post("/{id}/save", h.Save)
	})
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.New().String()[:8])
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Debugf("%s %s %d %dms", r.Method, r.URL.Path, sw.status, time.Since(start).Milliseconds())
		})
	}
}

func recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Errorf("panic recovered on %s: %v", r.URL.Path, err)
					monitoring.CaptureException(fmt.Errorf("panic: %v", err), map[string]string{"route": r.URL.Path})
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
