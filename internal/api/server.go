// Package api provides the HTTP server UI clients talk to.
// It exposes the progress engine's read surface, the award/completion
// operations, and the reconciliation controls.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momentum-app/momentum/internal/app/progress"
	"github.com/momentum-app/momentum/internal/infra/sqlite"
	"github.com/momentum-app/momentum/internal/infra/syncer"
)

// Server is the Momentum HTTP API server.
type Server struct {
	engine         *progress.Engine
	sync           *syncer.Syncer
	db             *sqlite.DB
	metricsEnabled bool
	requestLogging bool
	corsOrigins    []string
}

// NewServer creates an API server over the engine. The syncer is optional;
// without it the refresh and sync-stats endpoints report unavailable.
func NewServer(engine *progress.Engine, sync *syncer.Syncer, db *sqlite.DB) *Server {
	return &Server{engine: engine, sync: sync, db: db}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// EnableRequestLogging logs every request (debug log level).
func (s *Server) EnableRequestLogging() { s.requestLogging = true }

// SetCORSOrigins restricts CORS to the given origins. Empty, or a list
// containing "*", allows any origin.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.requestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware(s.corsOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api/progress", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/days", s.handleDays)
		r.Post("/days/{day}/complete", s.handleCompleteDay)
		r.Get("/days/{day}/preview", s.handlePreview)
		r.Post("/awards/retro", s.handleAwardRetro)
		r.Post("/awards/mood", s.handleAwardMood)
		r.Post("/awards/tiny", s.handleAwardTiny)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/sync/stats", s.handleSyncStats)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the web client. An allowlist echoes
// the matching request origin; anything else gets no CORS headers.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	wildcard := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
