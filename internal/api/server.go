// Package api provides the HTTP server for glow.
// It exposes the points ledger to the UI layer: balance, history, actions,
// undo, and a live notice feed. It renders nothing: data in, data out.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glowcircle/glow/internal/app/rewards"
)

// Server is the glow HTTP API server.
type Server struct {
	engine         *rewards.Engine
	metricsEnabled bool
	devEnabled     bool
}

// NewServer creates a new API server around an engine.
func NewServer(engine *rewards.Engine) *Server {
	return &Server{engine: engine}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// EnableDevEndpoints enables destructive dev/test endpoints (reset).
func (s *Server) EnableDevEndpoints() { s.devEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Points API
	r.Route("/api/points", func(r chi.Router) {
		r.Get("/balance", s.handleBalance)
		r.Get("/history", s.handleHistory)
		r.Post("/checkin", s.handleCheckIn)
		r.Delete("/checkin", s.handleUndoCheckIn)
		r.Post("/tasks/{taskID}/complete", s.handleCompleteTask)
		r.Delete("/tasks/{taskID}/complete", s.handleUndoTask)
		r.Post("/referrals", s.handleAddReferral)
		r.Post("/earn", s.handleEarn)
		r.Post("/grants", s.handleGrantOnce)
		r.Post("/events/{eventID}/reverse", s.handleReverse)

		if s.devEnabled {
			r.Post("/reset", s.handleReset)
		}
	})

	// Live notice feed (SSE)
	r.Get("/api/notices/live", s.handleNoticesSSE)

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
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

// corsMiddleware adds CORS headers for the local UI.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
