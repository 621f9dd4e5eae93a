package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Auth endpoints (no auth required)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	// Device state endpoints. Open CORS and no-store so browser dashboards
	// and the embedded poller both get fresh reads without preflight pain.
	r.Route("/device-state", func(r chi.Router) {
		r.Use(s.stateHeadersMiddleware)

		// Preflight needs no credentials
		r.Options("/", s.handleStatePreflight)

		// Everything else goes through the gate
		r.Group(func(r chi.Router) {
			r.Use(s.gateMiddleware)

			r.Get("/", s.handleGetState)
			r.Post("/", s.handleSetState)
			r.Get("/history", s.handleGetHistory)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
