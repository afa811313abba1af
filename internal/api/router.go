package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-sesame/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/devices", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermDeviceRead)).Get("/", s.handleListDevices)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermDeviceRead)).Get("/", s.handleGetDevice)
					r.With(s.requirePermission(auth.PermDeviceOperate)).Post("/lock", s.handleLock)
					r.With(s.requirePermission(auth.PermDeviceOperate)).Post("/unlock", s.handleUnlock)
					r.With(s.requirePermission(auth.PermHistoryRead)).Get("/history", s.handleHistory)
				})
			})

			r.With(s.requirePermission(auth.PermDeviceRead)).Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth reports the server version and whether the bridge holds a
// Sesame session. It answers 200 either way so liveness probes stay green.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	loggedIn := s.service.IsLoggedIn()
	if !loggedIn {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           status,
		"version":          s.version,
		"sesame_logged_in": loggedIn,
		"ws_clients":       s.hub.ClientCount(),
	})
}
