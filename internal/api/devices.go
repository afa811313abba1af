package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-sesame/internal/lockservice"
	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
)

// handleListDevices returns every lock on the account, fetched fresh.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	states, err := s.service.ListDevices(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": states,
		"count":   len(states),
	})
}

// handleGetDevice returns one lock, fetched fresh.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleLock locks a device. 409 if it is already locked.
func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, sesame.IntentLock)
}

// handleUnlock unlocks a device. 409 if it is already unlocked.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, sesame.IntentUnlock)
}

func (s *Server) control(w http.ResponseWriter, r *http.Request, intent sesame.ControlIntent) {
	var user string
	if claims := claimsFromContext(r.Context()); claims != nil {
		user = claims.Subject
	}

	st, err := s.service.Control(r.Context(), chi.URLParam(r, "id"), intent, lockservice.SourceAPI, user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleHistory returns the audit trail of one device, newest first.
// Query: ?limit=N (default 50, max 200).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	res, err := s.service.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
