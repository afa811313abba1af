package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest          = "bad_request"
	ErrCodeNotFound            = "not_found"
	ErrCodeUnauthorized        = "unauthorised"
	ErrCodeForbidden           = "forbidden"
	ErrCodeConflict            = "conflict"
	ErrCodeInternal            = "internal_error"
	ErrCodeNotLoggedIn         = "bridge_not_logged_in"
	ErrCodeRemoteRejected      = "remote_rejected"
	ErrCodeUpstreamProtocol    = "upstream_protocol_error"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeServiceError maps a lock service error to an HTTP response.
//
// Server rejections keep the Sesame message verbatim; guard refusals keep the
// transition text ("... already locked").
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sesame.ErrInvalidDeviceID), errors.Is(err, sesame.ErrInvalidIntent):
		writeBadRequest(w, err.Error())
	case errors.Is(err, sesame.ErrNotAuthenticated):
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotLoggedIn, "bridge is not logged in to the Sesame cloud")
	case errors.Is(err, sesame.ErrInvalidTransition):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, sesame.ErrRemoteRejected):
		writeError(w, http.StatusBadGateway, ErrCodeRemoteRejected, err.Error())
	case errors.Is(err, sesame.ErrProtocol):
		writeError(w, http.StatusBadGateway, ErrCodeUpstreamProtocol, "unexpected response from the Sesame cloud")
	case errors.Is(err, sesame.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrCodeUpstreamUnavailable, "Sesame cloud unreachable")
	default:
		s.logger.Error("lock service error",
			"error", err,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
	}
}
