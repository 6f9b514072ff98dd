package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/beamit-app/beamit-server/internal/common"
)

// envelope is the wire shape of every JSON response.
type envelope struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) writeOK(w http.ResponseWriter, message string, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Message: message, Success: true, Data: data})
}

// writeError maps the service error taxonomy onto HTTP statuses. Internal
// failures are reported with a generic message so storage details never
// reach the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, common.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrNotTargeted):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, common.ErrAuthFailure):
		status, message = http.StatusUnauthorized, common.ErrAuthFailure.Error()
	default:
		s.log.Error(r.Context(), "request failed", "error", err)
	}

	s.writeJSON(w, status, envelope{Message: message, Success: false})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error(context.Background(), "error encoding response", "error", err)
	}
}
