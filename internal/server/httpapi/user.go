package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/beamit-app/beamit-server/internal/common"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	if err := s.users.Register(r.Context(), req.Username, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "user registered", nil)
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceName string `json:"devicename"`
}

type loginResponse struct {
	Username   string `json:"username"`
	DeviceName string `json:"devicename"`
	Token      string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password, req.DeviceName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "login successful", loginResponse{
		Username:   req.Username,
		DeviceName: req.DeviceName,
		Token:      token,
	})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	if err := s.users.Unregister(r.Context(), id.Username); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "user removed", nil)
}
