package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/beamit-app/beamit-server/internal/common"
)

func (s *Server) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	names, err := s.devices.List(r.Context(), id.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "device list", map[string]any{"devices": names})
}

type renameRequest struct {
	DeviceName string `json:"devicename"`
	NewName    string `json:"newname"`
}

// handleDeviceRename renames a device of the authenticated user. An
// empty devicename means the calling device renames itself.
func (s *Server) handleDeviceRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	id := identityFrom(r.Context())
	oldName := req.DeviceName
	if oldName == "" {
		oldName = id.DeviceName
	}

	if err := s.devices.Rename(r.Context(), id.Username, oldName, req.NewName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "device renamed", nil)
}

type removeRequest struct {
	DeviceName string `json:"devicename"`
}

func (s *Server) handleDeviceRemove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	id := identityFrom(r.Context())
	deviceName := req.DeviceName
	if deviceName == "" {
		deviceName = id.DeviceName
	}

	if err := s.devices.Remove(r.Context(), id.Username, deviceName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "device removed", nil)
}
