package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/server/models"
	"github.com/beamit-app/beamit-server/internal/server/services"
)

const maxUploadMemory = 32 << 20 // 32 MiB before multipart spills to disk

// targetList accepts either a JSON array of device names or the legacy
// brace-delimited string form "{phone, laptop}".
type targetList []string

func (t *targetList) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = parseTargetList(s)
		return nil
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*t = names
	return nil
}

func parseTargetList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

type sendRequest struct {
	Targets   targetList `json:"targets"`
	Text      string     `json:"text"`
	URL       string     `json:"url"`
	AutoOpen  bool       `json:"autoOpen"`
	Encrypted bool       `json:"encrypted"`
}

// handleShareSend creates a fan-out item. A multipart request carries a
// file payload; a JSON request carries exactly one of text or url.
func (s *Server) handleShareSend(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.handleFileSend(w, r)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}
	if (req.Text == "") == (req.URL == "") {
		s.writeError(w, r, fmt.Errorf("%w: exactly one of text or url must be set", common.ErrValidation))
		return
	}

	id := identityFrom(r.Context())
	var (
		shareID *models.ShareID
		err     error
	)
	if req.Text != "" {
		shareID, err = s.shares.CreateTextShare(r.Context(), id.Username, req.Targets, req.Text, req.AutoOpen, req.Encrypted)
	} else {
		shareID, err = s.shares.CreateURLShare(r.Context(), id.Username, req.Targets, req.URL, req.AutoOpen, req.Encrypted)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "share created", shareID)
}

func (s *Server) handleFileSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid multipart body", common.ErrValidation))
		return
	}

	targets := parseTargetList(r.FormValue("targets"))
	autoOpen, _ := strconv.ParseBool(r.FormValue("autoOpen"))
	encrypted, _ := strconv.ParseBool(r.FormValue("encrypted"))

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: missing file part", common.ErrValidation))
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		s.writeError(w, r, fmt.Errorf("%w: invalid filename", common.ErrValidation))
		return
	}

	id := identityFrom(r.Context())
	if err := s.files.Save(r.Context(), id.Username, filename, file); err != nil {
		s.writeError(w, r, fmt.Errorf("error storing payload: %w", err))
		return
	}

	shareID, err := s.shares.CreateFileShare(r.Context(), id.Username, targets, filename, autoOpen, encrypted)
	if err != nil {
		// The share never existed, so the payload must not linger.
		if rmErr := s.files.Remove(r.Context(), id.Username, filename); rmErr != nil {
			s.log.Warn(r.Context(), "error removing orphaned payload", "filename", filename, "error", rmErr)
		}
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "share created", shareID)
}

func (s *Server) handleSharePending(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	pending, err := s.shares.ListPending(r.Context(), id.Username, id.DeviceName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, "pending shares", map[string]any{"shares": pending})
}

type receiveRequest struct {
	Timestamp time.Time `json:"timestamp"`
}

// handleShareReceive consumes the share for the calling device. Text and
// url payloads come back in the JSON envelope; a file payload is streamed
// as an attachment with the share metadata in response headers. When the
// last target consumes a file share the stored payload is reclaimed.
func (s *Server) handleShareReceive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	id := identityFrom(r.Context())
	snap, err := s.shares.Consume(r.Context(), id.Username, id.DeviceName, req.Timestamp)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	remaining := services.Remaining(snap, id.DeviceName)

	if snap.DataType != models.DataTypeFile {
		s.writeOK(w, "share received", map[string]any{"share": snap, "remaining": remaining})
		return
	}

	rc, err := s.files.Open(r.Context(), id.Username, snap.Data)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("error opening payload: %w", err))
		return
	}
	defer rc.Close()

	if remaining == 0 {
		defer s.reclaimPayload(id.Username, snap.Data)
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snap.Data))
	w.Header().Set("X-Beamit-Auto-Open", strconv.FormatBool(snap.AutoOpen))
	w.Header().Set("X-Beamit-Encrypted", strconv.FormatBool(snap.Encrypted))
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn(r.Context(), "error streaming payload", "filename", snap.Data, "error", err)
	}
}

// reclaimPayload deletes a fully consumed file payload in the background.
// The request context is already done by then, so it gets its own.
func (s *Server) reclaimPayload(username, filename string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.files.Remove(ctx, username, filename); err != nil {
			s.log.Warn(ctx, "error reclaiming payload", "username", username, "filename", filename, "error", err)
		}
	}()
}
