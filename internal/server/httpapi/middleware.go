package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/beamit-app/beamit-server/internal/common"
)

// Credential headers. The token travels as a standard bearer token; the
// username and device name identify which stored token it must match.
const (
	headerUsername = "X-Beamit-Username"
	headerDevice   = "X-Beamit-Device"
)

type contextKey string

const identityKey contextKey = "identity"

// identity is the authenticated (username, deviceName) pair set by
// requireDevice.
type identity struct {
	Username   string
	DeviceName string
}

func identityFrom(ctx context.Context) identity {
	id, _ := ctx.Value(identityKey).(identity)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.log.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// requireDevice gates a route on the (username, devicename, token)
// triple. The rejection is the same generic message whatever part of the
// triple was wrong.
func (s *Server) requireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get(headerUsername)
		deviceName := r.Header.Get(headerDevice)
		token := bearerToken(r)

		if username == "" || deviceName == "" || token == "" {
			s.writeError(w, r, common.ErrAuthFailure)
			return
		}

		ok, err := s.devices.Authenticate(r.Context(), username, deviceName, token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !ok {
			s.writeError(w, r, common.ErrAuthFailure)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity{Username: username, DeviceName: deviceName})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
