// Package httpapi is the HTTP transport: a chi router over the account,
// device, and share services, speaking JSON (multipart for file upload)
// with a {message, success} envelope.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beamit-app/beamit-server/internal/logging"
	"github.com/beamit-app/beamit-server/internal/server/filestore"
	"github.com/beamit-app/beamit-server/internal/server/models"
)

// UserAPI is the account lifecycle surface the transport calls.
type UserAPI interface {
	Register(ctx context.Context, username, password string) error
	Unregister(ctx context.Context, username string) error
	Login(ctx context.Context, username, password, deviceName string) (string, error)
}

// DeviceAPI is the device registry surface, including the token gate.
type DeviceAPI interface {
	Authenticate(ctx context.Context, username, deviceName, token string) (bool, error)
	List(ctx context.Context, username string) ([]string, error)
	Rename(ctx context.Context, username, oldName, newName string) error
	Remove(ctx context.Context, username, deviceName string) error
}

// ShareAPI is the fan-out mailbox surface.
type ShareAPI interface {
	CreateFileShare(ctx context.Context, username string, targets []string, filename string, autoOpen, encrypted bool) (*models.ShareID, error)
	CreateTextShare(ctx context.Context, username string, targets []string, text string, autoOpen, encrypted bool) (*models.ShareID, error)
	CreateURLShare(ctx context.Context, username string, targets []string, url string, autoOpen, encrypted bool) (*models.ShareID, error)
	ListPending(ctx context.Context, username, deviceName string) ([]*models.Share, error)
	Consume(ctx context.Context, username, deviceName string, timestamp time.Time) (*models.Share, error)
}

type Server struct {
	users   UserAPI
	devices DeviceAPI
	shares  ShareAPI
	files   filestore.Store
	log     logging.Logger
}

func NewServer(users UserAPI, devices DeviceAPI, shares ShareAPI, files filestore.Store, log logging.Logger) *Server {
	return &Server{users: users, devices: devices, shares: shares, files: files, log: log}
}

// Router builds the route tree. Register and login are open — they are
// where credentials come from. Everything else requires the
// (username, devicename, token) triple.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.requestLogger)

	r.Post("/user/register", s.handleRegister)
	r.Post("/user/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireDevice)

		r.Post("/user/unregister", s.handleUnregister)
		r.Get("/device/list", s.handleDeviceList)
		r.Post("/device/rename", s.handleDeviceRename)
		r.Post("/device/remove", s.handleDeviceRemove)

		r.Post("/share/send", s.handleShareSend)
		r.Get("/share/pending", s.handleSharePending)
		r.Post("/share/receive", s.handleShareReceive)
	})

	return r
}
