// Package server initializes and runs the application: it bootstraps the
// database schema, selects the payload file store, wires the services to
// the HTTP transport, and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/beamit-app/beamit-server/internal/logging"
	"github.com/beamit-app/beamit-server/internal/server/config"
	"github.com/beamit-app/beamit-server/internal/server/filestore"
	"github.com/beamit-app/beamit-server/internal/server/httpapi"
	"github.com/beamit-app/beamit-server/internal/server/repositories/repomanager"
	"github.com/beamit-app/beamit-server/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	api    *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})
	logger := logging.NewSlogLogger(slog.New(handler))

	repos, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("db bootstrap error: %w", err)
	}

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("file store init error: %w", err)
	}

	us := services.NewUserService(repos.Users(), repos.Devices(), files)
	ds := services.NewDeviceService(repos.Devices())
	ss := services.NewShareService(repos.Shares(), repos.Devices())

	api := httpapi.NewServer(us, ds, ss, files, logger)

	return &App{config: cfg, logger: logger, repos: repos, api: api}, nil
}

func newFileStore(ctx context.Context, cfg *config.Config) (filestore.Store, error) {
	switch cfg.FileStoreBackend {
	case config.FileStoreLocal:
		return filestore.NewLocal(cfg.FileStoreDir)
	case config.FileStoreS3:
		return filestore.NewS3(ctx, filestore.S3Options{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return nil, fmt.Errorf("unknown file store backend %q", cfg.FileStoreBackend)
}

func parseLogLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or an OS signal arrives, then
// drains in-flight requests within the configured grace period.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	return nil
}
