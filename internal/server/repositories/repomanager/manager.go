package repomanager

import (
	"context"
	"database/sql"

	"github.com/beamit-app/beamit-server/internal/server/repositories/devices"
	"github.com/beamit-app/beamit-server/internal/server/repositories/shares"
	"github.com/beamit-app/beamit-server/internal/server/repositories/users"
)

type RepositoryManager interface {
	// Bootstrap verifies schema integrity and brings the schema up to
	// date. A fresh database gets the full schema; a database with only
	// some of the expected tables is reported as corrupt.
	Bootstrap(ctx context.Context) error

	Conn() *sql.DB
	Users() users.Repository
	Devices() devices.Repository
	Shares() shares.Repository
	Close() error
}
