// Package repomanager wires the PostgreSQL repositories to one shared
// connection pool and owns schema bootstrap.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/server/migrations"
	"github.com/beamit-app/beamit-server/internal/server/repositories/devices"
	"github.com/beamit-app/beamit-server/internal/server/repositories/shares"
	"github.com/beamit-app/beamit-server/internal/server/repositories/users"
)

// expectedTables are the tables the schema is made of. Startup fails if
// only a strict subset of them exists.
var expectedTables = []string{"users", "devices", "shares"}

type PostgresRepositoryManager struct {
	db      *sql.DB
	users   users.Repository
	devices devices.Repository
	shares  shares.Repository
}

func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	return &PostgresRepositoryManager{
		db:      db,
		users:   users.NewPostgresRepository(db),
		devices: devices.NewPostgresRepository(db),
		shares:  shares.NewPostgresRepository(db),
	}, nil
}

func (m *PostgresRepositoryManager) Conn() *sql.DB             { return m.db }
func (m *PostgresRepositoryManager) Users() users.Repository   { return m.users }
func (m *PostgresRepositoryManager) Devices() devices.Repository {
	return m.devices
}
func (m *PostgresRepositoryManager) Shares() shares.Repository { return m.shares }
func (m *PostgresRepositoryManager) Close() error              { return m.db.Close() }

func (m *PostgresRepositoryManager) Bootstrap(ctx context.Context) error {
	existing, err := m.countExistingTables(ctx)
	if err != nil {
		return fmt.Errorf("schema check error: %w", err)
	}
	if existing != 0 && existing != len(expectedTables) {
		return common.ErrStorageCorrupt
	}
	return m.runMigrations(ctx)
}

func (m *PostgresRepositoryManager) countExistingTables(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = ANY($1)
	`
	var n int
	if err := m.db.QueryRowContext(ctx, query, expectedTables).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (m *PostgresRepositoryManager) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, ".")
}
