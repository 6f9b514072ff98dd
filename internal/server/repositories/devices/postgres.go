// Package devices provides the PostgreSQL-backed repository for the
// device registry and device token storage.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/beamit-app/beamit-server/internal/common"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertToken stores token for (username, deviceName), overwriting any
// existing token in a single statement. The old token stops validating
// atomically with the new one being stored.
func (r *PostgresRepository) UpsertToken(ctx context.Context, username, deviceName, token string) error {
	query := `
		INSERT INTO devices (username, device_name, token)
		VALUES ($1, $2, $3)
		ON CONFLICT (username, device_name) DO UPDATE SET token = EXCLUDED.token
	`
	if _, err := r.db.ExecContext(ctx, query, username, deviceName, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetToken(ctx context.Context, username, deviceName string) (string, error) {
	query := `
		SELECT token
		FROM devices
		WHERE username = $1 AND device_name = $2
	`
	var token string
	err := r.db.QueryRowContext(ctx, query, username, deviceName).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Rename changes the device name. It returns common.ErrAlreadyExists if
// newName is already taken (primary key violation) and common.ErrNotFound
// if oldName does not exist.
func (r *PostgresRepository) Rename(ctx context.Context, username, oldName, newName string) error {
	query := `
		UPDATE devices
		SET device_name = $3
		WHERE username = $1 AND device_name = $2
	`
	res, err := r.db.ExecContext(ctx, query, username, oldName, newName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the device row. Shares that still list the name as a
// pending target are intentionally left untouched.
func (r *PostgresRepository) Delete(ctx context.Context, username, deviceName string) error {
	query := `
		DELETE FROM devices
		WHERE username = $1 AND device_name = $2
	`
	res, err := r.db.ExecContext(ctx, query, username, deviceName)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// List returns the user's device names in insertion order.
func (r *PostgresRepository) List(ctx context.Context, username string) ([]string, error) {
	query := `
		SELECT device_name
		FROM devices
		WHERE username = $1
		ORDER BY created_at, device_name
	`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return names, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, username, deviceName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM devices WHERE username = $1 AND device_name = $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, deviceName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
