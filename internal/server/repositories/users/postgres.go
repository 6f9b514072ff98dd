// Package users provides the PostgreSQL-backed repository for user
// accounts and their stored password credentials.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user row. A duplicate username yields
// common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, password_salt)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.PasswordSalt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT username, password_hash, password_salt
		FROM users
		WHERE username = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.PasswordHash, &user.PasswordSalt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Delete removes the user row. Devices and shares owned by the user are
// removed by the ON DELETE CASCADE constraints in the same statement.
func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	query := `
		DELETE FROM users
		WHERE username = $1
	`
	res, err := r.db.ExecContext(ctx, query, username)
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
