// Package shares provides the PostgreSQL-backed repository for fan-out
// shares, including the serialized consume operation.
package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/dbx"
	"github.com/beamit-app/beamit-server/internal/server/models"
)

const uniqueViolation = "23505"

// pgMap converts PostgreSQL text-format arrays when scanning through
// database/sql. Safe for concurrent use.
var pgMap = pgtype.NewMap()

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, share *models.Share) error {
	query := `
		INSERT INTO shares (username, created_at, target_devices, data_type, data, auto_open, encrypted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		share.Username, share.Timestamp, share.TargetDevices,
		share.DataType, share.Data, share.AutoOpen, share.Encrypted)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListPending(ctx context.Context, username, deviceName string) ([]*models.Share, error) {
	query := `
		SELECT username, created_at, target_devices, data_type, data, auto_open, encrypted
		FROM shares
		WHERE username = $1 AND $2 = ANY(target_devices)
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, username, deviceName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Share{}
	for rows.Next() {
		s := &models.Share{}
		err := rows.Scan(&s.Username, &s.Timestamp, pgMap.SQLScanner(&s.TargetDevices),
			&s.DataType, &s.Data, &s.AutoOpen, &s.Encrypted)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Consume locks the share row, removes deviceName from the pending set
// and either persists the shrunk set or deletes the row when the set
// empties. The row lock serializes concurrent consumers of the same
// share across service instances; a consumer that waited on the lock
// re-reads the row state left by the previous one.
func (r *PostgresRepository) Consume(ctx context.Context, username, deviceName string, timestamp time.Time) (*models.Share, error) {
	var snapshot *models.Share

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `
			SELECT username, created_at, target_devices, data_type, data, auto_open, encrypted
			FROM shares
			WHERE username = $1 AND created_at = $2
			FOR UPDATE
		`
		s := &models.Share{}
		err := tx.QueryRowContext(ctx, query, username, timestamp).
			Scan(&s.Username, &s.Timestamp, pgMap.SQLScanner(&s.TargetDevices),
				&s.DataType, &s.Data, &s.AutoOpen, &s.Encrypted)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		if !slices.Contains(s.TargetDevices, deviceName) {
			return common.ErrNotTargeted
		}

		if len(s.TargetDevices) == 1 {
			// Last pending target: the share must not outlive an empty set.
			del := `
				DELETE FROM shares
				WHERE username = $1 AND created_at = $2
			`
			if _, err := tx.ExecContext(ctx, del, username, timestamp); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		} else {
			upd := `
				UPDATE shares
				SET target_devices = array_remove(target_devices, $3)
				WHERE username = $1 AND created_at = $2
			`
			if _, err := tx.ExecContext(ctx, upd, username, timestamp, deviceName); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}

		snapshot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
