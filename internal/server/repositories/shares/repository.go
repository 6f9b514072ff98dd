package shares

import (
	"context"
	"time"

	"github.com/beamit-app/beamit-server/internal/server/models"
)

type Repository interface {
	// Create inserts the share as a single atomic insert. A timestamp
	// collision for the same user yields common.ErrAlreadyExists so the
	// caller can retry with a fresh timestamp.
	Create(ctx context.Context, share *models.Share) error

	// ListPending returns every share owned by username whose pending
	// target set currently contains deviceName. Read-only.
	ListPending(ctx context.Context, username, deviceName string) ([]*models.Share, error)

	// Consume removes deviceName from the share's pending target set and
	// deletes the row when the set empties, all in one serialized
	// operation per share key. It returns the pre-mutation snapshot.
	// Errors: common.ErrNotFound, common.ErrNotTargeted.
	Consume(ctx context.Context, username, deviceName string, timestamp time.Time) (*models.Share, error)
}
