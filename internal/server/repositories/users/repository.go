package users

import (
	"context"

	"github.com/beamit-app/beamit-server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Delete(ctx context.Context, username string) error
}
