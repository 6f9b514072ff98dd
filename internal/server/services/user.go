package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/cryptox"
	"github.com/beamit-app/beamit-server/internal/server/filestore"
	"github.com/beamit-app/beamit-server/internal/server/models"
	devicesrepo "github.com/beamit-app/beamit-server/internal/server/repositories/devices"
	usersrepo "github.com/beamit-app/beamit-server/internal/server/repositories/users"
)

// UserService handles registration, unregistration, and password login.
// Login doubles as device enrollment: a successful login issues a fresh
// device token and registers (or re-registers) the device under it.
type UserService struct {
	users   usersrepo.Repository
	devices devicesrepo.Repository
	files   filestore.Store
}

func NewUserService(users usersrepo.Repository, devices devicesrepo.Repository, files filestore.Store) *UserService {
	return &UserService{users: users, devices: devices, files: files}
}

// Register creates a new account and its payload folder.
func (s *UserService) Register(ctx context.Context, username, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", common.ErrValidation)
	}

	salt, hash := cryptox.HashPassword(password)
	user := &models.User{Username: username, PasswordHash: hash, PasswordSalt: salt}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return fmt.Errorf("%w: user already exists", common.ErrAlreadyExists)
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	if err := s.files.EnsureUser(ctx, username); err != nil {
		return fmt.Errorf("error preparing user storage: %w", err)
	}
	return nil
}

// Unregister deletes the account. Devices and shares go with it through
// the storage-level cascade; stored payload bytes are removed here.
func (s *UserService) Unregister(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		return fmt.Errorf("error removing user: %w", err)
	}
	if err := s.files.RemoveUser(ctx, username); err != nil {
		return fmt.Errorf("error removing user storage: %w", err)
	}
	return nil
}

// Login verifies the password and, on success, issues a fresh token for
// deviceName, atomically replacing any previous one. The failure is the
// same generic common.ErrAuthFailure whether the user is unknown or the
// password is wrong.
func (s *UserService) Login(ctx context.Context, username, password, deviceName string) (string, error) {
	if err := validateDeviceName(deviceName); err != nil {
		return "", err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrAuthFailure
		}
		return "", fmt.Errorf("error fetching user: %w", err)
	}
	if !cryptox.VerifyPassword(user.PasswordSalt, user.PasswordHash, password) {
		return "", common.ErrAuthFailure
	}

	token := cryptox.NewDeviceToken()
	if err := s.devices.UpsertToken(ctx, username, deviceName, token); err != nil {
		return "", fmt.Errorf("error storing device token: %w", err)
	}
	return token, nil
}
