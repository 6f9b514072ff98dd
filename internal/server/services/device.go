package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/cryptox"
	devicesrepo "github.com/beamit-app/beamit-server/internal/server/repositories/devices"
)

// DeviceService is the device registry plus the auth gate that every
// mailbox and registry mutation passes through.
type DeviceService struct {
	devices devicesrepo.Repository
}

func NewDeviceService(devices devicesrepo.Repository) *DeviceService {
	return &DeviceService{devices: devices}
}

// Authenticate reports whether a device row exists with exactly the
// (username, deviceName, token) triple. There is no session state and no
// expiry: validity is purely "does the stored token match", which makes
// revocation-by-overwrite immediate. A leaked token stays valid until the
// device logs in again or is removed; that is the trust model, not a bug.
func (s *DeviceService) Authenticate(ctx context.Context, username, deviceName, token string) (bool, error) {
	stored, err := s.devices.GetToken(ctx, username, deviceName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error fetching device token: %w", err)
	}
	return cryptox.TokenEqual(stored, token), nil
}

// List returns the user's device names in insertion order. The order is
// not guaranteed stable across renames.
func (s *DeviceService) List(ctx context.Context, username string) ([]string, error) {
	names, err := s.devices.List(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error listing devices: %w", err)
	}
	return names, nil
}

// Rename gives a device a new name. Unlike login, which silently
// replaces, rename rejects a new name that is already taken.
func (s *DeviceService) Rename(ctx context.Context, username, oldName, newName string) error {
	if err := validateDeviceName(newName); err != nil {
		return err
	}
	err := s.devices.Rename(ctx, username, oldName, newName)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyExists):
			return fmt.Errorf("%w: device %q already exists", common.ErrAlreadyExists, newName)
		case errors.Is(err, common.ErrNotFound):
			return fmt.Errorf("%w: device does not exist", common.ErrNotFound)
		}
		return fmt.Errorf("error renaming device: %w", err)
	}
	return nil
}

// Remove deletes a device. Shares that still list the removed name keep
// it as a stale pending target; they stay consumable by their remaining
// targets.
func (s *DeviceService) Remove(ctx context.Context, username, deviceName string) error {
	err := s.devices.Delete(ctx, username, deviceName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: device does not exist", common.ErrNotFound)
		}
		return fmt.Errorf("error removing device: %w", err)
	}
	return nil
}
