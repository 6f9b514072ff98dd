package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/server/models"
	devicesrepo "github.com/beamit-app/beamit-server/internal/server/repositories/devices"
	sharesrepo "github.com/beamit-app/beamit-server/internal/server/repositories/shares"
)

// Share creation timestamps are truncated to the storage resolution; on
// a per-user collision the insert is retried with a fresh timestamp.
const (
	timestampResolution = time.Microsecond
	createMaxRetries    = 5
	createRetryDelay    = 50 * time.Microsecond
)

// ShareService is the fan-out mailbox engine. A share addresses a set of
// the sender's devices; each target consumes it exactly once and the
// share is reclaimed the moment the last target consumes it.
type ShareService struct {
	shares  sharesrepo.Repository
	devices devicesrepo.Repository
	now     func() time.Time
}

func NewShareService(shares sharesrepo.Repository, devices devicesrepo.Repository) *ShareService {
	return &ShareService{shares: shares, devices: devices, now: time.Now}
}

// CreateFileShare records a fan-out item whose payload is a stored file,
// referenced by name.
func (s *ShareService) CreateFileShare(ctx context.Context, username string, targets []string, filename string, autoOpen, encrypted bool) (*models.ShareID, error) {
	return s.create(ctx, username, targets, models.DataTypeFile, filename, autoOpen, encrypted)
}

// CreateTextShare records a fan-out item carrying literal text.
func (s *ShareService) CreateTextShare(ctx context.Context, username string, targets []string, text string, autoOpen, encrypted bool) (*models.ShareID, error) {
	return s.create(ctx, username, targets, models.DataTypeText, text, autoOpen, encrypted)
}

// CreateURLShare records a fan-out item carrying a URL.
func (s *ShareService) CreateURLShare(ctx context.Context, username string, targets []string, url string, autoOpen, encrypted bool) (*models.ShareID, error) {
	return s.create(ctx, username, targets, models.DataTypeURL, url, autoOpen, encrypted)
}

func (s *ShareService) create(ctx context.Context, username string, targets []string, dataType, data string, autoOpen, encrypted bool) (*models.ShareID, error) {
	set := dedupe(targets)
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: share must address at least one device", common.ErrValidation)
	}

	// Every target must be a currently registered device of the sender.
	// The stored set is a frozen snapshot: membership is not re-checked
	// against the registry at consumption time.
	for _, target := range set {
		exists, err := s.devices.Exists(ctx, username, target)
		if err != nil {
			return nil, fmt.Errorf("error checking device: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: device %q does not exist", common.ErrNotFound, target)
		}
	}

	var id models.ShareID
	backoff := retry.WithMaxRetries(createMaxRetries, retry.NewConstant(createRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		share := &models.Share{
			Username:      username,
			Timestamp:     s.now().UTC().Truncate(timestampResolution),
			TargetDevices: set,
			DataType:      dataType,
			Data:          data,
			AutoOpen:      autoOpen,
			Encrypted:     encrypted,
		}
		err := s.shares.Create(ctx, share)
		if errors.Is(err, common.ErrAlreadyExists) {
			// Two shares landed on the same clock tick; try a later one.
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		id = share.ID()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error creating share: %w", err)
	}
	return &id, nil
}

// ListPending returns every pending share of username addressed to
// deviceName. Browsing does not count as consumption.
func (s *ShareService) ListPending(ctx context.Context, username, deviceName string) ([]*models.Share, error) {
	pending, err := s.shares.ListPending(ctx, username, deviceName)
	if err != nil {
		return nil, fmt.Errorf("error listing shares: %w", err)
	}
	return pending, nil
}

// Consume removes deviceName from the share's pending set and returns the
// pre-mutation snapshot. Consuming the last target also deletes the
// share; a later consume of the same share yields common.ErrNotFound.
func (s *ShareService) Consume(ctx context.Context, username, deviceName string, timestamp time.Time) (*models.Share, error) {
	share, err := s.shares.Consume(ctx, username, deviceName, timestamp)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrNotTargeted):
			return nil, err
		}
		return nil, fmt.Errorf("error consuming share: %w", err)
	}
	return share, nil
}

// Remaining reports how many targets are still owed a copy after
// deviceName's consumption of snapshot.
func Remaining(snapshot *models.Share, deviceName string) int {
	n := len(snapshot.TargetDevices)
	if slices.Contains(snapshot.TargetDevices, deviceName) {
		n--
	}
	return n
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
