package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Local keeps payloads under baseDir/<username>/<filename>.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir}, nil
}

// userPath resolves a payload path. filepath.Base strips any directory
// components a client may have smuggled into the filename.
func (l *Local) userPath(username, filename string) string {
	return filepath.Join(l.baseDir, username, filepath.Base(filename))
}

func (l *Local) EnsureUser(_ context.Context, username string) error {
	dir := filepath.Join(l.baseDir, username)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

func (l *Local) RemoveUser(_ context.Context, username string) error {
	dir := filepath.Join(l.baseDir, username)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// Save writes to a uniquely named staging file first and renames it into
// place, so a failed upload never leaves a truncated payload behind.
func (l *Local) Save(ctx context.Context, username, filename string, r io.Reader) error {
	if err := l.EnsureUser(ctx, username); err != nil {
		return err
	}

	dest := l.userPath(username, filename)
	staging := dest + ".upload-" + uuid.NewString()

	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return fmt.Errorf("create %s: %w", staging, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(staging)
		return fmt.Errorf("write %s: %w", staging, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(staging)
		return fmt.Errorf("close %s: %w", staging, err)
	}

	if err := os.Rename(staging, dest); err != nil {
		os.Remove(staging)
		return fmt.Errorf("rename %s: %w", dest, err)
	}
	return nil
}

func (l *Local) Open(_ context.Context, username, filename string) (io.ReadCloser, error) {
	f, err := os.Open(l.userPath(username, filename))
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	return f, nil
}

func (l *Local) Remove(_ context.Context, username, filename string) error {
	if err := os.Remove(l.userPath(username, filename)); err != nil {
		return fmt.Errorf("remove payload: %w", err)
	}
	return nil
}
