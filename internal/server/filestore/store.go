// Package filestore stores the payload bytes of file shares. The mailbox
// core only keeps the filename; the bytes live here, either on local disk
// or in an S3-compatible bucket.
package filestore

import (
	"context"
	"io"
)

type Store interface {
	// EnsureUser prepares per-user storage (a folder on disk). Called on
	// registration.
	EnsureUser(ctx context.Context, username string) error

	// RemoveUser deletes all stored payloads of the user. Called on
	// unregistration.
	RemoveUser(ctx context.Context, username string) error

	Save(ctx context.Context, username, filename string, r io.Reader) error
	Open(ctx context.Context, username, filename string) (io.ReadCloser, error)
	Remove(ctx context.Context, username, filename string) error
}
