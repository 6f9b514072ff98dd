package devices

import "context"

type Repository interface {
	UpsertToken(ctx context.Context, username, deviceName, token string) error
	GetToken(ctx context.Context, username, deviceName string) (string, error)
	Rename(ctx context.Context, username, oldName, newName string) error
	Delete(ctx context.Context, username, deviceName string) error
	List(ctx context.Context, username string) ([]string, error)
	Exists(ctx context.Context, username, deviceName string) (bool, error)
}
