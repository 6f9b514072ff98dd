package services

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/cryptox"
)

type nopStore struct{}

func (nopStore) EnsureUser(context.Context, string) error          { return nil }
func (nopStore) RemoveUser(context.Context, string) error          { return nil }
func (nopStore) Save(context.Context, string, string, io.Reader) error { return nil }
func (nopStore) Open(context.Context, string, string) (io.ReadCloser, error) {
	return nil, os.ErrNotExist
}
func (nopStore) Remove(context.Context, string, string) error { return nil }

func newUserService() (*UserService, *memUsers, *memDevices) {
	users := newMemUsers()
	devices := newMemDevices()
	return NewUserService(users, devices, nopStore{}), users, devices
}

func TestRegister_StoresVerifiableCredentials(t *testing.T) {
	s, users, _ := newUserService()
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "hunter22"))

	stored, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, cryptox.VerifyPassword(stored.PasswordSalt, stored.PasswordHash, "hunter22"))
	assert.False(t, cryptox.VerifyPassword(stored.PasswordSalt, stored.PasswordHash, "hunter23"))
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newUserService()
	ctx := context.Background()

	for _, username := range []string{"abc", "", "way-too-long-username-x", "bad name", "ümlaut"} {
		err := s.Register(ctx, username, "pw")
		assert.ErrorIs(t, err, common.ErrValidation, "username %q", username)
	}

	assert.ErrorIs(t, s.Register(ctx, "alice", ""), common.ErrValidation)
}

func TestRegister_Duplicate(t *testing.T) {
	s, _, _ := newUserService()
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))
	assert.ErrorIs(t, s.Register(ctx, "alice", "pw"), common.ErrAlreadyExists)
}

func TestLogin_IssuesDeviceToken(t *testing.T) {
	s, _, devices := newUserService()
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))

	token, err := s.Login(ctx, "alice", "pw", "phone")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	stored, err := devices.GetToken(ctx, "alice", "phone")
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestLogin_GenericFailure(t *testing.T) {
	s, _, _ := newUserService()
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))

	// wrong password and unknown user yield the same error
	_, errWrongPw := s.Login(ctx, "alice", "nope", "phone")
	_, errNoUser := s.Login(ctx, "ghost", "pw", "phone")
	assert.ErrorIs(t, errWrongPw, common.ErrAuthFailure)
	assert.ErrorIs(t, errNoUser, common.ErrAuthFailure)
	assert.Equal(t, errWrongPw.Error(), errNoUser.Error())
}

func TestLogin_ReplacesToken(t *testing.T) {
	s, _, devices := newUserService()
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))

	first, err := s.Login(ctx, "alice", "pw", "phone")
	require.NoError(t, err)
	second, err := s.Login(ctx, "alice", "pw", "phone")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// only the latest token validates
	gate := NewDeviceService(devices)
	ok, err := gate.Authenticate(ctx, "alice", "phone", first)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = gate.Authenticate(ctx, "alice", "phone", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnregister(t *testing.T) {
	s, users, _ := newUserService()
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))
	require.NoError(t, s.Unregister(ctx, "alice"))

	_, err := users.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, s.Unregister(ctx, "alice"), common.ErrNotFound)
}
