package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return l
}

func TestLocal_SaveOpenRemove(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "alice", "notes.txt", strings.NewReader("payload bytes")))

	rc, err := l.Open(ctx, "alice", "notes.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload bytes", string(data))

	require.NoError(t, l.Remove(ctx, "alice", "notes.txt"))
	_, err = l.Open(ctx, "alice", "notes.txt")
	assert.Error(t, err)
}

func TestLocal_SaveStripsDirectoryComponents(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "alice", "../../etc/passwd", strings.NewReader("x")))

	// the payload must land inside alice's folder under its base name
	_, err := os.Stat(filepath.Join(l.baseDir, "alice", "passwd"))
	assert.NoError(t, err)
}

func TestLocal_RemoveUser(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "alice", "a.txt", strings.NewReader("a")))
	require.NoError(t, l.Save(ctx, "alice", "b.txt", strings.NewReader("b")))

	require.NoError(t, l.RemoveUser(ctx, "alice"))

	_, err := os.Stat(filepath.Join(l.baseDir, "alice"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocal_SaveLeavesNoStagingFileOnSuccess(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "alice", "c.txt", strings.NewReader("c")))

	entries, err := os.ReadDir(filepath.Join(l.baseDir, "alice"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "c.txt", entries[0].Name())
}
