package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/beamit-app/beamit-server/internal/common"
	"github.com/beamit-app/beamit-server/internal/server/models"
)

// In-memory repository fakes. memShares serializes mutations per share
// key with one lock, matching the contract the Postgres repository
// provides with its row lock.

type memUsers struct {
	mu   sync.Mutex
	rows map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[string]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[user.Username]; ok {
		return common.ErrAlreadyExists
	}
	u := *user
	m.rows[user.Username] = &u
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) Delete(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[username]; !ok {
		return common.ErrNotFound
	}
	delete(m.rows, username)
	return nil
}

type memDevices struct {
	mu     sync.Mutex
	tokens map[string]string // username|deviceName -> token
	order  []string
}

func newMemDevices() *memDevices {
	return &memDevices{tokens: map[string]string{}}
}

func devKey(username, deviceName string) string { return username + "|" + deviceName }

func (m *memDevices) UpsertToken(_ context.Context, username, deviceName, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := devKey(username, deviceName)
	if _, ok := m.tokens[k]; !ok {
		m.order = append(m.order, k)
	}
	m.tokens[k] = token
	return nil
}

func (m *memDevices) GetToken(_ context.Context, username, deviceName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[devKey(username, deviceName)]
	if !ok {
		return "", common.ErrNotFound
	}
	return tok, nil
}

func (m *memDevices) Rename(_ context.Context, username, oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldKey, newKey := devKey(username, oldName), devKey(username, newName)
	tok, ok := m.tokens[oldKey]
	if !ok {
		return common.ErrNotFound
	}
	if _, taken := m.tokens[newKey]; taken {
		return common.ErrAlreadyExists
	}
	delete(m.tokens, oldKey)
	m.tokens[newKey] = tok
	for i, k := range m.order {
		if k == oldKey {
			m.order[i] = newKey
		}
	}
	return nil
}

func (m *memDevices) Delete(_ context.Context, username, deviceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := devKey(username, deviceName)
	if _, ok := m.tokens[k]; !ok {
		return common.ErrNotFound
	}
	delete(m.tokens, k)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == k })
	return nil
}

func (m *memDevices) List(_ context.Context, username string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := []string{}
	prefix := username + "|"
	for _, k := range m.order {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			names = append(names, k[len(prefix):])
		}
	}
	return names, nil
}

func (m *memDevices) Exists(_ context.Context, username, deviceName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[devKey(username, deviceName)]
	return ok, nil
}

type memShares struct {
	mu   sync.Mutex
	rows map[string]*models.Share
}

func newMemShares() *memShares {
	return &memShares{rows: map[string]*models.Share{}}
}

func shareKey(username string, ts time.Time) string {
	return username + "|" + ts.Format(time.RFC3339Nano)
}

func (m *memShares) Create(_ context.Context, share *models.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := shareKey(share.Username, share.Timestamp)
	if _, ok := m.rows[k]; ok {
		return common.ErrAlreadyExists
	}
	s := *share
	s.TargetDevices = slices.Clone(share.TargetDevices)
	m.rows[k] = &s
	return nil
}

func (m *memShares) ListPending(_ context.Context, username, deviceName string) ([]*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*models.Share{}
	for _, s := range m.rows {
		if s.Username == username && slices.Contains(s.TargetDevices, deviceName) {
			copied := *s
			copied.TargetDevices = slices.Clone(s.TargetDevices)
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memShares) Consume(_ context.Context, username, deviceName string, timestamp time.Time) (*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := shareKey(username, timestamp)
	s, ok := m.rows[k]
	if !ok {
		return nil, common.ErrNotFound
	}
	if !slices.Contains(s.TargetDevices, deviceName) {
		return nil, common.ErrNotTargeted
	}

	snapshot := *s
	snapshot.TargetDevices = slices.Clone(s.TargetDevices)

	s.TargetDevices = slices.DeleteFunc(s.TargetDevices, func(n string) bool { return n == deviceName })
	if len(s.TargetDevices) == 0 {
		delete(m.rows, k)
	}
	return &snapshot, nil
}

func (m *memShares) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
