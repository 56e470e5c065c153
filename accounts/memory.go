package accounts

import (
	"context"
	"sync"

	"github.com/MrEthical07/tokenAuth"
)

// Memory is a mutex-guarded account map keyed by username.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	byName  map[string]tokenAuth.UserRecord
	byEmail map[string]string
}

// NewMemory returns an empty store. IDs start at 1.
func NewMemory() *Memory {
	return &Memory{
		byName:  make(map[string]tokenAuth.UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (tokenAuth.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byName[username]
	if !ok {
		return tokenAuth.UserRecord{}, tokenAuth.ErrUserNotFound
	}
	return u, nil
}

func (m *Memory) CreateUser(_ context.Context, user tokenAuth.UserRecord) (tokenAuth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byName[user.Username]; taken {
		return tokenAuth.UserRecord{}, tokenAuth.ErrAccountExists
	}
	if _, taken := m.byEmail[user.Email]; taken {
		return tokenAuth.UserRecord{}, tokenAuth.ErrAccountExists
	}

	m.nextID++
	user.ID = m.nextID
	m.byName[user.Username] = user
	m.byEmail[user.Email] = user.Username
	return user, nil
}

// UpdatePasswordHash replaces the stored hash of the account with userID.
func (m *Memory) UpdatePasswordHash(_ context.Context, userID int64, encodedHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, u := range m.byName {
		if u.ID == userID {
			u.PasswordHash = encodedHash
			m.byName[name] = u
			return nil
		}
	}
	return tokenAuth.ErrUserNotFound
}

// Len returns the number of accounts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byName)
}
