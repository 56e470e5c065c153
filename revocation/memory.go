package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process revocation set. Entries are never removed.
type Memory struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewMemory returns an empty set.
func NewMemory() *Memory {
	return &Memory{revoked: make(map[string]struct{})}
}

// Contains reports whether token was revoked.
func (m *Memory) Contains(_ context.Context, token string) (bool, error) {
	fp := Fingerprint(token)
	m.mu.RLock()
	_, ok := m.revoked[fp]
	m.mu.RUnlock()
	return ok, nil
}

// Revoke adds token to the set. expiresAt is ignored.
func (m *Memory) Revoke(_ context.Context, token string, _ time.Time) error {
	fp := Fingerprint(token)
	m.mu.Lock()
	m.revoked[fp] = struct{}{}
	m.mu.Unlock()
	return nil
}

// Len returns the number of revoked tokens.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.revoked)
}
