package identity

import (
	"context"
	"sync"
)

// Memory is an in-process Lookup for tests and local development.
type Memory struct {
	mu     sync.RWMutex
	users  map[string]Identity // subject -> identity
	badges map[string][]Badge  // user id -> badges

	// FailLookup / FailBadges force the next calls to return the given
	// error, simulating store faults.
	FailLookup error
	FailBadges error
}

func NewMemory() *Memory {
	return &Memory{
		users:  make(map[string]Identity),
		badges: make(map[string][]Badge),
	}
}

var _ Lookup = (*Memory)(nil)

// Put registers an identity under a subject id.
func (m *Memory) Put(subject string, id Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[subject] = id
}

// PutBadges registers badges for a user id.
func (m *Memory) PutBadges(userID string, badges []Badge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.badges[userID] = badges
}

func (m *Memory) FindBySubject(ctx context.Context, subject string) (*Identity, error) {
	if m.FailLookup != nil {
		return nil, m.FailLookup
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.users[subject]
	if !ok {
		return nil, ErrNotFound
	}
	cp := id
	return &cp, nil
}

func (m *Memory) FindBadges(ctx context.Context, userID string) ([]Badge, error) {
	if m.FailBadges != nil {
		return nil, m.FailBadges
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Badge(nil), m.badges[userID]...), nil
}
