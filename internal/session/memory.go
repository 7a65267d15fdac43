package session

import (
	"context"
	"sync"

	"github.com/claudel/offrebot/internal/domain"
)

// MemoryStore keeps sessions in a mutex-guarded map. A single coarse
// lock is a deliberate simplification: session operations are cheap
// map accesses and webhook traffic is low. Sessions do not survive a
// process restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
	}
}

func (m *MemoryStore) Get(_ context.Context, user string) (domain.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[user]
	return s, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, user string, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[user] = s
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, user)
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
