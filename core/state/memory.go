package state

import "sync"

type memoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
}

// NewMemory constructs an in-memory Store. Sessions are lost on restart.
func NewMemory[T any]() Store[T] {
	return &memoryStore[T]{
		sessions: make(map[int64]T),
	}
}

// Get returns the session for a user if it exists, otherwise the zero value.
func (m *memoryStore[T]) Get(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[userID]
	return session, ok
}

// Set replaces the session for a user, creating it if necessary.
func (m *memoryStore[T]) Set(userID int64, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = value
}

// Delete removes the entire session for a user.
func (m *memoryStore[T]) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}

// Len returns the number of stored sessions.
func (m *memoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
