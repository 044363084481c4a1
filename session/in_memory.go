package session

import (
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// Store persists conversation history between runs, keyed by session ID.
type Store interface {
	// History returns the stored items for a session, oldest first. An
	// unknown session yields an empty history, not an error.
	History(sessionID string) ([]core.Content, error)
	// Append adds items to the end of a session's history, creating the
	// session lazily.
	Append(sessionID string, items ...core.Content) error
	// Clear removes a session's history.
	Clear(sessionID string) error
}

// InMemoryStore is a volatile Store implementation backed by a process-local
// map. It is safe for concurrent access; histories are copied on read and
// write so callers can never alias internal state. Best suited for tests and
// ephemeral deployments.
type InMemoryStore struct {
	mu        sync.RWMutex
	histories map[string][]core.Content
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{histories: make(map[string][]core.Content)}
}

// History implements Store.
func (s *InMemoryStore) History(sessionID string) ([]core.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.histories[sessionID]
	out := make([]core.Content, len(stored))
	copy(out, stored)
	return out, nil
}

// Append implements Store.
func (s *InMemoryStore) Append(sessionID string, items ...core.Content) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[sessionID] = append(s.histories[sessionID], items...)
	return nil
}

// Clear implements Store.
func (s *InMemoryStore) Clear(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.histories, sessionID)
	return nil
}
