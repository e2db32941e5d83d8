// Package session provides SessionStore implementations. Only a volatile
// in-memory store ships with the library; durable stores belong to the
// embedding application.
package session

import (
	"fmt"
	"sync"

	"github.com/hupe1980/interviewmesh/core"
)

// InMemoryStore is a volatile core.SessionStore keeping sessions in a
// process-local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. Sessions are cloned on both put and get
// so callers can never mutate stored state through a retained pointer.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.InterviewSession
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.InterviewSession)}
}

// Get returns a clone of the stored session or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(id string) (*core.InterviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, core.ErrSessionNotFound)
	}
	return sess.Clone(), nil
}

// Put stores a clone of the session under its id, replacing any previous
// snapshot.
func (s *InMemoryStore) Put(session *core.InterviewSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Remove deletes the session; removing an absent id is a no-op.
func (s *InMemoryStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports how many sessions the store currently holds.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
