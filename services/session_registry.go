package services

import (
	"sort"
	"sync"
)

// SessionRegistry tracks live sessions by id and by user. Implementations
// must be safe for concurrent use.
type SessionRegistry interface {
	Get(id string) (*Session, bool)
	// Put stores s and makes it the live session of s.UserKey
	Put(s *Session)
	// Delete removes the session and reports whether it was present
	Delete(id string) bool
	IDForUser(userKey string) (string, bool)
	All() []*Session
}

// MemoryRegistry is the in-process registry; sessions do not survive a
// restart.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*Session
	byUser map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:   make(map[string]*Session),
		byUser: make(map[string]string),
	}
}

func (r *MemoryRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *MemoryRegistry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = s
	r.byUser[s.UserKey] = s.ID
}

func (r *MemoryRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	// A newer session may already own the user slot.
	if r.byUser[s.UserKey] == id {
		delete(r.byUser, s.UserKey)
	}
	return true
}

func (r *MemoryRegistry) IDForUser(userKey string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userKey]
	return id, ok
}

// All returns the sessions ordered by creation time
func (r *MemoryRegistry) All() []*Session {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}
