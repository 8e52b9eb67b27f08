package client

import (
	"sync"
)

// SessionExpiry is called once per expired session, after the session store
// has been cleared. Implementations typically navigate back to the login
// screen.
type SessionExpiry func(reason error)

// SessionStore caches the signed in user between requests.
type SessionStore interface {
	User() (User, bool)
	SetUser(User)
	Clear()
}

// User is the cached identity of the signed in administrator.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// MemorySession is an in-process SessionStore.
type MemorySession struct {
	mu   sync.RWMutex
	user *User
}

var _ SessionStore = (*MemorySession)(nil)

// NewMemorySession returns an empty session.
func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *MemorySession) SetUser(u User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

func (s *MemorySession) Clear() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
