package chat

import (
	"sort"
	"sync"
)

// SessionRegistry maps nicknames to sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Register inserts session under nickname and fails without side effects if
// the nickname is taken.
func (r *SessionRegistry) Register(nickname string, session *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[nickname]; exists {
		return false
	}
	r.sessions[nickname] = session
	return true
}

func (r *SessionRegistry) Unregister(nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, nickname)
}

func (r *SessionRegistry) Lookup(nickname string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[nickname]
	return session, ok
}

// Snapshot returns the registered sessions ordered by nickname.
func (r *SessionRegistry) Snapshot() []*Session {
	r.mu.RLock()
	nicks := make([]string, 0, len(r.sessions))
	for nick := range r.sessions {
		nicks = append(nicks, nick)
	}
	sort.Strings(nicks)
	result := make([]*Session, 0, len(nicks))
	for _, nick := range nicks {
		result = append(result, r.sessions[nick])
	}
	r.mu.RUnlock()
	return result
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
