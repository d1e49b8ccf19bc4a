package routing

import (
	"sync"

	"github.com/comicbase/comics-api/pkg/catalog"
)

// SessionRegistry hands out per-client key-value bags keyed by the
// session ID the client presents. The search service only sees the
// catalog.SessionStore interface.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: map[string]*session{}}
}

// Get returns the session bag for the given ID, creating it on first
// use. An empty ID maps to a shared anonymous session.
func (r *SessionRegistry) Get(id string) catalog.SessionStore {
	if id == "" {
		id = "anonymous"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = &session{lists: map[string][]string{}}
		r.sessions[id] = s
	}
	return s
}

type session struct {
	mu    sync.Mutex
	lists map[string][]string
}

func (s *session) GetList(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lists[key]...)
}

func (s *session) SetList(key string, values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([]string(nil), values...)
}
