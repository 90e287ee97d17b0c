package http

import "sync"

// sessionStore tracks each identity's current group selection and
// whether we are waiting for them to pick one (the two-state
// prompt/response dialogue). Process-lifetime only, like the rest of
// the state.
type sessionStore struct {
	mu      sync.Mutex
	groups  map[string]string
	pending map[string]bool
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		groups:  make(map[string]string),
		pending: make(map[string]bool),
	}
}

func (s *sessionStore) group(identity string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups[identity]
}

func (s *sessionStore) choose(identity, group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[identity] = group
	delete(s.pending, identity)
}

func (s *sessionStore) markPending(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[identity] = true
}

func (s *sessionStore) isPending(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[identity]
}
