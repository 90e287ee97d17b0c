package memory

import (
	"context"
	"fmt"
	"sync"

	"panen/internal/core"
	"panen/internal/export"
)

// Store keeps written documents in memory. Used in tests and as the
// dev-mode export backend.
type Store struct {
	mu   sync.Mutex
	docs []core.Document
}

var _ export.Writer = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Write stores the document and returns a synthetic reference.
func (s *Store) Write(_ context.Context, doc core.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return fmt.Sprintf("mem:%d", len(s.docs)), nil
}

// Last returns the most recently written document.
func (s *Store) Last() (core.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.docs) == 0 {
		return core.Document{}, false
	}
	return s.docs[len(s.docs)-1], true
}

// Len returns how many documents have been written.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
