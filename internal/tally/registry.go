package tally

import (
	"strings"
	"sync"
)

// Registry is the set of known group names. Identity-to-group selection
// is session state owned by the transport; the registry only answers
// which groups exist.
type Registry struct {
	mu    sync.RWMutex
	order []string
	names map[string]struct{}
}

func NewRegistry(names ...string) *Registry {
	r := &Registry{names: make(map[string]struct{})}
	for _, n := range names {
		r.Add(n)
	}
	return r
}

// Add registers a group name. Blank names and duplicates are ignored.
func (r *Registry) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[name]; ok {
		return
	}
	r.names[name] = struct{}{}
	r.order = append(r.order, name)
}

func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Names returns the registered groups in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
