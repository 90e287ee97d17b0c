package lookup

import (
	"context"
	"strings"
	"sync"
)

// Directory is an in-memory identity→name mapping fed by the transport
// (chat bridges know who sent a message; entries never store names).
// Unknown identities resolve to themselves so rendering always has a
// label to show.
type Directory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewDirectory() *Directory {
	return &Directory{names: make(map[string]string)}
}

// Set remembers the display name for an identity. Blank names are
// ignored so a sparse transport cannot erase a known name.
func (d *Directory) Set(identity, name string) {
	name = strings.TrimSpace(name)
	if identity == "" || name == "" {
		return
	}
	d.mu.Lock()
	d.names[identity] = name
	d.mu.Unlock()
}

// Label implements Labeler.
func (d *Directory) Label(_ context.Context, identity string) (string, error) {
	d.mu.RLock()
	name, ok := d.names[identity]
	d.mu.RUnlock()
	if !ok {
		return identity, nil
	}
	return name, nil
}
