package lookup

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Cached memoizes a Labeler with an LRU + TTL cache, bounding how often
// a slow upstream (chat API, user service) is asked for the same
// identity between renders.
type Cached struct {
	inner   Labeler
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cachedLabel struct {
	identity  string
	label     string
	expiresAt time.Time
}

func NewCached(inner Labeler, maxSize int, ttl time.Duration) *Cached {
	return &Cached{
		inner:   inner,
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Label implements Labeler. Lookup errors are returned uncached so a
// transient upstream failure does not pin a bad label.
func (c *Cached) Label(ctx context.Context, identity string) (string, error) {
	if label, ok := c.get(identity); ok {
		return label, nil
	}
	label, err := c.inner.Label(ctx, identity)
	if err != nil {
		return "", err
	}
	c.set(identity, label)
	return label, nil
}

func (c *Cached) get(identity string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[identity]
	if !ok {
		return "", false
	}
	item := elem.Value.(*cachedLabel)
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return "", false
	}
	c.lru.MoveToFront(elem)
	return item.label, true
}

func (c *Cached) set(identity, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cachedLabel{
		identity:  identity,
		label:     label,
		expiresAt: time.Now().Add(c.ttl),
	}
	if elem, ok := c.items[identity]; ok {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}
	elem := c.lru.PushFront(item)
	c.items[identity] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *Cached) removeElement(elem *list.Element) {
	item := elem.Value.(*cachedLabel)
	delete(c.items, item.identity)
	c.lru.Remove(elem)
}

// Size returns the number of cached labels, expired or not.
func (c *Cached) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
