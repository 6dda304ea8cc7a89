package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Preview is a rendered image held until it is released.
type Preview struct {
	ID        string
	Name      string
	Data      []byte
	CreatedAt time.Time
}

// PreviewCache holds preview images under opaque handles. Entries live
// until Release is called; nothing expires on its own.
type PreviewCache struct {
	mu       sync.RWMutex
	previews map[string]Preview
}

// NewPreviewCache creates a new PreviewCache
func NewPreviewCache() *PreviewCache {
	return &PreviewCache{
		previews: make(map[string]Preview),
	}
}

// Put stores data under a fresh handle.
func (c *PreviewCache) Put(name string, data []byte) Preview {
	p := Preview{
		ID:        uuid.NewString(),
		Name:      name,
		Data:      data,
		CreatedAt: time.Now(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previews[p.ID] = p
	return p
}

// Get retrieves a preview by handle
func (c *PreviewCache) Get(id string) (Preview, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.previews[id]
	return p, ok
}

// Release drops a preview. It reports whether the handle was live.
func (c *PreviewCache) Release(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.previews[id]
	delete(c.previews, id)
	return ok
}

// Len returns the number of unreleased previews.
func (c *PreviewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.previews)
}
