// Package reload keeps a running application in sync with the fresco
// watcher: it caches every template the watcher has delivered and
// broadcasts the latest one to subscribed renderers.
package reload

import (
	"sync"

	"fresco/ui"
)

// Cache is the deduplicated set of templates delivered since startup.
// It only grows; templates are never removed or replaced.
type Cache struct {
	mu        sync.RWMutex
	templates map[string]ui.Template
}

func NewCache() *Cache {
	return &Cache{templates: make(map[string]ui.Template)}
}

// Insert adds a template and reports whether it was new. Re-inserting
// a structurally equal template leaves the cache unchanged. The cache
// stores its own copy of the body.
func (c *Cache) Insert(template ui.Template) bool {
	if c == nil {
		return false
	}
	key := template.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.templates[key]; ok {
		return false
	}
	c.templates[key] = template.Clone()
	return true
}

// Contains reports whether a structurally equal template is cached.
func (c *Cache) Contains(template ui.Template) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.templates[template.Key()]
	return ok
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

// Snapshot returns copies of all cached templates. Order is not
// specified.
func (c *Cache) Snapshot() []ui.Template {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ui.Template, 0, len(c.templates))
	for _, template := range c.templates {
		out = append(out, template.Clone())
	}
	return out
}
