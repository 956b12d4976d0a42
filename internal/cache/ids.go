package cache

import (
	"sync"
	"time"
)

const (
	userIDKey        = "user:me"
	projectKeyPrefix = "project:"
)

// IDCache remembers the resolved user id and project name to id mappings.
// Lookups hit an in-process map first and fall back to the sqlite store, so
// ids survive restarts until their TTL runs out. A nil store keeps
// everything in memory.
type IDCache struct {
	mu    sync.RWMutex
	store *Cache
	ttl   time.Duration
	mem   map[string]entry
}

type entry struct {
	value     string
	expiresAt time.Time
}

// NewIDCache creates an IDCache backed by store. A non-positive ttl means
// one day.
func NewIDCache(store *Cache, ttl time.Duration) *IDCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IDCache{
		store: store,
		ttl:   ttl,
		mem:   make(map[string]entry),
	}
}

// UserID returns the cached user id, or "" on a miss.
func (c *IDCache) UserID() string {
	return c.get(userIDKey)
}

// SetUserID caches the user id.
func (c *IDCache) SetUserID(id string) error {
	return c.set(userIDKey, id)
}

// ProjectID returns the cached id of the named project, or "" on a miss.
func (c *IDCache) ProjectID(project string) string {
	return c.get(projectKeyPrefix + project)
}

// SetProjectID caches the id of the named project.
func (c *IDCache) SetProjectID(project, id string) error {
	return c.set(projectKeyPrefix+project, id)
}

// Invalidate forgets every cached id.
func (c *IDCache) Invalidate() error {
	c.mu.Lock()
	c.mem = make(map[string]entry)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(userIDKey); err != nil {
		return err
	}
	return c.store.DeletePrefix(projectKeyPrefix)
}

func (c *IDCache) get(key string) string {
	c.mu.RLock()
	e, ok := c.mem[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.value
	}

	if c.store == nil {
		return ""
	}
	// A broken store only costs a refetch.
	value, err := c.store.Get(key)
	if err != nil || value == nil {
		return ""
	}

	c.mu.Lock()
	c.mem[key] = entry{value: string(value), expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return string(value)
}

func (c *IDCache) set(key, value string) error {
	c.mu.Lock()
	c.mem[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Set(key, []byte(value), c.ttl)
}
