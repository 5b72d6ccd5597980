package api

import (
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Context is the per-request mutable data bag threaded through every
// step and async task. It is created fresh for each request and owned by
// the single in-flight pipeline; the runtime treats its contents as
// opaque. The lock exists only for async tasks, which may mutate the
// Context concurrently after the response has settled
type Context struct {
	values map[string]any
	store  Store
	id     string
	mu     sync.RWMutex
}

// NewContext creates an empty per-request context with a fresh request ID
func NewContext(store Store) *Context {
	return &Context{
		id:     uuid.New().String(),
		store:  store,
		values: map[string]any{},
	}
}

// RequestID returns the unique identifier assigned to this request
func (c *Context) RequestID() string {
	return c.id
}

// Store returns the datastore injected into this request, or nil when
// the runtime was built without one
func (c *Context) Store() Store {
	return c.store
}

// Get retrieves a value previously stashed under key
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stashes a value under key, replacing any previous value
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Delete removes the value stashed under key
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Keys returns the sorted set of keys currently stashed
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.values))
}

// GetAs retrieves a value stashed under key, asserting its type. The
// second result is false when the key is absent or of another type
func GetAs[T any](c *Context, key string) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	res, ok := v.(T)
	return res, ok
}
