// Package store provides datastore implementations of the api.Store
// contract injected into step handlers
package store

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/kode4food/marmot/pkg/api"
)

// Memory is a process-local Store for tests and single-node use
type Memory struct {
	collections map[string]map[string]api.Document
	mu          sync.RWMutex
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		collections: map[string]map[string]api.Document{},
	}
}

// Find retrieves a document by collection and id
func (m *Memory) Find(
	_ context.Context, collection, id string,
) (api.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	return maps.Clone(doc), nil
}

// Create stores a new document, failing if the id already exists
func (m *Memory) Create(
	_ context.Context, collection, id string, doc api.Document,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		c = map[string]api.Document{}
		m.collections[collection] = c
	}
	if _, ok := c[id]; ok {
		return fmt.Errorf("%w: %s/%s", api.ErrExists, collection, id)
	}
	c[id] = maps.Clone(doc)
	return nil
}

// Update replaces an existing document
func (m *Memory) Update(
	_ context.Context, collection, id string, doc api.Document,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	if _, ok := c[id]; !ok {
		return fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	c[id] = maps.Clone(doc)
	return nil
}

// Delete removes a document by collection and id
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	if _, ok := c[id]; !ok {
		return fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	delete(c, id)
	return nil
}
