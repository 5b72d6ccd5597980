package api

import (
	"context"
	"errors"
)

type (
	// Document is a single stored record
	Document map[string]any

	// Store is the narrow datastore contract injected into step handlers
	// through the Context. The runtime imposes no locking discipline on
	// it; rollback correctness is the feature author's responsibility
	Store interface {
		// Find retrieves a document by collection and id
		Find(ctx context.Context, collection, id string) (Document, error)

		// Create stores a new document, failing if the id already exists
		Create(ctx context.Context, collection, id string, doc Document) error

		// Update replaces an existing document
		Update(ctx context.Context, collection, id string, doc Document) error

		// Delete removes a document by collection and id
		Delete(ctx context.Context, collection, id string) error
	}
)

var (
	ErrNotFound = errors.New("document not found")
	ErrExists   = errors.New("document already exists")
)
