package store_test

import (
	"context"
	"testing"

	testify "github.com/stretchr/testify/assert"

	"github.com/kode4food/marmot/internal/store"
	"github.com/kode4food/marmot/pkg/api"
)

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	doc := api.Document{"name": "marmot", "age": 3}
	testify.NoError(t, m.Create(ctx, "animals", "a-1", doc))

	found, err := m.Find(ctx, "animals", "a-1")
	testify.NoError(t, err)
	testify.Equal(t, "marmot", found["name"])

	testify.NoError(t, m.Update(ctx, "animals", "a-1",
		api.Document{"name": "groundhog"}))
	found, err = m.Find(ctx, "animals", "a-1")
	testify.NoError(t, err)
	testify.Equal(t, "groundhog", found["name"])
	testify.NotContains(t, found, "age")

	testify.NoError(t, m.Delete(ctx, "animals", "a-1"))
	_, err = m.Find(ctx, "animals", "a-1")
	testify.ErrorIs(t, err, api.ErrNotFound)
}

func TestMemoryCreateConflict(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	testify.NoError(t, m.Create(ctx, "animals", "a-1", api.Document{}))
	err := m.Create(ctx, "animals", "a-1", api.Document{})
	testify.ErrorIs(t, err, api.ErrExists)
	testify.ErrorContains(t, err, "animals/a-1")
}

func TestMemoryMissing(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.Find(ctx, "animals", "nope")
	testify.ErrorIs(t, err, api.ErrNotFound)
	testify.ErrorIs(t, m.Update(ctx, "animals", "nope", api.Document{}),
		api.ErrNotFound)
	testify.ErrorIs(t, m.Delete(ctx, "animals", "nope"), api.ErrNotFound)
}

func TestMemoryIsolation(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	doc := api.Document{"tags": "original"}
	testify.NoError(t, m.Create(ctx, "animals", "a-1", doc))

	// mutations of the caller's map never leak into the store
	doc["tags"] = "mutated"
	found, err := m.Find(ctx, "animals", "a-1")
	testify.NoError(t, err)
	testify.Equal(t, "original", found["tags"])

	// nor do mutations of a returned document
	found["tags"] = "mutated"
	again, err := m.Find(ctx, "animals", "a-1")
	testify.NoError(t, err)
	testify.Equal(t, "original", again["tags"])
}

func TestMemoryCollectionsIndependent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	testify.NoError(t, m.Create(ctx, "cats", "x", api.Document{}))
	_, err := m.Find(ctx, "dogs", "x")
	testify.ErrorIs(t, err, api.ErrNotFound)
}
