package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/marmot/pkg/api"
)

type (
	// RedisConfig holds connection settings for a Redis-backed store
	RedisConfig struct {
		Addr     string
		Password string
		Prefix   string
		DB       int
	}

	// Redis is a Store backed by a Redis instance, with documents
	// serialized as JSON strings under "<prefix>:<collection>:<id>"
	Redis struct {
		client *redis.Client
		prefix string
	}
)

// NewRedis creates a Redis-backed store from the provided config
func NewRedis(cfg *RedisConfig) *Redis {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "marmot"
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
	}
}

// Ping verifies connectivity to the Redis instance
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}

// Find retrieves a document by collection and id
func (r *Redis) Find(
	ctx context.Context, collection, id string,
) (api.Document, error) {
	raw, err := r.client.Get(ctx, r.key(collection, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}
	var doc api.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Create stores a new document, failing if the id already exists
func (r *Redis) Create(
	ctx context.Context, collection, id string, doc api.Document,
) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(collection, id), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", api.ErrExists, collection, id)
	}
	return nil
}

// Update replaces an existing document
func (r *Redis) Update(
	ctx context.Context, collection, id string, doc api.Document,
) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	key := r.key(collection, id)
	ok, err := r.client.SetXX(ctx, key, raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	return nil
}

// Delete removes a document by collection and id
func (r *Redis) Delete(ctx context.Context, collection, id string) error {
	removed, err := r.client.Del(ctx, r.key(collection, id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s/%s", api.ErrNotFound, collection, id)
	}
	return nil
}

func (r *Redis) key(collection, id string) string {
	return r.prefix + ":" + collection + ":" + id
}
