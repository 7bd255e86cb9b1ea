package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"surveyhub/internal/errors"
)

var nullJSON = []byte("null")

// Entry is a typed read-through view over a Store.
type Entry[T any] struct {
	store Store
}

// NewEntry binds T to store.
func NewEntry[T any](store Store) Entry[T] {
	return Entry[T]{store: store}
}

// Get returns the cached value for key, or calls load on a miss and caches
// its result. Errors from load are returned as-is and nothing is cached.
func (e Entry[T]) Get(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := e.store.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		return decode[T](key, raw)
	}

	v, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if err := e.Put(ctx, key, v); err != nil {
		return zero, err
	}
	return v, nil
}

// Put overwrites key with v. A nil value is never written.
func (e Entry[T]) Put(ctx context.Context, key string, v T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if bytes.Equal(payload, nullJSON) {
		return nil
	}
	return e.store.Set(ctx, key, payload)
}

// Invalidate removes keys.
func (e Entry[T]) Invalidate(ctx context.Context, keys ...string) error {
	return e.store.Delete(ctx, keys...)
}

func decode[T any](key string, raw []byte) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullJSON) {
		return v, fmt.Errorf("%s: %w", key, errors.ErrCacheCorrupt)
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, fmt.Errorf("%s: %w: %v", key, errors.ErrCacheCorrupt, err)
	}
	return v, nil
}
