package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStoreForTest(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "surveyhub:"), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newRedisStoreForTest(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "users:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "users:1", []byte(`{"id":"1"}`)))
	assert.True(t, mr.Exists("surveyhub:users:1"))

	got, ok, err := store.Get(ctx, "users:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"1"}`, string(got))

	require.NoError(t, store.Delete(ctx, "users:1", "missing"))
	assert.False(t, mr.Exists("surveyhub:users:1"))
	assert.NoError(t, store.Delete(ctx))
}

func TestRedisStore_ClearOnlyOwnPrefix(t *testing.T) {
	store, mr := newRedisStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("other:key", "keep"))
	for _, k := range []string{"a", "b", "surveys:__all_surveys"} {
		require.NoError(t, store.Set(ctx, k, []byte("[]")))
	}

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, []string{"other:key"}, mr.Keys())
}

func TestRedisStore_ErrorsPropagate(t *testing.T) {
	store, mr := newRedisStoreForTest(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), "users:1")
	assert.Error(t, err)
	assert.Error(t, store.Set(context.Background(), "users:1", []byte("{}")))
	assert.Error(t, store.Ping(context.Background()))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value := []byte("v")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, store.Set(ctx, "k2", []byte("v2")))
	require.NoError(t, store.Delete(ctx, "k"))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
	assert.NoError(t, store.Ping(ctx))
}
