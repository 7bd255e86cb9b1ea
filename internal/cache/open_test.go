package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surveyhub/internal/config"
)

func TestOpen_MemoryWhenRedisDisabled(t *testing.T) {
	store, err := Open(context.Background(), config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Open(context.Background(), config.RedisConfig{Enabled: true, Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, store)

	require.NoError(t, store.Set(context.Background(), "users:1", []byte(`{}`)))
	assert.True(t, mr.Exists(KeyPrefix+"users:1"))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), config.RedisConfig{Enabled: true, Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}
