package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestVerificationTokenRepository_UpsertResetsAttempts(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewVerificationTokenRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.Upsert(ctx, "a@example.com", "digest-1", expires))
	n, err := repo.IncrementAttempts(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.IncrementAttempts(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.Upsert(ctx, "a@example.com", "digest-2", expires))
	token, err := repo.Find(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "digest-2", token.Token)
	assert.Equal(t, 0, token.Attempts)
}

func TestVerificationTokenRepository_IncrementMissing(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewVerificationTokenRepository(db)

	_, err := repo.IncrementAttempts(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVerificationTokenRepository_ConsumeOnce(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewVerificationTokenRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, "a@example.com", "digest", time.Now().Add(time.Minute)))

	ok, err := repo.Consume(ctx, "a@example.com", "other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Consume(ctx, "a@example.com", "digest")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(ctx, "a@example.com", "digest")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Find(ctx, "a@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
