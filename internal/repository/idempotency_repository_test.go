package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepositoryLifecycle(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewIdempotencyRepository(client)
	ctx := context.Background()

	ok, existing, err := repo.Reserve(ctx, "key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, existing)

	ok, existing, err = repo.Reserve(ctx, "key-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, existing, "first request still running")

	require.NoError(t, repo.Complete(ctx, "key-1", "bill-1", time.Hour))
	ok, existing, err = repo.Reserve(ctx, "key-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "bill-1", existing)

	require.NoError(t, repo.Release(ctx, "key-1"))
	assert.False(t, mr.Exists("idem:bills:key-1"))
}
