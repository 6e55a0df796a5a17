package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests talk to real servers and are skipped unless the matching
// environment variable points at one.

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("TODO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TODO_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	store, err := NewRedisStore(ctx, RedisOptions{
		Addr:   addr,
		Prefix: "activitytodo-test:" + uuid.NewString() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exerciseStore(t, store)
}

func TestPostgresStore_Integration(t *testing.T) {
	url := os.Getenv("TODO_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TODO_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()

	store, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exerciseStore(t, store)
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	key := "tasks-" + uuid.NewString()

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, `[{"id":1}]`))
	v, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, store.Set(ctx, key, `[]`))
	v, _, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	assert.ErrorIs(t, store.Set(ctx, "", "x"), ErrInvalidKey)
}
