package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisSessionStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client), mr
}

func TestRedisSessionStoreTakeIsSingleUse(t *testing.T) {
	store, _ := newRedisSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Hour))

	userID, err := store.Take(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = store.Take(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	store, mr := newRedisSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Take(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreDelete(t *testing.T) {
	store, _ := newRedisSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Hour))
	require.NoError(t, store.Delete(ctx, "jti-1"))

	_, err := store.Take(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting an unknown session is fine.
	assert.NoError(t, store.Delete(ctx, "jti-missing"))
}

func TestMemorySessionStoreTakeIsSingleUse(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Hour))

	userID, err := store.Take(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = store.Take(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", -time.Minute))

	_, err := store.Take(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, store.Len(), "expired sessions are dropped on take")
}

func TestMemorySessionStoreFlush(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Hour))
	require.NoError(t, store.Save(ctx, "jti-2", "user-2", time.Hour))
	assert.Equal(t, 2, store.Len())

	store.Flush()
	assert.Zero(t, store.Len())

	_, err := store.Take(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
